package fixedset

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Stats describes a built set.
type Stats struct {
	NumElements      int
	NumBuckets       int    // Equals NumElements
	NonEmptyBuckets  int
	MaxBucketSize    int
	TotalSlots       uint64 // Sum over buckets of size^2
	SquaredSizesSum  uint64 // Load-balance measure; at most ratio * NumElements
	TopLevelAttempts int    // Hash functions drawn for the top level
	BucketAttempts   int    // Hash functions drawn across all buckets
	Seed             uint64
	Modulus          uint64
}

// SlotsPerElement returns TotalSlots / NumElements, or 0 for an empty set.
func (st Stats) SlotsPerElement() float64 {
	if st.NumElements == 0 {
		return 0
	}
	return float64(st.TotalSlots) / float64(st.NumElements)
}

// Stats returns construction statistics.
func (s *Set[K]) Stats() Stats {
	return s.stats
}

// Digest returns an xxHash64 of the full structure: every hash function and
// the position of every stored element. Two sets with equal digests answer
// every query identically.
func (s *Set[K]) Digest() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 64)

	buf = binary.LittleEndian.AppendUint64(buf, s.stats.Modulus)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(s.buckets)))
	buf = appendFunc(buf, s.fn.Coeff(), s.fn.Intercept())
	_, _ = d.Write(buf) // xxhash.Digest.Write never fails

	for i := range s.buckets {
		b := &s.buckets[i]
		buf = appendFunc(buf[:0], b.fn.Coeff(), b.fn.Intercept())
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(b.slots)))
		_, _ = d.Write(buf)
		for j, sl := range b.slots {
			if !sl.ok {
				continue
			}
			buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(j))
			buf = binary.LittleEndian.AppendUint64(buf, uint64(sl.key))
			_, _ = d.Write(buf)
		}
	}
	return d.Sum64()
}

func appendFunc(buf []byte, coeff, intercept uint64) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, coeff)
	return binary.LittleEndian.AppendUint64(buf, intercept)
}
