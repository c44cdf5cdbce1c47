package fixedset

import (
	"context"

	"github.com/dvpolyakov/fixedset/internal/linhash"
	"github.com/dvpolyakov/fixedset/internal/search"
)

// slot is one cell of a bucket table. ok distinguishes an empty cell from a
// cell holding the key 0.
type slot struct {
	key int64
	ok  bool
}

// bucket is a second-level table of exactly m*m slots for the m keys routed
// to it, with a hash function under which those keys never collide.
// An empty bucket has no slots and a zero hash function.
type bucket struct {
	fn    linhash.Func
	slots []slot
}

// bucketParams is the per-build configuration shared by all buckets.
type bucketParams struct {
	modulus     uint64
	maxAttempts int
}

// newBucket searches a collision-free hash for keys and fills m*m slots.
// It returns the number of hash functions drawn.
//
// keys must be distinct modulo the prime; New validates this up front.
func newBucket(ctx context.Context, keys []int64, src linhash.Source, p bucketParams) (bucket, int, error) {
	if len(keys) == 0 {
		return bucket{}, 0, nil
	}

	m := uint64(len(keys))
	res, err := search.Find(ctx, src, keys, search.Criterion{
		Multiplier: m,
		Limit:      m,
		Modulus:    p.modulus,
	}, p.maxAttempts)
	if err != nil {
		return bucket{}, 0, err
	}

	b := bucket{
		fn:    res.Func,
		slots: make([]slot, m*m),
	}
	// No placement check: the accepted function has zero collisions on keys.
	for _, k := range keys {
		b.slots[b.slotIndex(k)] = slot{key: k, ok: true}
	}
	return b, res.Attempts, nil
}

// slotIndex maps key into [0, len(b.slots)). b must be non-empty.
func (b *bucket) slotIndex(key int64) uint64 {
	return b.fn.Eval(key) % uint64(len(b.slots))
}

// contains reports whether key is stored in this bucket.
func (b *bucket) contains(key int64) bool {
	if len(b.slots) == 0 {
		return false
	}
	s := b.slots[b.slotIndex(key)]
	return s.ok && s.key == key
}
