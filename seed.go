package fixedset

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/zeebo/xxh3"
)

// Seed domains keep the top-level stream and the bucket streams apart.
const (
	domainTopLevel byte = 0x01
	domainBucket   byte = 0x02
)

// newSource returns an independent PCG stream for (seed, domain, index).
//
// Every search gets its own generator, so buckets can be built on any
// goroutine in any order without sharing state, and the result depends only
// on the seed.
func newSource(seed uint64, domain byte, index uint64) *rand.Rand {
	var buf [9]byte
	buf[0] = domain
	binary.LittleEndian.PutUint64(buf[1:], index)
	h := xxh3.Hash128Seed(buf[:], seed)
	return rand.New(rand.NewPCG(h.Lo, h.Hi))
}
