package fixedset

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"

	"github.com/dvpolyakov/fixedset/internal/modarith"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// distinctKeys returns n distinct keys drawn uniformly from [lo, hi].
func distinctKeys(rng *rand.Rand, n int, lo, hi int64) []int64 {
	seen := make(map[int64]struct{}, n)
	keys := make([]int64, 0, n)
	span := uint64(hi-lo) + 1
	for len(keys) < n {
		k := lo + int64(rng.Uint64N(span))
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// residueDistinctKeys returns n keys drawn from the whole int64 range with
// pairwise distinct residues modulo p. n must not exceed p.
func residueDistinctKeys(rng *rand.Rand, n int, p uint64) []int64 {
	seen := make(map[uint64]struct{}, n)
	keys := make([]int64, 0, n)
	for len(keys) < n {
		k := int64(rng.Uint64())
		r := modarith.FloorMod(k, p)
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// toSet returns keys as a lookup map for brute-force membership.
func toSet(keys []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// testSeed returns a per-test seed for WithSeed.
func testSeed(t testing.TB) uint64 {
	t.Helper()
	return newTestRNG(t).Uint64()
}
