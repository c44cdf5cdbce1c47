package search

import (
	"context"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fserrors "github.com/dvpolyakov/fixedset/errors"
	"github.com/dvpolyakov/fixedset/internal/linhash"
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(sum[:8]), binary.LittleEndian.Uint64(sum[8:])))
}

// distinctKeys returns n distinct keys in [-10^9, 10^9].
func distinctKeys(rng *rand.Rand, n int) []int64 {
	seen := make(map[int64]struct{}, n)
	keys := make([]int64, 0, n)
	for len(keys) < n {
		k := rng.Int64N(2_000_000_001) - 1_000_000_000
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

func TestOccupancyCounts(t *testing.T) {
	keys := []int64{0, 1, 2, 3, 7, -7}
	fn := linhash.New(1, 0, 7) // identity mod 7
	counts := Occupancy(nil, keys, fn, 2)

	require.Len(t, counts, 12)
	// 0, 7 and -7 all map to 0; 1, 2, 3 map to themselves.
	assert.Equal(t, []uint32{3, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0}, counts)
	assert.Equal(t, uint64(9+1+1+1), SquaredSum(counts))
}

func TestOccupancyReusesBuffer(t *testing.T) {
	keys := []int64{1, 2, 3}
	fn := linhash.New(1, 0, 0)

	buf := make([]uint32, 0, 64)
	first := Occupancy(buf, keys, fn, 3)
	first[0] = 99 // stale garbage must be cleared on reuse
	second := Occupancy(first, keys, fn, 3)

	assert.Same(t, &buf[:1][0], &second[0])
	assert.Equal(t, uint64(len(keys)), SquaredSum(second))
}

func TestOccupancyEmpty(t *testing.T) {
	counts := Occupancy(nil, nil, linhash.New(1, 1, 0), 1)
	assert.Empty(t, counts)
	assert.Zero(t, SquaredSum(counts))
}

// TestFindTopLevelBound checks the load-balance acceptance: the returned
// function keeps the sum of squared bucket sizes within ratio * n.
func TestFindTopLevelBound(t *testing.T) {
	rng := newTestRNG(t)
	for _, n := range []int{1, 2, 3, 10, 100, 1000, 10000} {
		keys := distinctKeys(rng, n)
		c := Criterion{Multiplier: 1, Limit: 2 * uint64(n), Modulus: linhash.DefaultModulus}

		res, err := Find(context.Background(), rng, keys, c, 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Attempts, 1)

		counts := Occupancy(nil, keys, res.Func, 1)
		assert.LessOrEqual(t, SquaredSum(counts), 2*uint64(n), "n=%d", n)
	}
}

// TestFindBucketLevelCollisionFree checks that the bucket criterion
// (m*m counters, limit m) yields a collision-free function.
func TestFindBucketLevelCollisionFree(t *testing.T) {
	rng := newTestRNG(t)
	for m := 1; m <= 12; m++ {
		for trial := 0; trial < 20; trial++ {
			keys := distinctKeys(rng, m)
			c := Criterion{Multiplier: uint64(m), Limit: uint64(m), Modulus: linhash.DefaultModulus}

			res, err := Find(context.Background(), rng, keys, c, 0)
			require.NoError(t, err)

			size := uint64(m * m)
			seen := make(map[uint64]int64, m)
			for _, k := range keys {
				slot := res.Func.Eval(k) % size
				other, dup := seen[slot]
				require.False(t, dup, "keys %d and %d share slot %d under %s", k, other, slot, res.Func)
				seen[slot] = k
			}
		}
	}
}

func TestFindExhausted(t *testing.T) {
	rng := newTestRNG(t)
	keys := distinctKeys(rng, 1000)
	// A perfect spread of 1000 keys over 1000 buckets is practically unreachable.
	c := Criterion{Multiplier: 1, Limit: 1000, Modulus: linhash.DefaultModulus}

	_, err := Find(context.Background(), rng, keys, c, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fserrors.ErrConstructionExhausted))
	assert.Contains(t, err.Error(), "3 attempts")
}

// TestFindCongruentKeysNeverSeparate shows why congruent keys must be
// rejected before the search: no candidate can separate them.
func TestFindCongruentKeysNeverSeparate(t *testing.T) {
	rng := newTestRNG(t)
	p := int64(linhash.DefaultModulus)
	keys := []int64{5, 5 + p}
	c := Criterion{Multiplier: 2, Limit: 2, Modulus: linhash.DefaultModulus}

	_, err := Find(context.Background(), rng, keys, c, 200)
	assert.ErrorIs(t, err, fserrors.ErrConstructionExhausted)
}

func TestFindCanceled(t *testing.T) {
	rng := newTestRNG(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Find(ctx, rng, []int64{1, 2, 3}, Criterion{Multiplier: 1, Limit: 6}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

// countingSource records how many draws the search makes.
type countingSource struct {
	rng   *rand.Rand
	draws int
}

func (s *countingSource) Uint64N(n uint64) uint64 {
	s.draws++
	return s.rng.Uint64N(n)
}

func TestFindDrawsTwoValuesPerAttempt(t *testing.T) {
	src := &countingSource{rng: newTestRNG(t)}
	res, err := Find(context.Background(), src, []int64{42}, Criterion{Multiplier: 1, Limit: 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 2, src.draws)
}
