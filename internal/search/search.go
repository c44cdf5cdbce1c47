// Package search implements the randomized generate-and-test loop shared by
// both levels of the set: draw a random hash function, measure the load it
// produces on a key set, and keep drawing until the load is acceptable.
package search

import (
	"context"
	"fmt"

	fserrors "github.com/dvpolyakov/fixedset/errors"
	"github.com/dvpolyakov/fixedset/internal/linhash"
)

// Criterion parameterizes one use of the search.
//
// A candidate is accepted when the sum of squared per-slot occupancy counts,
// measured over a provisional table of len(keys)*Multiplier counters, is at
// most Limit.
//
//   - Top level: Multiplier = 1, Limit = ratio * n (load-balance bound).
//   - Bucket level: Multiplier = m, Limit = m (no collisions among m keys).
type Criterion struct {
	Multiplier uint64
	Limit      uint64
	Modulus    uint64
}

// Result is an accepted hash function and the number of candidates drawn.
type Result struct {
	Func     linhash.Func
	Attempts int
}

// Find samples hash functions from src until one satisfies c.
//
// maxAttempts == 0 means unbounded: each trial succeeds with constant
// probability, so the expected number of trials is O(1). A positive
// maxAttempts turns exhaustion into ErrConstructionExhausted.
//
// ctx is checked between attempts. keys must be non-empty.
func Find(ctx context.Context, src linhash.Source, keys []int64, c Criterion, maxAttempts int) (Result, error) {
	var counts []uint32
	for attempt := 1; maxAttempts == 0 || attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		fn := linhash.Random(src, c.Modulus)
		counts = Occupancy(counts, keys, fn, c.Multiplier)
		if SquaredSum(counts) <= c.Limit {
			return Result{Func: fn, Attempts: attempt}, nil
		}
	}
	return Result{}, fmt.Errorf("%w: %d attempts over %d keys (limit %d)",
		fserrors.ErrConstructionExhausted, maxAttempts, len(keys), c.Limit)
}

// Occupancy hashes every key into a table of len(keys)*multiplier counters
// and returns the per-slot counts. dst is reused when its capacity allows.
//
// This is a load-evaluation oracle only; it never decides final placement.
func Occupancy(dst []uint32, keys []int64, fn linhash.Func, multiplier uint64) []uint32 {
	size := uint64(len(keys)) * multiplier
	if uint64(cap(dst)) < size {
		dst = make([]uint32, size)
	} else {
		dst = dst[:size]
		clear(dst)
	}
	if size == 0 {
		return dst
	}
	for _, k := range keys {
		dst[fn.Eval(k)%size]++
	}
	return dst
}

// SquaredSum returns the sum of squares of counts.
func SquaredSum(counts []uint32) uint64 {
	var sum uint64
	for _, c := range counts {
		sum += uint64(c) * uint64(c)
	}
	return sum
}
