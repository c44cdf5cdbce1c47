package fixedset

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/constraints"

	fserrors "github.com/dvpolyakov/fixedset/errors"
	"github.com/dvpolyakov/fixedset/internal/linhash"
	"github.com/dvpolyakov/fixedset/internal/modarith"
	"github.com/dvpolyakov/fixedset/internal/search"
)

// primalityRounds is the Miller-Rabin round count for modulus validation.
const primalityRounds = 20

// suggestedModulus is the Mersenne prime 2^61 - 1, large enough to separate
// any 32-bit key set.
const suggestedModulus uint64 = 1<<61 - 1

// Set is an immutable two-level perfect hash set of signed integers.
//
// The top level hashes n elements into n buckets; bucket i with m_i elements
// owns m_i*m_i slots and a hash function that is collision-free on them.
// Contains costs two hash evaluations and one comparison in the worst case.
//
// Thread Safety:
// A Set never changes after New returns. All methods are safe for
// concurrent use without locking.
type Set[K constraints.Signed] struct {
	fn      linhash.Func
	buckets []bucket
	stats   Stats
}

// New builds a Set from elements.
//
// elements must be distinct and pairwise non-congruent modulo the hash prime
// (see WithModulus); otherwise New returns ErrDuplicateElement or
// ErrIndistinguishableElements. elements is not retained.
//
// The default prime is 2^31 - 1, so keys spread over a wider span than that
// (including arbitrary int32 values) can collide modulo it. Pass
// WithModulus(1<<61 - 1) for such input.
//
// Construction runs randomized searches whose expected cost is linear in
// len(elements). It fails with ErrConstructionExhausted only if a search
// exceeds WithMaxAttempts, and returns ctx's error if ctx is done first.
// On failure no Set is returned.
func New[K constraints.Signed](ctx context.Context, elements []K, opts ...Option) (*Set[K], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	keys := make([]int64, len(elements))
	for i, e := range elements {
		keys[i] = int64(e)
	}
	if err := validateDistinct(keys, cfg.modulus); err != nil {
		return nil, err
	}

	seed := cfg.resolveSeed()
	s := &Set[K]{
		stats: Stats{
			NumElements: len(keys),
			NumBuckets:  len(keys),
			Seed:        seed,
			Modulus:     cfg.modulus,
		},
	}
	if len(keys) == 0 {
		return s, nil
	}

	start := time.Now()
	n := uint64(len(keys))
	top, err := search.Find(ctx, newSource(seed, domainTopLevel, 0), keys, search.Criterion{
		Multiplier: 1,
		Limit:      saturatingMul(cfg.maxSizeRatio, n),
		Modulus:    cfg.modulus,
	}, cfg.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("top-level hash: %w", err)
	}
	s.fn = top.Func
	cfg.logger.Debug("top-level hash selected",
		zap.Int("elements", len(keys)),
		zap.Int("attempts", top.Attempts),
		zap.Stringer("hash", top.Func))

	groups := partition(keys, top.Func)
	buckets, bucketAttempts, err := buildBuckets(ctx, groups, bucketParams{
		modulus:     cfg.modulus,
		maxAttempts: cfg.maxAttempts,
	}, seed, cfg.workers)
	if err != nil {
		return nil, err
	}
	s.buckets = buckets

	s.stats.TopLevelAttempts = top.Attempts
	s.stats.BucketAttempts = bucketAttempts
	for _, g := range groups {
		m := uint64(len(g))
		if m == 0 {
			continue
		}
		s.stats.NonEmptyBuckets++
		s.stats.SquaredSizesSum += m * m
		s.stats.TotalSlots += m * m
		s.stats.MaxBucketSize = max(s.stats.MaxBucketSize, len(g))
	}

	cfg.logger.Debug("fixed set built",
		zap.Int("elements", len(keys)),
		zap.Int("nonEmptyBuckets", s.stats.NonEmptyBuckets),
		zap.Uint64("slots", s.stats.TotalSlots),
		zap.Int("bucketAttempts", bucketAttempts),
		zap.Int("workers", max(cfg.workers, 1)),
		zap.Duration("elapsed", time.Since(start)))
	return s, nil
}

// Contains reports whether x is a member of the set.
func (s *Set[K]) Contains(x K) bool {
	if len(s.buckets) == 0 {
		return false
	}
	key := int64(x)
	b := &s.buckets[s.fn.Eval(key)%uint64(len(s.buckets))]
	return b.contains(key)
}

// ContainsAll answers Contains for every query, in query order.
func (s *Set[K]) ContainsAll(queries []K) []bool {
	answers := make([]bool, len(queries))
	for i, q := range queries {
		answers[i] = s.Contains(q)
	}
	return answers
}

// Len returns the number of elements in the set.
func (s *Set[K]) Len() int {
	return s.stats.NumElements
}

// partition routes every key to bucket Eval(key) mod n. The buckets share
// one backing array sized by a counting pass.
func partition(keys []int64, fn linhash.Func) [][]int64 {
	n := uint64(len(keys))
	counts := search.Occupancy(nil, keys, fn, 1)

	backing := make([]int64, len(keys))
	groups := make([][]int64, n)
	offset := 0
	for i, c := range counts {
		groups[i] = backing[offset : offset : offset+int(c)]
		offset += int(c)
	}
	for _, k := range keys {
		i := fn.Eval(k) % n
		groups[i] = append(groups[i], k)
	}
	return groups
}

// validateDistinct rejects duplicates and keys congruent modulo the prime.
// Both would leave some bucket without any collision-free hash function.
func validateDistinct(keys []int64, modulus uint64) error {
	seen := make(map[uint64]int64, len(keys))
	for _, k := range keys {
		r := modarith.FloorMod(k, modulus)
		prev, ok := seen[r]
		if !ok {
			seen[r] = k
			continue
		}
		if prev == k {
			return fmt.Errorf("%w: %d", fserrors.ErrDuplicateElement, k)
		}
		return fmt.Errorf("%w: %d and %d (mod %d); keys spanning more than the prime need WithModulus, e.g. %d",
			fserrors.ErrIndistinguishableElements, prev, k, modulus, suggestedModulus)
	}
	return nil
}

// validate checks the configuration before any work is done.
func (c *config) validate() error {
	if c.modulus < 2 || !new(big.Int).SetUint64(c.modulus).ProbablyPrime(primalityRounds) {
		return fmt.Errorf("%w: got %d", fserrors.ErrInvalidModulus, c.modulus)
	}
	if c.maxSizeRatio < 1 {
		return fmt.Errorf("%w: got %d", fserrors.ErrInvalidSizeRatio, c.maxSizeRatio)
	}
	if c.maxAttempts < 0 {
		return fmt.Errorf("%w: got %d", fserrors.ErrInvalidAttempts, c.maxAttempts)
	}
	return nil
}

// saturatingMul returns a*b, clamped to math.MaxUint64.
func saturatingMul(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}
