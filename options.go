package fixedset

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/dvpolyakov/fixedset/internal/linhash"
)

const (
	// defaultMaxSizeRatio bounds the sum of squared bucket sizes at
	// ratio * n, which keeps total slot storage linear.
	defaultMaxSizeRatio = 2

	// defaultMaxAttempts caps every hash search. Each trial succeeds with
	// probability around 1/2, so hitting the cap is practically impossible
	// for valid input; it exists to keep construction total.
	defaultMaxAttempts = 1024
)

// Option is a functional option for configuring construction.
type Option func(*config)

type config struct {
	workers      int
	seed         uint64
	seeded       bool
	maxAttempts  int
	maxSizeRatio uint64
	modulus      uint64
	logger       *zap.Logger
}

func defaultConfig() *config {
	return &config{
		workers:      0, // Default to single-threaded; use WithWorkers(n) to parallelize
		maxAttempts:  defaultMaxAttempts,
		maxSizeRatio: defaultMaxSizeRatio,
		modulus:      linhash.DefaultModulus,
		logger:       zap.NewNop(),
	}
}

// resolveSeed returns the configured seed, or draws a fresh one.
func (c *config) resolveSeed() uint64 {
	if c.seeded {
		return c.seed
	}
	return rand.Uint64()
}

// WithWorkers sets the number of goroutines that build buckets.
// n <= 1 builds sequentially.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithSeed fixes the seed all random sources are derived from.
// The same seed and input always produce the same structure,
// independent of the worker count.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
		c.seeded = true
	}
}

// WithMaxAttempts limits how many hash functions each search may draw
// before construction fails with ErrConstructionExhausted.
// Zero removes the limit.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		c.maxAttempts = n
	}
}

// WithMaxSizeRatio sets the load-balance bound: the top-level hash is
// accepted only when the sum of squared bucket sizes is at most ratio * n.
// Default is 2.
func WithMaxSizeRatio(ratio uint64) Option {
	return func(c *config) {
		c.maxSizeRatio = ratio
	}
}

// WithModulus sets the prime modulus of the hash family.
// Default is 2^31 - 1. Keys congruent modulo the prime cannot be told apart,
// so sets whose keys span more than the prime need a larger one,
// for example 2^61 - 1.
func WithModulus(p uint64) Option {
	return func(c *config) {
		c.modulus = p
	}
}

// WithLogger sets the logger used for construction diagnostics.
// A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
	}
}
