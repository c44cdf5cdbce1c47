// Bench measures fixedset build time, peak memory, and query latency.
//
// Usage:
//
//	go run ./cmd/bench --keys 1000000 --workers 8
//
// Flags:
//
//	--keys           Number of keys to generate (default: 1,000,000)
//	--workers        Number of parallel bucket workers (default: 1)
//	--seed           Build seed, 0 for a random one (default: 0)
//	--modulus        Hash prime (default: 2^31-1)
//	--queries        Number of hit and miss queries to time (default: 1,000,000)
//	--keyfile        Load keys from a key file instead of generating them
//	--write-keyfile  Save the generated keys to a key file
//	--cpuprofile     Write a CPU profile of the build phase
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dvpolyakov/fixedset"
	"github.com/dvpolyakov/fixedset/internal/keyfile"
	"github.com/dvpolyakov/fixedset/internal/linhash"
	"github.com/dvpolyakov/fixedset/internal/modarith"
)

const (
	hitSeed  = uint32(0x1234)
	missSeed = uint32(0x9e37)
)

type benchConfig struct {
	keys         int
	workers      int
	seed         uint64
	modulus      uint64
	queries      int
	keyFile      string
	writeKeyFile string
	cpuProfile   string
}

func main() {
	cfg := benchConfig{}

	cmd := &cobra.Command{
		Use:           "bench",
		Short:         "Benchmark fixedset construction and membership queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return run(cmd.Context(), cfg, logger)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.keys, "keys", 1_000_000, "number of keys to generate")
	flags.IntVar(&cfg.workers, "workers", 1, "number of parallel bucket workers")
	flags.Uint64Var(&cfg.seed, "seed", 0, "build seed (0 draws a random seed)")
	flags.Uint64Var(&cfg.modulus, "modulus", linhash.DefaultModulus, "hash prime")
	flags.IntVar(&cfg.queries, "queries", 1_000_000, "number of hit and miss queries")
	flags.StringVar(&cfg.keyFile, "keyfile", "", "load keys from this key file")
	flags.StringVar(&cfg.writeKeyFile, "write-keyfile", "", "save generated keys to this key file")
	flags.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write cpu profile to file (build phase only)")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}
}

// getMaxRSS returns the peak resident set size in bytes.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024 // KB on Linux, bytes on macOS
	}
	return maxRSS
}

func storeMax(v *atomic.Uint64, x uint64) {
	for {
		old := v.Load()
		if x <= old || v.CompareAndSwap(old, x) {
			return
		}
	}
}

// peakSampler tracks peak heap and RSS on a 10ms ticker.
// runtime/metrics avoids the stop-the-world pause of ReadMemStats.
type peakSampler struct {
	baseHeap, baseRSS uint64
	heap, rss         atomic.Uint64
	done              chan struct{}
	stopped           chan struct{}
}

func startSampler() *peakSampler {
	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)

	s := &peakSampler{
		baseHeap: baseline.Alloc,
		baseRSS:  getMaxRSS(),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	s.heap.Store(s.baseHeap)
	s.rss.Store(s.baseRSS)

	go func() {
		defer close(s.stopped)
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&s.heap, samples[0].Value.Uint64())
				storeMax(&s.rss, getMaxRSS())
			}
		}
	}()
	return s
}

// stop returns peak heap and RSS growth over the baseline.
func (s *peakSampler) stop() (heap, rss uint64) {
	close(s.done)
	<-s.stopped
	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	storeMax(&s.heap, final.Alloc)
	storeMax(&s.rss, getMaxRSS())
	return s.heap.Load() - s.baseHeap, s.rss.Load() - s.baseRSS
}

// generateKeys derives n distinct int64 keys from murmur3 over a counter,
// skipping values whose residue modulo p is already taken.
func generateKeys(n int, seed uint32, p uint64) []int64 {
	keys := make([]int64, 0, n)
	residues := make(map[uint64]struct{}, n)
	var buf [8]byte
	for i := uint64(0); len(keys) < n; i++ {
		binary.LittleEndian.PutUint64(buf[:], i)
		k := int64(murmur3.Sum64WithSeed(buf[:], seed))
		r := modarith.FloorMod(k, p)
		if _, ok := residues[r]; ok {
			continue
		}
		residues[r] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// generateMisses returns n keys not present in members.
func generateMisses(n int, seed uint32, members map[int64]struct{}) []int64 {
	misses := make([]int64, 0, n)
	var buf [8]byte
	for i := uint64(0); len(misses) < n; i++ {
		binary.LittleEndian.PutUint64(buf[:], i)
		k := int64(murmur3.Sum64WithSeed(buf[:], seed))
		if _, ok := members[k]; ok {
			continue
		}
		misses = append(misses, k)
	}
	return misses
}

func loadOrGenerate(cfg benchConfig, logger *zap.Logger) ([]int64, error) {
	if cfg.keyFile != "" {
		start := time.Now()
		keys, err := keyfile.Load(cfg.keyFile)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", cfg.keyFile, err)
		}
		logger.Info("loaded keys", zap.String("path", cfg.keyFile),
			zap.Int("count", len(keys)), zap.Duration("elapsed", time.Since(start)))
		return keys, nil
	}

	if cfg.keys < 1 {
		return nil, fmt.Errorf("--keys must be positive, got %d", cfg.keys)
	}
	if uint64(cfg.keys) > cfg.modulus {
		return nil, fmt.Errorf("--keys %d exceeds --modulus %d: only %d distinct residues exist",
			cfg.keys, cfg.modulus, cfg.modulus)
	}
	start := time.Now()
	keys := generateKeys(cfg.keys, hitSeed, cfg.modulus)
	logger.Info("generated keys", zap.Int("count", len(keys)), zap.Duration("elapsed", time.Since(start)))

	if cfg.writeKeyFile != "" {
		if err := keyfile.Write(cfg.writeKeyFile, keys); err != nil {
			return nil, fmt.Errorf("write %s: %w", cfg.writeKeyFile, err)
		}
		logger.Info("wrote key file", zap.String("path", cfg.writeKeyFile),
			zap.Int64("bytes", keyfile.FileSize(len(keys))))
	}
	return keys, nil
}

// timeQueries returns the average latency per query in nanoseconds and the
// number of positive answers.
func timeQueries(set *fixedset.Set[int64], queries []int64) (float64, int) {
	for i := 0; i < 10_000 && i < len(queries); i++ {
		_ = set.Contains(queries[i])
	}
	found := 0
	start := time.Now()
	for _, q := range queries {
		if set.Contains(q) {
			found++
		}
	}
	elapsed := time.Since(start)
	return float64(elapsed.Nanoseconds()) / float64(len(queries)), found
}

func run(ctx context.Context, cfg benchConfig, logger *zap.Logger) error {
	if cfg.queries < 1 {
		return fmt.Errorf("--queries must be positive, got %d", cfg.queries)
	}

	keys, err := loadOrGenerate(cfg, logger)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("no keys to index")
	}

	opts := []fixedset.Option{
		fixedset.WithWorkers(cfg.workers),
		fixedset.WithModulus(cfg.modulus),
		fixedset.WithLogger(logger.Named("fixedset")),
	}
	if cfg.seed != 0 {
		opts = append(opts, fixedset.WithSeed(cfg.seed))
	}

	if cfg.cpuProfile != "" {
		f, err := os.Create(cfg.cpuProfile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
	}

	logger.Info("building set", zap.Int("keys", len(keys)), zap.Int("workers", cfg.workers))
	sampler := startSampler()
	buildStart := time.Now()
	set, err := fixedset.New(ctx, keys, opts...)
	buildDuration := time.Since(buildStart)
	if cfg.cpuProfile != "" {
		pprof.StopCPUProfile()
	}
	peakHeap, peakRSS := sampler.stop()
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	members := make(map[int64]struct{}, len(keys))
	for _, k := range keys {
		members[k] = struct{}{}
	}
	hits := make([]int64, cfg.queries)
	for i := range hits {
		hits[i] = keys[mrand.IntN(len(keys))]
	}
	misses := generateMisses(cfg.queries, missSeed, members)

	logger.Info("timing queries", zap.Int("queries", cfg.queries))
	hitLatency, hitFound := timeQueries(set, hits)
	missLatency, missFound := timeQueries(set, misses)
	if hitFound != len(hits) || missFound != 0 {
		return fmt.Errorf("wrong answers: %d/%d hits found, %d misses found", hitFound, len(hits), missFound)
	}

	stats := set.Stats()
	numKeys := float64(stats.NumElements)

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦═════════════════════╗\n")
	fmt.Printf("║ Metric              ║ Value               ║\n")
	fmt.Printf("╠═════════════════════╬═════════════════════╣\n")
	fmt.Printf("║ Keys                ║ %12d        ║\n", stats.NumElements)
	fmt.Printf("║ Workers             ║ %12d        ║\n", cfg.workers)
	fmt.Printf("║ Seed                ║ %#019x ║\n", stats.Seed)
	fmt.Printf("║ Slots per key       ║ %12.3f        ║\n", stats.SlotsPerElement())
	fmt.Printf("║ Max bucket size     ║ %12d        ║\n", stats.MaxBucketSize)
	fmt.Printf("║ Top-level attempts  ║ %12d        ║\n", stats.TopLevelAttempts)
	fmt.Printf("║ Bucket attempts/key ║ %12.3f        ║\n", float64(stats.BucketAttempts)/numKeys)
	fmt.Printf("║ Build time          ║ %12.3f sec    ║\n", buildDuration.Seconds())
	fmt.Printf("║ Build throughput    ║ %12.2f M/sec  ║\n", numKeys/buildDuration.Seconds()/1_000_000)
	fmt.Printf("║ Hit latency         ║ %12.1f ns     ║\n", hitLatency)
	fmt.Printf("║ Miss latency        ║ %12.1f ns     ║\n", missLatency)
	fmt.Printf("║ Peak heap memory    ║ %12.1f MB     ║\n", float64(peakHeap)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %12.1f MB     ║\n", float64(peakRSS)/1_000_000)
	fmt.Printf("║ Digest              ║ %#019x ║\n", set.Digest())
	fmt.Printf("╚═════════════════════╩═════════════════════╝\n")
	return nil
}
