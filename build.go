package fixedset

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const (
	// workChanBufferMultiplier is the multiplier for work channel buffer size
	workChanBufferMultiplier = 2

	// bucketsPerTask is how many consecutive buckets a worker builds per
	// dispatched task. Most buckets hold zero to two keys, so single-bucket
	// tasks would be dominated by channel overhead.
	bucketsPerTask = 1024
)

// bucketTask is a half-open range [start, end) of bucket indices.
type bucketTask struct {
	start, end int
}

// buildBuckets builds one bucket per group and returns the total number of
// hash functions drawn across all buckets.
//
// Buckets are independent once the top-level partition is fixed. Each one
// draws from its own source derived from (seed, index), so the result does
// not depend on workers or scheduling.
func buildBuckets(ctx context.Context, groups [][]int64, p bucketParams, seed uint64, workers int) ([]bucket, int, error) {
	buckets := make([]bucket, len(groups))
	attempts := make([]int, len(groups)) // Written by index only; no sharing across workers

	numTasks := (len(groups) + bucketsPerTask - 1) / bucketsPerTask
	if workers > numTasks {
		workers = numTasks
	}

	var err error
	if workers <= 1 {
		err = buildRange(ctx, groups, buckets, attempts, p, seed, bucketTask{0, len(groups)})
	} else {
		err = buildParallel(ctx, groups, buckets, attempts, p, seed, workers)
	}
	if err != nil {
		return nil, 0, err
	}

	total := 0
	for _, a := range attempts {
		total += a
	}
	return buckets, total, nil
}

// buildParallel fans bucket ranges out to workers. The first failing bucket
// cancels the remaining work.
func buildParallel(ctx context.Context, groups [][]int64, buckets []bucket, attempts []int,
	p bucketParams, seed uint64, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	workChan := make(chan bucketTask, workers*workChanBufferMultiplier)

	for range workers {
		g.Go(func() error {
			for task := range workChan {
				if err := buildRange(gctx, groups, buckets, attempts, p, seed, task); err != nil {
					return err
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(workChan)
		for start := 0; start < len(groups); start += bucketsPerTask {
			task := bucketTask{start: start, end: min(start+bucketsPerTask, len(groups))}
			select {
			case workChan <- task:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	return g.Wait()
}

// buildRange builds buckets[task.start:task.end] in order.
func buildRange(ctx context.Context, groups [][]int64, buckets []bucket, attempts []int,
	p bucketParams, seed uint64, task bucketTask) error {
	for i := task.start; i < task.end; i++ {
		if len(groups[i]) == 0 {
			continue
		}
		b, n, err := newBucket(ctx, groups[i], newSource(seed, domainBucket, uint64(i)), p)
		if err != nil {
			return fmt.Errorf("bucket %d: %w", i, err)
		}
		buckets[i] = b
		attempts[i] = n
	}
	return nil
}
