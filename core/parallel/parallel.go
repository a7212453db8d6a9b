// Package parallel holds the fan-out helpers used by the trainer (one task
// per house) and the predictor (sample ranges).
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Parallelize splits items into one contiguous range per CPU core and runs
// fn on every range concurrently. It returns when all ranges are done.
func Parallelize(items int, fn func(start, end int)) {
	_ = ParallelizeErr(context.Background(), items, func(_ context.Context, start, end int) error {
		fn(start, end)
		return nil
	})
}

// ParallelizeErr is Parallelize with error propagation: the first error
// cancels the context handed to the other ranges and is returned.
func ParallelizeErr(ctx context.Context, items int, fn func(ctx context.Context, start, end int) error) error {
	if items <= 0 {
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < items; start += chunkSize {
		s, e := start, start+chunkSize
		if e > items {
			e = items
		}
		g.Go(func() error {
			return fn(gctx, s, e)
		})
	}
	return g.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over [0, items) when items
// does not exceed threshold, in parallel otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// Each runs fn(i) for every i in [0, n). With concurrent set, each call
// gets its own goroutine; otherwise the calls run in order and stop at the
// first error. Either way Each waits for every started call to return.
func Each(ctx context.Context, n int, concurrent bool, fn func(ctx context.Context, i int) error) error {
	if !concurrent {
		for i := 0; i < n; i++ {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
