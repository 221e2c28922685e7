// Package parallel provides the worker-pool helpers used to fan out
// embarrassingly parallel work (grid-search candidates, cross-validation
// folds). Workers share no mutable state; each writes only to its own index
// of a result slice and reduction happens after all workers return.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items across workers sized to the number of CPU cores
// and executes fn for each half-open range [start, end).
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so every item is covered.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items is at or below the
// threshold, in parallel otherwise. Small grids are cheaper without goroutine
// overhead.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// Map runs fn for every index in [0, items) across the worker pool and
// collects per-index errors. The returned slice has one entry per item;
// entries are nil for items that succeeded.
func Map(items int, fn func(i int) error) []error {
	errs := make([]error, items)
	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			errs[i] = fn(i)
		}
	})
	return errs
}

// FirstError returns the first non-nil error in errs, or nil.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
