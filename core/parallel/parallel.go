// Package parallel は範囲分割によるワーカー並列実行を提供します。
package parallel

import (
	"runtime"
	"sync"
)

// Workers resolves an n_jobs style setting into a goroutine count.
// Values <= 0 mean all available CPU cores; the result never exceeds items.
func Workers(nJobs, items int) int {
	workers := nJobs
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// Parallelize divides [0, items) into contiguous ranges and executes fn on
// each range with up to nJobs goroutines. With a single worker fn runs once
// on the calling goroutine.
func Parallelize(items, nJobs int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := Workers(nJobs, items)
	if numWorkers == 1 {
		fn(0, items)
		return
	}

	// ceiling division
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

// ParallelizeWithThreshold performs parallelization only when the number of
// items exceeds the threshold.
func ParallelizeWithThreshold(items, threshold, nJobs int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, nJobs, fn)
}
