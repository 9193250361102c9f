package lem

import (
	"runtime"
	"sync"
)

// Observer receives a snapshot after each completed timestep. The
// elevation slice is the grid's live storage; observers must not
// mutate or retain it.
type Observer interface {
	OnStep(step int, elapsed float64, elev []float64)
}

// ParallelFor executes a function in parallel over the range [0, n),
// splitting it into contiguous chunks. Work smaller than minChunk runs
// on the calling goroutine.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.NumCPU()
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}

		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
