// Package rendering spreads per-column frame work across a worker pool.
package rendering

import (
	"sync"

	"glyphcaster/internal/mathutil"
	"glyphcaster/internal/threading/core"
)

// Batch bounds for column jobs.
const (
	minBatch = 4
	maxBatch = 32
)

// inlineColumns is the width at or below which columns run on the caller.
const inlineColumns = 8

// ParallelRenderer runs a per-column function for every screen column.
// Each call to fn must only touch state owned by its column.
type ParallelRenderer struct {
	workerPool *core.WorkerPool
}

// NewParallelRenderer starts a pool of the given size; workers <= 0 uses
// one worker per CPU.
func NewParallelRenderer(workers int) *ParallelRenderer {
	pool := core.NewWorkerPool(workers)
	pool.Start()
	return &ParallelRenderer{workerPool: pool}
}

// ForEachColumn calls fn for x in [0, width) and returns once all calls
// are done. Narrow frames and a stopped pool fall back to the caller's
// goroutine.
func (pr *ParallelRenderer) ForEachColumn(width int, fn func(x int)) {
	if width <= inlineColumns {
		for x := 0; x < width; x++ {
			fn(x)
		}
		return
	}

	batchSize := mathutil.Clamp(width/pr.workerPool.NumWorkers(), minBatch, maxBatch)

	var wg sync.WaitGroup
	for i := 0; i < width; i += batchSize {
		start := i
		end := min(i+batchSize, width)

		wg.Add(1)
		job := func() {
			defer wg.Done()
			for x := start; x < end; x++ {
				fn(x)
			}
		}
		if err := pr.workerPool.Submit(job); err != nil {
			job()
		}
	}
	wg.Wait()
}

// Workers returns the pool size.
func (pr *ParallelRenderer) Workers() int {
	return pr.workerPool.NumWorkers()
}

// Stop shuts down the worker pool.
func (pr *ParallelRenderer) Stop() {
	pr.workerPool.Stop()
}
