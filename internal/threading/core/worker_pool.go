// Package core holds the fixed-size worker pool shared by the animation
// driver and the column renderer.
package core

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolStopped is returned for work submitted after Stop.
var ErrPoolStopped = errors.New("worker pool stopped")

// WorkerPool runs submitted jobs on a fixed set of goroutines.
type WorkerPool struct {
	size     int
	jobs     chan func()
	mu       sync.RWMutex // held for reading while a job is queued
	closed   bool
	pending  sync.WaitGroup
	finished atomic.Uint64
}

// NewWorkerPool sizes a pool; size <= 0 means one worker per CPU. Call
// Start before submitting.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &WorkerPool{
		size: size,
		jobs: make(chan func(), size*2),
	}
}

func (wp *WorkerPool) Start() {
	for range wp.size {
		go wp.run()
	}
}

// run executes jobs until Stop closes the queue and it is drained.
func (wp *WorkerPool) run() {
	for job := range wp.jobs {
		job()
		wp.finished.Add(1)
		wp.pending.Done()
	}
}

// Submit queues a job, blocking while the queue is full.
func (wp *WorkerPool) Submit(job func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolStopped
	}
	wp.pending.Add(1)
	wp.jobs <- job
	return nil
}

// Wait blocks until every submitted job has run.
func (wp *WorkerPool) Wait() {
	wp.pending.Wait()
}

// Stop rejects further work. Jobs already queued still run, after which
// the workers exit. Stop does not wait for them and is idempotent.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobs)
}

// ForRange calls fn for every index in [start, end), one chunk per worker,
// and returns once this call's chunks are done. Chunks stop early once ctx
// is cancelled.
func (wp *WorkerPool) ForRange(ctx context.Context, start, end int, fn func(int)) error {
	n := end - start
	if n <= 0 {
		return nil
	}
	chunk := (n + wp.size - 1) / wp.size

	var (
		wg  sync.WaitGroup
		err error
	)
	for lo := start; lo < end; lo += chunk {
		hi := min(lo+chunk, end)
		wg.Add(1)
		err = wp.Submit(func() {
			defer wg.Done()
			for i := lo; i < hi && ctx.Err() == nil; i++ {
				fn(i)
			}
		})
		if err != nil {
			wg.Done()
			break
		}
	}
	wg.Wait()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (wp *WorkerPool) NumWorkers() int {
	return wp.size
}

// Completed counts jobs finished since the pool started.
func (wp *WorkerPool) Completed() uint64 {
	return wp.finished.Load()
}
