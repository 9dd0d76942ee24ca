package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestForRangeVisitsEveryIndex(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		n       int
	}{
		{"fewer items than workers", 8, 3},
		{"even split", 4, 16},
		{"uneven split", 3, 17},
		{"single worker", 1, 10},
		{"empty range", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wp := NewWorkerPool(tt.workers)
			wp.Start()
			defer wp.Stop()

			hits := make([]atomic.Int32, tt.n)
			if err := wp.ForRange(context.Background(), 0, tt.n, func(i int) {
				hits[i].Add(1)
			}); err != nil {
				t.Fatalf("ForRange: %v", err)
			}
			for i := range hits {
				if got := hits[i].Load(); got != 1 {
					t.Errorf("index %d visited %d times", i, got)
				}
			}
		})
	}
}

func TestForRangeCancelled(t *testing.T) {
	wp := NewWorkerPool(2)
	wp.Start()
	defer wp.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := wp.ForRange(ctx, 0, 100, func(int) { calls.Add(1) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("cancelled loop ran %d iterations", calls.Load())
	}
}

func TestStoppedPoolRejectsWork(t *testing.T) {
	wp := NewWorkerPool(2)
	wp.Start()
	wp.Stop()
	wp.Stop()

	if err := wp.Submit(func() {}); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Submit after Stop = %v, want ErrPoolStopped", err)
	}
	if err := wp.ForRange(context.Background(), 0, 4, func(int) {}); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("ForRange after Stop = %v, want ErrPoolStopped", err)
	}
}

func TestNumWorkersDefaultsToCPUs(t *testing.T) {
	if NewWorkerPool(0).NumWorkers() < 1 {
		t.Errorf("expected at least one worker")
	}
	if got := NewWorkerPool(3).NumWorkers(); got != 3 {
		t.Errorf("NumWorkers = %d, want 3", got)
	}
}

func TestCompletedCountsJobs(t *testing.T) {
	wp := NewWorkerPool(2)
	wp.Start()
	defer wp.Stop()

	for i := 0; i < 5; i++ {
		if err := wp.Submit(func() {}); err != nil {
			t.Fatal(err)
		}
	}
	wp.Wait()
	if got := wp.Completed(); got != 5 {
		t.Errorf("Completed = %d, want 5", got)
	}
}

func TestStopRunsQueuedWork(t *testing.T) {
	wp := NewWorkerPool(1)
	wp.Start()

	release := make(chan struct{})
	if err := wp.Submit(func() { <-release }); err != nil {
		t.Fatal(err)
	}

	var ran atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- wp.ForRange(context.Background(), 0, 1, func(int) { ran.Add(1) })
	}()

	// the chunk sits in the queue behind the busy worker
	deadline := time.Now().Add(2 * time.Second)
	for len(wp.jobs) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("chunk was never queued")
		}
		time.Sleep(time.Millisecond)
	}

	wp.Stop()
	close(release)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ForRange = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ForRange blocked after Stop")
	}
	if ran.Load() != 1 {
		t.Errorf("queued chunk ran %d times, want 1", ran.Load())
	}

	waited := make(chan struct{})
	go func() {
		wp.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait blocked after Stop")
	}
}

func TestConcurrentSubmitAndStop(t *testing.T) {
	for i := 0; i < 20; i++ {
		wp := NewWorkerPool(2)
		wp.Start()

		var accepted, ran atomic.Int32
		var wg sync.WaitGroup
		for j := 0; j < 8; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if wp.Submit(func() { ran.Add(1) }) == nil {
					accepted.Add(1)
				}
			}()
		}
		wp.Stop()
		wg.Wait()
		wp.Wait()

		if ran.Load() != accepted.Load() {
			t.Fatalf("round %d: %d jobs accepted, %d ran", i, accepted.Load(), ran.Load())
		}
	}
}
