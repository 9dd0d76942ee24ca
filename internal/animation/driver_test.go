package animation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"glyphcaster/internal/config"
	"glyphcaster/internal/threading/monitoring"
)

type countingTicker struct {
	n      atomic.Int32
	redraw bool
}

func (c *countingTicker) Tick() bool {
	c.n.Add(1)
	return c.redraw
}

func testConfig(hz float64) config.AnimationConfig {
	return config.AnimationConfig{TickHz: hz, FrameHz: 30, Workers: 2}
}

func TestTickRunsEveryTicker(t *testing.T) {
	d := NewDriver(testConfig(10), nil)
	defer d.Close()

	quiet := &countingTicker{}
	loud := &countingTicker{redraw: true}
	d.Add(quiet)

	if d.Tick(context.Background()) {
		t.Errorf("no ticker asked for a redraw")
	}
	select {
	case <-d.Redraw():
		t.Errorf("unexpected redraw signal")
	default:
	}

	d.Add(loud)
	if !d.Tick(context.Background()) {
		t.Errorf("expected a redraw request")
	}
	select {
	case <-d.Redraw():
	default:
		t.Errorf("expected a redraw signal")
	}

	if quiet.n.Load() != 2 || loud.n.Load() != 1 {
		t.Errorf("tick counts = %d, %d; want 2, 1", quiet.n.Load(), loud.n.Load())
	}
	if d.Ticks() != 2 {
		t.Errorf("Ticks() = %d, want 2", d.Ticks())
	}
}

func TestRedrawSignalsCoalesce(t *testing.T) {
	d := NewDriver(testConfig(10), nil)
	defer d.Close()
	d.Add(&countingTicker{redraw: true})

	for i := 0; i < 5; i++ {
		d.Tick(context.Background())
	}
	<-d.Redraw()
	select {
	case <-d.Redraw():
		t.Errorf("signals should coalesce into one")
	default:
	}
}

func TestReplace(t *testing.T) {
	d := NewDriver(testConfig(10), nil)
	defer d.Close()

	a, b := &countingTicker{}, &countingTicker{}
	d.Add(a)
	d.Replace(a, b)
	d.Tick(context.Background())
	if a.n.Load() != 0 || b.n.Load() != 1 {
		t.Errorf("replaced ticker still ticking: a=%d b=%d", a.n.Load(), b.n.Load())
	}

	d.Replace(b, nil)
	d.Tick(context.Background())
	if b.n.Load() != 1 {
		t.Errorf("removed ticker still ticking")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	monitor := monitoring.NewPerformanceMonitor()
	d := NewDriver(testConfig(200), monitor)
	c := &countingTicker{redraw: true}
	d.Add(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-d.Redraw():
	case <-time.After(2 * time.Second):
		t.Fatal("no redraw signal from the running driver")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if monitor.GetCurrentMetrics().Ticks == 0 {
		t.Errorf("ticks were not recorded in the monitor")
	}

	// the pool is stopped: further ticks are no-ops
	before := c.n.Load()
	d.Tick(context.Background())
	if c.n.Load() != before {
		t.Errorf("tick after Run returned still ran")
	}
}
