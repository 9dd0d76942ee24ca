// Package animation advances animated providers on a fixed tick, outside
// the render loop.
package animation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"glyphcaster/internal/config"
	"glyphcaster/internal/logging"
	"glyphcaster/internal/threading/core"
	"glyphcaster/internal/threading/monitoring"

	"github.com/sirupsen/logrus"
)

// Ticker is anything advanced by the driver. Tick reports whether the
// change is worth a redraw.
type Ticker interface {
	Tick() bool
}

// Driver ticks every registered Ticker at a fixed rate and signals when a
// redraw is warranted.
type Driver struct {
	interval time.Duration
	pool     *core.WorkerPool
	monitor  *monitoring.PerformanceMonitor

	mu      sync.Mutex
	tickers []Ticker

	redraw    chan struct{}
	ticks     atomic.Uint64
	closeOnce sync.Once
	log       *logrus.Entry
}

// NewDriver creates a driver ticking at cfg.TickHz on cfg.Workers workers.
// monitor may be nil.
func NewDriver(cfg config.AnimationConfig, monitor *monitoring.PerformanceMonitor) *Driver {
	hz := cfg.TickHz
	if hz <= 0 {
		hz = 10
	}
	pool := core.NewWorkerPool(cfg.Workers)
	pool.Start()
	return &Driver{
		interval: time.Duration(float64(time.Second) / hz),
		pool:     pool,
		monitor:  monitor,
		redraw:   make(chan struct{}, 1),
		log:      logging.For("animation"),
	}
}

// Add registers a ticker.
func (d *Driver) Add(t Ticker) {
	d.mu.Lock()
	d.tickers = append(d.tickers, t)
	d.mu.Unlock()
}

// Replace swaps one registered ticker for another, or adds next when prev
// is not registered. Used when the background variant changes.
func (d *Driver) Replace(prev, next Ticker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, t := range d.tickers {
		if t == prev {
			if next == nil {
				d.tickers = append(d.tickers[:i], d.tickers[i+1:]...)
			} else {
				d.tickers[i] = next
			}
			return
		}
	}
	if next != nil {
		d.tickers = append(d.tickers, next)
	}
}

// Redraw delivers a signal whenever a tick asked for a redraw. Signals
// coalesce while the consumer is busy.
func (d *Driver) Redraw() <-chan struct{} {
	return d.redraw
}

// Ticks returns how many ticks have run.
func (d *Driver) Ticks() uint64 {
	return d.ticks.Load()
}

// Tick advances every ticker once, in parallel, and reports whether any of
// them asked for a redraw.
func (d *Driver) Tick(ctx context.Context) bool {
	d.mu.Lock()
	tickers := append([]Ticker(nil), d.tickers...)
	d.mu.Unlock()

	start := time.Now()
	var redraw atomic.Bool
	err := d.pool.ForRange(ctx, 0, len(tickers), func(i int) {
		if tickers[i].Tick() {
			redraw.Store(true)
		}
	})
	if err != nil && ctx.Err() == nil {
		d.log.WithError(err).Warn("tick skipped")
		return false
	}

	d.ticks.Add(1)
	want := redraw.Load()
	if d.monitor != nil {
		d.monitor.RecordTick(time.Since(start), want)
	}
	if want {
		select {
		case d.redraw <- struct{}{}:
		default:
		}
	}
	return want
}

// Run ticks until ctx is cancelled, then stops the worker pool. A tick in
// flight when ctx is cancelled finishes first.
func (d *Driver) Run(ctx context.Context) error {
	defer d.Close()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.WithField("interval", d.interval).Info("animation driver started")
	for {
		select {
		case <-ctx.Done():
			d.log.WithField("ticks", d.ticks.Load()).Info("animation driver stopped")
			return nil
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Close stops the worker pool. Ticks after Close do nothing.
func (d *Driver) Close() {
	d.closeOnce.Do(d.pool.Stop)
}
