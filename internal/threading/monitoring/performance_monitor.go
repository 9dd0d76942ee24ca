// Package monitoring collects frame and tick timings shared by the render
// loop and the animation driver.
package monitoring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// castBudget is the share of a frame the raycast pass may take before it is
// reported as the bottleneck.
const castBudget = 0.5

// PerformanceMonitor records the last frame's pass durations plus running
// counters. Counters are atomic; the averages sit behind mu.
type PerformanceMonitor struct {
	frames     atomic.Uint64
	lastFrame  atomic.Int64 // ns
	lastCast   atomic.Int64
	lastSprite atomic.Int64
	drawn      atomic.Uint64
	culled     atomic.Uint64

	ticks    atomic.Uint64
	redraws  atomic.Uint64
	lastTick atomic.Int64

	mu        sync.Mutex
	frameSum  time.Duration
	castSum   time.Duration
	castCount uint64
	since     time.Time
}

// NewPerformanceMonitor creates a monitor with its uptime clock started.
func NewPerformanceMonitor() *PerformanceMonitor {
	return &PerformanceMonitor{since: time.Now()}
}

// FrameTimer measures one Render call.
type FrameTimer struct {
	pm    *PerformanceMonitor
	begin time.Time
}

func (pm *PerformanceMonitor) StartFrame() *FrameTimer {
	return &FrameTimer{pm: pm, begin: time.Now()}
}

// EndFrame stores the frame duration and folds it into the average.
func (ft *FrameTimer) EndFrame() {
	d := time.Since(ft.begin)
	ft.pm.lastFrame.Store(int64(d))
	ft.pm.frames.Add(1)

	ft.pm.mu.Lock()
	ft.pm.frameSum += d
	ft.pm.mu.Unlock()
}

// RaycastTimer measures the column cast pass of one frame.
type RaycastTimer struct {
	pm    *PerformanceMonitor
	begin time.Time
}

func (pm *PerformanceMonitor) StartRaycast() *RaycastTimer {
	return &RaycastTimer{pm: pm, begin: time.Now()}
}

func (rt *RaycastTimer) EndRaycast() {
	d := time.Since(rt.begin)
	rt.pm.lastCast.Store(int64(d))

	rt.pm.mu.Lock()
	rt.pm.castSum += d
	rt.pm.castCount++
	rt.pm.mu.Unlock()
}

// RecordSprites stores the sprite pass duration and how many objects were
// drawn or culled.
func (pm *PerformanceMonitor) RecordSprites(d time.Duration, drawn, culled int) {
	pm.lastSprite.Store(int64(d))
	pm.drawn.Store(uint64(drawn))
	pm.culled.Store(uint64(culled))
}

// RecordTick stores one animation tick and whether it requested a redraw.
func (pm *PerformanceMonitor) RecordTick(d time.Duration, redraw bool) {
	pm.ticks.Add(1)
	pm.lastTick.Store(int64(d))
	if redraw {
		pm.redraws.Add(1)
	}
}

// RenderMetrics is a point-in-time summary of the monitor.
type RenderMetrics struct {
	FramesPerSecond float64
	FrameCount      uint64
	SpritesDrawn    uint64
	SpritesCulled   uint64
	Ticks           uint64
	Redraws         uint64
	MemoryUsageMB   uint64
}

func rate(ns int64) float64 {
	if ns <= 0 {
		return 0
	}
	return float64(time.Second) / float64(ns)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// GetCurrentMetrics returns the counters and the rate implied by the last frame.
func (pm *PerformanceMonitor) GetCurrentMetrics() RenderMetrics {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RenderMetrics{
		FramesPerSecond: rate(pm.lastFrame.Load()),
		FrameCount:      pm.frames.Load(),
		SpritesDrawn:    pm.drawn.Load(),
		SpritesCulled:   pm.culled.Load(),
		Ticks:           pm.ticks.Load(),
		Redraws:         pm.redraws.Load(),
		MemoryUsageMB:   mem.Alloc >> 20,
	}
}

// Fields reports timings in milliseconds, ready for a log entry.
func (pm *PerformanceMonitor) Fields() logrus.Fields {
	frames := pm.frames.Load()

	pm.mu.Lock()
	var avgFrame, avgCast time.Duration
	if frames > 0 {
		avgFrame = pm.frameSum / time.Duration(frames)
	}
	if pm.castCount > 0 {
		avgCast = pm.castSum / time.Duration(pm.castCount)
	}
	uptime := time.Since(pm.since)
	pm.mu.Unlock()

	return logrus.Fields{
		"uptime_s":       uptime.Seconds(),
		"frames":         frames,
		"fps":            rate(pm.lastFrame.Load()),
		"frame_avg_ms":   ms(avgFrame),
		"cast_avg_ms":    ms(avgCast),
		"cast_ms":        ms(time.Duration(pm.lastCast.Load())),
		"sprite_ms":      ms(time.Duration(pm.lastSprite.Load())),
		"tick_ms":        ms(time.Duration(pm.lastTick.Load())),
		"sprites_drawn":  pm.drawn.Load(),
		"sprites_culled": pm.culled.Load(),
		"ticks":          pm.ticks.Load(),
		"redraws":        pm.redraws.Load(),
		"goroutines":     runtime.NumGoroutine(),
	}
}

// PerformanceAlert is one threshold the last frame crossed.
type PerformanceAlert struct {
	Type      string
	Message   string
	Value     float64
	Threshold float64
	Timestamp time.Time
}

// CheckPerformanceAlerts compares the last frame against a target frame
// rate. A slow frame whose cast pass took most of it is reported as
// slow_raycast as well.
func (pm *PerformanceMonitor) CheckPerformanceAlerts(targetFPS float64) []PerformanceAlert {
	frame := pm.lastFrame.Load()
	if frame <= 0 || targetFPS <= 0 {
		return nil
	}
	fps := rate(frame)
	if fps >= targetFPS {
		return nil
	}

	now := time.Now()
	alerts := []PerformanceAlert{{
		Type:      "low_fps",
		Message:   "frame rate below target",
		Value:     fps,
		Threshold: targetFPS,
		Timestamp: now,
	}}
	if share := float64(pm.lastCast.Load()) / float64(frame); share > castBudget {
		alerts = append(alerts, PerformanceAlert{
			Type:      "slow_raycast",
			Message:   "raycast pass dominates the frame",
			Value:     share,
			Threshold: castBudget,
			Timestamp: now,
		})
	}
	return alerts
}

// Reset zeroes every counter and restarts the uptime clock.
func (pm *PerformanceMonitor) Reset() {
	for _, c := range []*atomic.Uint64{&pm.frames, &pm.drawn, &pm.culled, &pm.ticks, &pm.redraws} {
		c.Store(0)
	}
	for _, d := range []*atomic.Int64{&pm.lastFrame, &pm.lastCast, &pm.lastSprite, &pm.lastTick} {
		d.Store(0)
	}

	pm.mu.Lock()
	pm.frameSum, pm.castSum, pm.castCount = 0, 0, 0
	pm.since = time.Now()
	pm.mu.Unlock()
}
