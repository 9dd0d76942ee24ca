// Package render composes a frame: background, ray-cast walls with their
// floors and ceilings, then depth-tested sprites.
package render

import (
	"fmt"
	"time"

	"glyphcaster/internal/background"
	"glyphcaster/internal/config"
	"glyphcaster/internal/game"
	"glyphcaster/internal/glyph"
	"glyphcaster/internal/logging"
	"glyphcaster/internal/texture"
	"glyphcaster/internal/threading/monitoring"
	"glyphcaster/internal/threading/rendering"

	"github.com/sirupsen/logrus"
)

// Renderer draws scene snapshots into glyph buffers. It is not safe for
// concurrent use; one goroutine renders while others may mutate the scene
// and tick the background.
type Renderer struct {
	cfg        config.RenderConfig
	textures   texture.Provider
	background background.Provider
	monitor    *monitoring.PerformanceMonitor
	columns    *rendering.ParallelRenderer

	frame *Frame
	buf   *glyph.Buffer
	jobs  []spriteJob

	edgeGlyph rune
	edgeColor glyph.Color
	log       *logrus.Entry
}

// NewRenderer creates a renderer. textures may be nil; a nil background
// draws blank default-coloured cells.
func NewRenderer(cfg *config.Config, textures texture.Provider, bg background.Provider) (*Renderer, error) {
	edgeColor, err := glyph.Hex(cfg.Render.EdgeColor)
	if err != nil {
		return nil, fmt.Errorf("render edge_color: %w", err)
	}
	if bg == nil {
		bg = background.NewSolid(' ', glyph.DefaultColor, glyph.DefaultColor)
	}
	return &Renderer{
		cfg:        cfg.Render,
		textures:   textures,
		background: bg,
		monitor:    monitoring.NewPerformanceMonitor(),
		frame:      newFrame(),
		buf:        glyph.NewBuffer(0, 0),
		edgeGlyph:  cfg.GetEdgeGlyph(),
		edgeColor:  edgeColor,
		log:        logging.For("renderer"),
	}, nil
}

// SetBackground swaps the background provider between frames.
func (r *Renderer) SetBackground(bg background.Provider) {
	r.background = bg
}

// Background returns the current background provider.
func (r *Renderer) Background() background.Provider {
	return r.background
}

// SetParallel casts rays across pr's workers; nil casts on the render
// goroutine.
func (r *Renderer) SetParallel(pr *rendering.ParallelRenderer) {
	r.columns = pr
}

// Monitor exposes the renderer's performance counters.
func (r *Renderer) Monitor() *monitoring.PerformanceMonitor {
	return r.monitor
}

// Render draws one frame of snap into buf.
func (r *Renderer) Render(buf *glyph.Buffer, snap game.Snapshot) {
	w, h := buf.Width(), buf.Height()
	if w <= 0 || h <= 0 {
		return
	}
	frameTimer := r.monitor.StartFrame()
	defer frameTimer.EndFrame()

	f := r.frame
	if w != f.width || h != f.height {
		r.log.WithFields(logrus.Fields{"columns": w, "rows": h}).Debug("frame size changed")
	}
	f.reset(w, h)

	// Pass 0: background everywhere
	r.background.SetDimensionAndAngle(w, h, snap.Camera.Angle)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, r.background.Background(x, y))
		}
	}
	if snap.Map == nil {
		return
	}

	// Pass 1: cast every column
	raycastTimer := r.monitor.StartRaycast()
	if r.columns != nil {
		r.columns.ForEachColumn(w, func(x int) {
			r.traceColumn(f, &snap, x)
		})
	} else {
		for x := 0; x < w; x++ {
			r.traceColumn(f, &snap, x)
		}
	}
	for x := 0; x < w; x++ {
		r.resolveTexture(f, x)
	}
	raycastTimer.EndRaycast()

	// Pass 2: compose columns against their resolved neighbours
	for x := 0; x < w; x++ {
		r.drawColumn(buf, f, &snap, x)
	}

	// Pass 3: sprites against the completed depth buffer
	start := time.Now()
	drawn, culled := r.renderSprites(buf, f, &snap)
	r.monitor.RecordSprites(time.Since(start), drawn, culled)
}

// RenderTo renders into the renderer's own buffer at width×height and
// copies every cell to the surface.
func (r *Renderer) RenderTo(s glyph.Surface, width, height int, snap game.Snapshot) {
	r.buf.Resize(width, height)
	r.Render(r.buf, snap)
	r.buf.CopyTo(s)
}

// Buffer returns the buffer used by RenderTo.
func (r *Renderer) Buffer() *glyph.Buffer {
	return r.buf
}

// Depth returns a copy of the last frame's depth buffer.
func (r *Renderer) Depth() []float64 {
	return append([]float64(nil), r.frame.depth...)
}
