// Package background draws the sky layer behind walls, floors and ceilings.
//
// Animated providers advance on Tick, which is driven from outside the
// render loop. Each tick publishes an immutable snapshot; a frame pins one
// snapshot in SetDimensionAndAngle and reads only that until the next frame.
package background

import (
	"fmt"
	"math"
	"strings"

	"glyphcaster/internal/config"
	"glyphcaster/internal/glyph"
)

// Provider supplies the glyph drawn where no geometry covers a cell.
type Provider interface {
	// SetDimensionAndAngle is called once per frame before any Background call.
	SetDimensionAndAngle(width, height int, viewerAngle float64)
	// Background is pure for the dimensions and angle of the current frame.
	Background(x, y int) glyph.Cell
}

// Ticker is implemented by animated providers. Tick reports whether the
// change is worth a redraw.
type Ticker interface {
	Tick() bool
}

// view is the per-frame projection of screen columns onto the sky cylinder.
type view struct {
	width, height int
	angle         float64
	fov           float64
}

func (v view) horizon() int {
	return v.height / 2
}

// skyU maps a screen column to a position around the sky in [0, 1).
func (v view) skyU(x int) float64 {
	if v.width <= 0 {
		return 0
	}
	a := v.angle - v.fov/2 + (float64(x)+0.5)/float64(v.width)*v.fov
	u := math.Mod(a/(2*math.Pi), 1)
	if u < 0 {
		u++
	}
	return u
}

// circumference is the number of screen columns spanning the full sky.
func (v view) circumference() float64 {
	if v.fov <= 0 {
		return float64(v.width)
	}
	return float64(v.width) * 2 * math.Pi / v.fov
}

// elevation maps a row above the horizon to (0, 1], 1 at the top.
func (v view) elevation(y int) float64 {
	h := v.horizon()
	if h <= 0 {
		return 0
	}
	return 1 - float64(y)/float64(h)
}

// New builds the provider named by cfg.Variant.
func New(cfg config.BackgroundConfig, fov float64) (Provider, error) {
	switch strings.ToLower(cfg.Variant) {
	case "", "solid":
		return NewSolidFromConfig(cfg)
	case "clouds":
		return NewClouds(cfg, fov)
	case "starfield", "stars":
		return NewStarfield(cfg, fov)
	case "daynight", "day_night":
		return NewDayNight(cfg, fov)
	}
	return nil, fmt.Errorf("unknown background variant %q", cfg.Variant)
}

type colorField struct {
	dst  *glyph.Color
	src  string
	name string
}

func parseColors(fields ...colorField) error {
	for _, f := range fields {
		c, err := glyph.Hex(f.src)
		if err != nil {
			return fmt.Errorf("background %s: %w", f.name, err)
		}
		*f.dst = c
	}
	return nil
}
