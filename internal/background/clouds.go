package background

import (
	"math"
	"sync/atomic"

	"glyphcaster/internal/config"
	"glyphcaster/internal/glyph"
)

// cloudGlyphs are ordered by increasing density.
var cloudGlyphs = []rune{'░', '▒', '▓'}

type cloudState struct {
	offset float64
	ticks  uint64
}

// Clouds is a gradient sky with drifting value-noise clouds. The cloud
// field is laid around the sky cylinder, so turning scrolls it.
type Clouds struct {
	sky, horizon, cloud, ground glyph.Color

	scale float64
	speed float64
	cover float64
	fov   float64
	noise *valueNoise

	state atomic.Pointer[cloudState]

	// pinned for the current frame
	frame  *cloudState
	view   view
	period int64
	ratio  float64
}

// NewClouds creates a cloud sky from cfg.
func NewClouds(cfg config.BackgroundConfig, fov float64) (*Clouds, error) {
	c := &Clouds{
		scale: cfg.CloudScale,
		speed: cfg.CloudSpeed,
		cover: cfg.CloudCover,
		fov:   fov,
		noise: newValueNoise(cfg.Seed),
	}
	if err := parseColors(
		colorField{&c.sky, cfg.SkyColor, "sky_color"},
		colorField{&c.horizon, cfg.HorizonColor, "horizon_color"},
		colorField{&c.cloud, cfg.CloudColor, "cloud_color"},
	); err != nil {
		return nil, err
	}
	if c.scale <= 0 {
		c.scale = 0.08
	}
	c.cover = math.Min(math.Max(c.cover, 0), 0.99)
	c.ground = c.horizon.Or(glyph.Gray).Darken(0.3)
	c.state.Store(&cloudState{})
	return c, nil
}

// Tick drifts the clouds.
func (c *Clouds) Tick() bool {
	old := c.state.Load()
	c.state.Store(&cloudState{offset: old.offset + c.speed, ticks: old.ticks + 1})
	return c.speed != 0
}

func (c *Clouds) SetDimensionAndAngle(width, height int, viewerAngle float64) {
	c.frame = c.state.Load()
	c.view = view{width: width, height: height, angle: viewerAngle, fov: c.fov}

	// Round the lattice period so the field wraps seamlessly around the sky
	circ := c.view.circumference()
	c.period = int64(math.Max(1, math.Round(circ*c.scale)))
	c.ratio = float64(c.period) / math.Max(circ, 1)
}

func (c *Clouds) Background(x, y int) glyph.Cell {
	v := c.view
	if y >= v.horizon() {
		return glyph.Cell{Rune: ' ', Fg: c.ground, Bg: c.ground}
	}

	base := c.horizon.Lerp(c.sky, v.elevation(y))
	frame := c.frame
	if frame == nil {
		frame = c.state.Load()
	}

	u := v.skyU(x)*v.circumference()*c.ratio + frame.offset
	// Cells are about twice as tall as wide
	n := c.noise.fractal(u, float64(y)*c.ratio*2, c.period, 3)
	return cloudCell(n, c.cover, c.cloud, base)
}

// cloudCell picks a density glyph for noise value n above the cover threshold.
func cloudCell(n, cover float64, cloud, sky glyph.Color) glyph.Cell {
	if n <= cover {
		return glyph.Cell{Rune: ' ', Fg: sky, Bg: sky}
	}
	density := (n - cover) / (1 - cover)
	idx := int(density * float64(len(cloudGlyphs)))
	if idx >= len(cloudGlyphs) {
		idx = len(cloudGlyphs) - 1
	}
	return glyph.Cell{Rune: cloudGlyphs[idx], Fg: cloud, Bg: sky}
}
