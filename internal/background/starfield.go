package background

import (
	"math"
	"math/rand"
	"sync/atomic"

	"glyphcaster/internal/config"
	"glyphcaster/internal/glyph"
)

// Star catalogue resolution: columns around the full sky and rows from the
// horizon to the zenith.
const (
	skyColumns = 720
	skyRows    = 64
)

type star struct {
	phase float64
	speed float64
	tint  glyph.Color
}

type starState struct {
	time float64
}

// Starfield is a night sky of twinkling stars fixed to the sky cylinder, with
// an optional moon.
type Starfield struct {
	night  glyph.Color
	ground glyph.Color
	fov    float64

	// index into stars per catalogue cell, -1 for empty sky
	catalogue []int32
	stars     []star

	showMoon bool
	moonU    float64
	moonElev float64

	state atomic.Pointer[starState]

	frame *starState
	view  view
}

// NewStarfield creates a starfield from cfg.
func NewStarfield(cfg config.BackgroundConfig, fov float64) (*Starfield, error) {
	night := glyph.MustHex("#05070f")
	if cfg.Color != "" && cfg.Color != "#000000" {
		if err := parseColors(colorField{&night, cfg.Color, "color"}); err != nil {
			return nil, err
		}
	}
	s := newStarfield(cfg.Seed, cfg.StarDensity, fov, night)
	s.showMoon = cfg.ShowMoon
	return s, nil
}

func newStarfield(seed int64, density, fov float64, night glyph.Color) *Starfield {
	rng := rand.New(rand.NewSource(seed))
	s := &Starfield{
		night:     night,
		ground:    night.Darken(0.5),
		fov:       fov,
		catalogue: make([]int32, skyColumns*skyRows),
		moonU:     rng.Float64(),
		moonElev:  0.55 + rng.Float64()*0.3,
	}

	tints := []glyph.Color{glyph.White, glyph.MustHex("#cfd8ff"), glyph.MustHex("#fff1c9")}
	for i := range s.catalogue {
		s.catalogue[i] = -1
		if rng.Float64() < density {
			s.catalogue[i] = int32(len(s.stars))
			s.stars = append(s.stars, star{
				phase: rng.Float64() * 2 * math.Pi,
				speed: 0.05 + rng.Float64()*0.25,
				tint:  tints[rng.Intn(len(tints))],
			})
		}
	}
	s.state.Store(&starState{})
	return s
}

// Tick advances the twinkle clock.
func (s *Starfield) Tick() bool {
	old := s.state.Load()
	s.state.Store(&starState{time: old.time + 1})
	return len(s.stars) > 0
}

func (s *Starfield) SetDimensionAndAngle(width, height int, viewerAngle float64) {
	s.frame = s.state.Load()
	s.view = view{width: width, height: height, angle: viewerAngle, fov: s.fov}
}

func (s *Starfield) Background(x, y int) glyph.Cell {
	v := s.view
	if y >= v.horizon() {
		return glyph.Cell{Rune: ' ', Fg: s.ground, Bg: s.ground}
	}
	frame := s.frame
	if frame == nil {
		frame = s.state.Load()
	}
	return s.skyCell(v, frame.time, x, y, s.night)
}

// skyCell draws the moon or a star over bg; DayNight reuses it at night.
func (s *Starfield) skyCell(v view, t float64, x, y int, bg glyph.Color) glyph.Cell {
	u := v.skyU(x)
	elev := v.elevation(y)

	if s.showMoon && s.moonAt(v, u, elev) {
		return glyph.Cell{Rune: '█', Fg: glyph.MustHex("#f4f1de"), Bg: bg}
	}

	col := int(u * skyColumns)
	row := int(elev * skyRows)
	if row >= skyRows {
		row = skyRows - 1
	}
	idx := s.catalogue[row*skyColumns+col]
	if idx < 0 {
		return glyph.Cell{Rune: ' ', Fg: bg, Bg: bg}
	}

	st := s.stars[idx]
	brightness := 0.6 + 0.4*math.Sin(st.phase+t*st.speed)
	r := '.'
	switch {
	case brightness > 0.9:
		r = '*'
	case brightness > 0.7:
		r = '+'
	}
	return glyph.Cell{Rune: r, Fg: st.tint.Darken(brightness), Bg: bg}
}

// moonAt reports whether the sky position lies on the moon disc.
func (s *Starfield) moonAt(v view, u, elev float64) bool {
	circ := v.circumference()
	du := math.Abs(u - s.moonU)
	if du > 0.5 {
		du = 1 - du
	}
	dx := du * circ
	// rows are roughly twice the height of columns
	dy := (elev - s.moonElev) * float64(v.horizon()) * 2
	return dx*dx+dy*dy <= 4
}
