// Package texture resolves texture keys into glyph grids sized for the
// request.
package texture

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"glyphcaster/internal/glyph"
	"glyphcaster/internal/world"
)

// Texture is a read-only glyph grid. CharAt clamps out-of-range coordinates.
type Texture interface {
	CharAt(x, y int) glyph.Cell
	Width() int
	Height() int
}

// Provider resolves a texture key for a target size. The tile being drawn is
// passed so providers can honour its texture instructions; light selects the
// lit or shaded variant. A nil result means the provider cannot serve the key.
type Provider interface {
	Texture(key string, width, height int, tile *world.EntryInfo, light bool) Texture
}

// Mode selects how a source pattern is fitted to the requested size.
type Mode int

const (
	// ScaleToFit stretches or squeezes the pattern with nearest-neighbour sampling.
	ScaleToFit Mode = iota
	// Tile repeats the pattern at its natural size.
	Tile
)

func (m Mode) String() string {
	switch m {
	case Tile:
		return "tile"
	default:
		return "scale"
	}
}

// ParseMode accepts "scale", "tile" and their common aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "scale", "stretch", "fit":
		return ScaleToFit, nil
	case "tile", "repeat":
		return Tile, nil
	}
	return ScaleToFit, fmt.Errorf("unknown texture mode %q", s)
}

// Instructions parses "key=value" pairs separated by ';', ',' or spaces.
func Instructions(s string) map[string]string {
	out := make(map[string]string)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || r == ' '
	})
	for _, f := range fields {
		k, v, _ := strings.Cut(f, "=")
		out[strings.ToLower(k)] = v
	}
	return out
}

// modeFor applies a tile's "mode=" instruction over the provider default.
func modeFor(tile *world.EntryInfo, fallback Mode) Mode {
	if tile == nil || tile.TextureInstructions() == "" {
		return fallback
	}
	raw, ok := Instructions(tile.TextureInstructions())["mode"]
	if !ok {
		return fallback
	}
	m, err := ParseMode(raw)
	if err != nil {
		return fallback
	}
	return m
}

// Pattern is a source glyph grid.
type Pattern struct {
	width  int
	height int
	cells  []glyph.Cell
}

// NewPattern builds a pattern from equal-width rows, coloured uniformly.
func NewPattern(rows []string, fg, bg glyph.Color) (*Pattern, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("pattern has no rows")
	}
	width := utf8.RuneCountInString(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("pattern has an empty first row")
	}

	p := &Pattern{width: width, height: len(rows), cells: make([]glyph.Cell, 0, width*len(rows))}
	for i, row := range rows {
		if n := utf8.RuneCountInString(row); n != width {
			return nil, fmt.Errorf("pattern row %d has width %d, expected %d", i+1, n, width)
		}
		for _, r := range row {
			p.cells = append(p.cells, glyph.Cell{Rune: r, Fg: fg, Bg: bg})
		}
	}
	return p, nil
}

// MustPattern is NewPattern for literals known to be valid.
func MustPattern(rows []string, fg, bg glyph.Color) *Pattern {
	p, err := NewPattern(rows, fg, bg)
	if err != nil {
		panic(err)
	}
	return p
}

// PatternFromCells wraps a row-major cell slice of width*height cells.
func PatternFromCells(width, height int, cells []glyph.Cell) (*Pattern, error) {
	if width <= 0 || height <= 0 || len(cells) != width*height {
		return nil, fmt.Errorf("pattern %dx%d needs %d cells, got %d", width, height, width*height, len(cells))
	}
	return &Pattern{width: width, height: height, cells: cells}, nil
}

func (p *Pattern) Width() int  { return p.width }
func (p *Pattern) Height() int { return p.height }

// CharAt implements Texture at the pattern's natural size.
func (p *Pattern) CharAt(x, y int) glyph.Cell {
	return p.cells[clampIndex(y, p.height)*p.width+clampIndex(x, p.width)]
}

// Resolve fits a pattern to width×height using the given mode.
func Resolve(p *Pattern, mode Mode, width, height int) Texture {
	if width <= 0 || height <= 0 {
		return nil
	}
	if mode == Tile {
		return &tiledTexture{src: p, width: width, height: height}
	}
	if width == p.width && height == p.height {
		return p
	}
	return &scaledTexture{src: p, width: width, height: height}
}

type scaledTexture struct {
	src           *Pattern
	width, height int
}

func (t *scaledTexture) Width() int  { return t.width }
func (t *scaledTexture) Height() int { return t.height }

func (t *scaledTexture) CharAt(x, y int) glyph.Cell {
	x = clampIndex(x, t.width)
	y = clampIndex(y, t.height)
	return t.src.CharAt(x*t.src.width/t.width, y*t.src.height/t.height)
}

type tiledTexture struct {
	src           *Pattern
	width, height int
}

func (t *tiledTexture) Width() int  { return t.width }
func (t *tiledTexture) Height() int { return t.height }

func (t *tiledTexture) CharAt(x, y int) glyph.Cell {
	x = clampIndex(x, t.width)
	y = clampIndex(y, t.height)
	return t.src.CharAt(x%t.src.width, y%t.src.height)
}

// shaded wraps a texture and darkens every cell.
type shaded struct {
	Texture
	factor float64
}

// Shade returns a darkened view of t; factor 1 returns t itself.
func Shade(t Texture, factor float64) Texture {
	if t == nil || factor >= 1 {
		return t
	}
	return &shaded{Texture: t, factor: factor}
}

func (s *shaded) CharAt(x, y int) glyph.Cell {
	c := s.Texture.CharAt(x, y)
	c.Fg = c.Fg.Darken(s.factor)
	c.Bg = c.Bg.Darken(s.factor)
	return c
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
