// Package sprite holds the glyph sprites drawn for dynamic objects and the
// providers that pick a sprite for the angle an object is seen from.
package sprite

import (
	"fmt"
	"unicode/utf8"

	"glyphcaster/internal/glyph"
)

// Sprite is a small glyph image. The renderer scales it to the object's
// projected size.
type Sprite interface {
	Width() int
	Height() int
	CharAt(x, y int) rune
	ForegroundAt(x, y int) glyph.Color
	BackgroundAt(x, y int) glyph.Color
	IsTransparentAt(x, y int) bool
	// Scale multiplies the projected height; 1 is one wall height.
	Scale() float64
}

// GlyphSprite is a Sprite built from rows of text.
type GlyphSprite struct {
	width, height int
	cells         []glyph.Cell
	transparent   []bool
	scale         float64
}

// Style controls how NewGlyphSprite colours rows of text.
type Style struct {
	Alpha      rune                 // glyph treated as transparent
	Foreground glyph.Color          // default glyph colour
	Background glyph.Color          // default cell background; DefaultColor keeps what is behind
	Palette    map[rune]glyph.Color // per-glyph foreground overrides
	Scale      float64
}

// NewGlyphSprite builds a sprite from equal-width rows.
func NewGlyphSprite(rows []string, style Style) (*GlyphSprite, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sprite has no rows")
	}
	width := utf8.RuneCountInString(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("sprite has an empty first row")
	}
	if style.Scale <= 0 {
		style.Scale = 1
	}

	s := &GlyphSprite{
		width:       width,
		height:      len(rows),
		cells:       make([]glyph.Cell, 0, width*len(rows)),
		transparent: make([]bool, 0, width*len(rows)),
		scale:       style.Scale,
	}
	for i, row := range rows {
		if n := utf8.RuneCountInString(row); n != width {
			return nil, fmt.Errorf("sprite row %d has width %d, expected %d", i+1, n, width)
		}
		for _, r := range row {
			fg := style.Foreground
			if c, ok := style.Palette[r]; ok {
				fg = c
			}
			s.cells = append(s.cells, glyph.Cell{Rune: r, Fg: fg, Bg: style.Background})
			s.transparent = append(s.transparent, r == style.Alpha)
		}
	}
	return s, nil
}

// MustGlyphSprite is NewGlyphSprite for literals known to be valid.
func MustGlyphSprite(rows []string, style Style) *GlyphSprite {
	s, err := NewGlyphSprite(rows, style)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *GlyphSprite) Width() int     { return s.width }
func (s *GlyphSprite) Height() int    { return s.height }
func (s *GlyphSprite) Scale() float64 { return s.scale }

func (s *GlyphSprite) index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return 0, false
	}
	return y*s.width + x, true
}

func (s *GlyphSprite) CharAt(x, y int) rune {
	if i, ok := s.index(x, y); ok {
		return s.cells[i].Rune
	}
	return ' '
}

func (s *GlyphSprite) ForegroundAt(x, y int) glyph.Color {
	if i, ok := s.index(x, y); ok {
		return s.cells[i].Fg
	}
	return glyph.DefaultColor
}

func (s *GlyphSprite) BackgroundAt(x, y int) glyph.Color {
	if i, ok := s.index(x, y); ok {
		return s.cells[i].Bg
	}
	return glyph.DefaultColor
}

// IsTransparentAt is true for alpha glyphs and outside the sprite.
func (s *GlyphSprite) IsTransparentAt(x, y int) bool {
	if i, ok := s.index(x, y); ok {
		return s.transparent[i]
	}
	return true
}
