package background

import (
	"unicode/utf8"

	"glyphcaster/internal/config"
	"glyphcaster/internal/glyph"
)

// Solid fills the background with one colour and glyph.
type Solid struct {
	cell glyph.Cell
}

// NewSolid creates a solid background.
func NewSolid(r rune, fg, bg glyph.Color) *Solid {
	return &Solid{cell: glyph.Cell{Rune: r, Fg: fg, Bg: bg}}
}

// NewSolidFromConfig reads color and glyph from cfg.
func NewSolidFromConfig(cfg config.BackgroundConfig) (*Solid, error) {
	var bg glyph.Color
	if err := parseColors(colorField{&bg, cfg.Color, "color"}); err != nil {
		return nil, err
	}
	r := ' '
	if cfg.Glyph != "" {
		r, _ = utf8.DecodeRuneInString(cfg.Glyph)
	}
	return NewSolid(r, bg, bg), nil
}

func (s *Solid) SetDimensionAndAngle(int, int, float64) {}

func (s *Solid) Background(int, int) glyph.Cell {
	return s.cell
}
