package render

import (
	"glyphcaster/internal/glyph"
	"glyphcaster/internal/world"
)

type tileRef = *world.EntryInfo

// shade applies the distance bands: past the far distance everything turns
// black, past the dim distance colours are darkened, nearer cells keep their
// true colour. Default colours stay default except in the far band.
func (r *Renderer) shade(c glyph.Cell, dist float64) glyph.Cell {
	switch {
	case dist > r.cfg.FarDistance:
		c.Fg = glyph.Black
		if !c.Bg.IsDefault() {
			c.Bg = glyph.Black
		}
	case dist > r.cfg.DimDistance:
		c.Fg = c.Fg.Darken(r.cfg.DimFactor)
		c.Bg = c.Bg.Darken(r.cfg.DimFactor)
	}
	return c
}

// wallColors returns the glyph and background colour of a plain wall. The
// dark side falls back to the light colours when the tile defines no dark
// colour, darkened so the two sides stay distinguishable.
func (r *Renderer) wallColors(tile tileRef, dark bool) (fg, bg glyph.Color) {
	fg, bg = tile.Color(dark), tile.BackgroundColor(dark)
	if dark && !tile.HasExplicitDark() {
		fg = fg.Darken(r.cfg.DarkSideFactor)
		bg = bg.Darken(r.cfg.DarkSideFactor)
	}
	return fg, bg
}
