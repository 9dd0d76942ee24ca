package world

import (
	"fmt"
	"unicode/utf8"

	"glyphcaster/internal/config"
	"glyphcaster/internal/glyph"
)

const (
	DefaultWallGlyph    = '█'
	DefaultFloorGlyph   = '.'
	DefaultCeilingGlyph = ' '
)

// EntryInfo describes one map cell. It is immutable once built and may be
// shared between cells and goroutines.
type EntryInfo struct {
	name        string
	wall        bool
	walkThrough bool
	transparent bool
	glyph       rune

	colorLight, colorDark glyph.Color
	bgLight, bgDark       glyph.Color

	height              float64
	texture             string
	textureInstructions string

	ceiling       bool
	ceilingHeight float64
	ceilingGlyph  rune

	ceilingLight, ceilingDark     glyph.Color
	ceilingBgLight, ceilingBgDark glyph.Color
}

// NewEntryInfo builds a tile descriptor from its legend definition.
func NewEntryInfo(data config.TileData) (*EntryInfo, error) {
	e := &EntryInfo{
		name:                data.Name,
		wall:                data.Wall,
		walkThrough:         !data.Wall,
		transparent:         data.Transparent,
		height:              1.0,
		texture:             data.Texture,
		textureInstructions: data.TextureInstructions,
		ceiling:             data.Ceiling,
		ceilingHeight:       1.0,
		ceilingGlyph:        DefaultCeilingGlyph,
	}
	if data.WalkThrough != nil {
		e.walkThrough = *data.WalkThrough
	}
	if data.Height != nil {
		if *data.Height <= 0 {
			return nil, fmt.Errorf("tile %q: height must be positive, got %f", data.Name, *data.Height)
		}
		e.height = *data.Height
	}
	if data.CeilingHeight != nil {
		if *data.CeilingHeight <= 0.5 {
			return nil, fmt.Errorf("tile %q: ceiling_height must be above eye level (0.5), got %f", data.Name, *data.CeilingHeight)
		}
		e.ceilingHeight = *data.CeilingHeight
	}

	e.glyph = DefaultFloorGlyph
	if e.wall {
		e.glyph = DefaultWallGlyph
	}
	if data.Glyph != "" {
		e.glyph, _ = utf8.DecodeRuneInString(data.Glyph)
	}
	if data.CeilingGlyph != "" {
		e.ceilingGlyph, _ = utf8.DecodeRuneInString(data.CeilingGlyph)
	}

	colors := []struct {
		dst *glyph.Color
		src string
		key string
	}{
		{&e.colorLight, data.ColorLight, "color_light"},
		{&e.colorDark, data.ColorDark, "color_dark"},
		{&e.bgLight, data.BackgroundLight, "background_light"},
		{&e.bgDark, data.BackgroundDark, "background_dark"},
		{&e.ceilingLight, data.CeilingColorLight, "ceiling_color_light"},
		{&e.ceilingDark, data.CeilingColorDark, "ceiling_color_dark"},
		{&e.ceilingBgLight, data.CeilingBackgroundLight, "ceiling_background_light"},
		{&e.ceilingBgDark, data.CeilingBackgroundDark, "ceiling_background_dark"},
	}
	for _, c := range colors {
		parsed, err := glyph.Hex(c.src)
		if err != nil {
			return nil, fmt.Errorf("tile %q: %s: %w", data.Name, c.key, err)
		}
		*c.dst = parsed
	}

	return e, nil
}

// MustEntryInfo is NewEntryInfo for definitions known to be valid.
func MustEntryInfo(data config.TileData) *EntryInfo {
	e, err := NewEntryInfo(data)
	if err != nil {
		panic(err)
	}
	return e
}

// OutOfBoundsEntry is returned for every coordinate outside a map.
var OutOfBoundsEntry = MustEntryInfo(config.TileData{Name: "out_of_bounds", Wall: true})

func (e *EntryInfo) Name() string                { return e.name }
func (e *EntryInfo) IsWall() bool                { return e.wall }
func (e *EntryInfo) IsWalkThrough() bool         { return e.walkThrough }
func (e *EntryInfo) IsTransparent() bool         { return e.transparent }
func (e *EntryInfo) Glyph() rune                 { return e.glyph }
func (e *EntryInfo) Height() float64             { return e.height }
func (e *EntryInfo) Texture() string             { return e.texture }
func (e *EntryInfo) TextureInstructions() string { return e.textureInstructions }
func (e *EntryInfo) HasCeiling() bool            { return e.ceiling }
func (e *EntryInfo) CeilingHeight() float64      { return e.ceilingHeight }
func (e *EntryInfo) CeilingGlyph() rune          { return e.ceilingGlyph }

// pick returns the requested variant, falling back to the other one and
// then to the default colour.
func pick(light, dark glyph.Color, wantDark bool) glyph.Color {
	if wantDark {
		return dark.Or(light)
	}
	return light.Or(dark)
}

// Color returns the glyph colour for the light or dark side.
func (e *EntryInfo) Color(dark bool) glyph.Color {
	return pick(e.colorLight, e.colorDark, dark)
}

// HasColor reports whether either glyph colour variant was set.
func (e *EntryInfo) HasColor() bool {
	return !e.colorLight.IsDefault() || !e.colorDark.IsDefault()
}

// HasExplicitDark reports whether the dark glyph colour was set rather than
// inherited from the light one.
func (e *EntryInfo) HasExplicitDark() bool {
	return !e.colorDark.IsDefault()
}

func (e *EntryInfo) BackgroundColor(dark bool) glyph.Color {
	return pick(e.bgLight, e.bgDark, dark)
}

func (e *EntryInfo) CeilingColor(dark bool) glyph.Color {
	return pick(e.ceilingLight, e.ceilingDark, dark)
}

func (e *EntryInfo) CeilingBackgroundColor(dark bool) glyph.Color {
	return pick(e.ceilingBgLight, e.ceilingBgDark, dark)
}
