package glyph

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a 24-bit colour. Default marks the sink's own default colour and
// stands in for "no colour set".
type Color struct {
	R, G, B uint8
	Default bool
}

var (
	DefaultColor = Color{Default: true}
	Black        = RGB(0, 0, 0)
	White        = RGB(255, 255, 255)
	Red          = RGB(255, 0, 0)
	Green        = RGB(0, 255, 0)
	Blue         = RGB(0, 0, 255)
	Yellow       = RGB(255, 255, 0)
	Gray         = RGB(128, 128, 128)
)

// RGB builds an explicit colour.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Hex parses "#RRGGBB" (or "#RGB"). An empty string yields DefaultColor.
func Hex(s string) (Color, error) {
	if s == "" {
		return DefaultColor, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return DefaultColor, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return fromColorful(c), nil
}

// MustHex is Hex for literals known to be valid.
func MustHex(s string) Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FromStd converts an image/color value, dropping alpha.
func FromStd(c color.Color) Color {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return Black
	}
	return fromColorful(cf)
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// IsDefault reports whether the colour is the sink default.
func (c Color) IsDefault() bool {
	return c.Default
}

// Or returns c unless it is the default colour, in which case fallback.
func (c Color) Or(fallback Color) Color {
	if c.Default {
		return fallback
	}
	return c
}

// Darken scales the colour towards black; factor 1 keeps it, 0 gives black.
// The default colour is returned unchanged.
func (c Color) Darken(factor float64) Color {
	if c.Default {
		return c
	}
	if factor <= 0 {
		return Black
	}
	if factor >= 1 {
		return c
	}
	return fromColorful(colorful.Color{}.BlendRgb(c.colorful(), factor))
}

// Blend mixes towards other in Lab space; t=0 keeps c, t=1 gives other.
func (c Color) Blend(other Color, t float64) Color {
	if c.Default {
		return other
	}
	if other.Default {
		return c
	}
	if t <= 0 {
		return c
	}
	if t >= 1 {
		return other
	}
	return fromColorful(c.colorful().BlendLab(other.colorful(), t))
}

// Lerp mixes linearly in RGB space.
func (c Color) Lerp(other Color, t float64) Color {
	if c.Default || other.Default {
		return c.Blend(other, t)
	}
	return fromColorful(c.colorful().BlendRgb(other.colorful(), clamp01(t)))
}

// Hex renders the colour as "#rrggbb", or "" for the default colour.
func (c Color) Hex() string {
	if c.Default {
		return ""
	}
	return c.colorful().Hex()
}

// RGBA implements color.Color; the default colour renders as opaque black.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
