package render

import (
	"glyphcaster/internal/raycast"
	"glyphcaster/internal/texture"
)

// columnHit is what pass 1 leaves for pass 2 in one screen column.
type columnHit struct {
	hit       raycast.Hit
	rayAngle  float64
	corrected float64
	texture   texture.Texture // nil when the tile has none or it cannot be resolved
	texColumn int
	light     bool
}

type textureKey struct {
	name  string
	light bool
}

// Frame is the per-frame context threaded through the passes. It belongs to
// one Render call at a time; only its allocations survive between frames.
type Frame struct {
	width, height int
	depth         []float64
	hits          []columnHit
	textures      map[textureKey]texture.Texture
}

func newFrame() *Frame {
	return &Frame{textures: make(map[textureKey]texture.Texture)}
}

// reset prepares the frame for a new render, reallocating the per-column
// buffers when the width changed.
func (f *Frame) reset(width, height int) {
	if width != f.width || f.depth == nil {
		f.depth = make([]float64, width)
		f.hits = make([]columnHit, width)
	} else {
		clear(f.depth)
		clear(f.hits)
	}
	f.width, f.height = width, height
	clear(f.textures)
}

// texture resolves a texture once per (name, light) per frame. Misses are
// remembered too.
func (f *Frame) texture(p texture.Provider, name string, width, height int, tile tileRef, light bool) texture.Texture {
	if p == nil || name == "" {
		return nil
	}
	k := textureKey{name: name, light: light}
	if t, ok := f.textures[k]; ok {
		return t
	}
	t := p.Texture(name, width, height, tile, light)
	f.textures[k] = t
	return t
}
