package sprite

import (
	"math"
	"sync/atomic"

	"glyphcaster/internal/mathutil"
)

// Provider picks the sprite for an object seen at a relative angle: the
// viewer-to-object direction minus the object's orientation, in [0, 2π).
// A nil result hides the object for this frame.
type Provider interface {
	SpriteForAngle(relative float64) Sprite
}

// NormalizeAngle maps any angle into [0, 2π).
func NormalizeAngle(a float64) float64 {
	return mathutil.NormalizeAngle(a)
}

// Bucket returns which of n equally wide angular buckets a relative angle
// falls in. Bucket 0 is centred on the object facing the viewer, and bucket
// k on the object turned k·2π/n counter-clockwise from there. Each bucket is
// the half-open interval [k·w − w/2, k·w + w/2) of facing angles.
func Bucket(relative float64, n int) int {
	if n <= 1 {
		return 0
	}
	// relative is measured viewer→object; the object faces the viewer at π
	return bucketFacing(NormalizeAngle(relative+math.Pi), n)
}

func bucketFacing(facing float64, n int) int {
	w := 2 * math.Pi / float64(n)
	idx := int(math.Floor(NormalizeAngle(facing+w/2) / w))
	if idx >= n {
		idx = 0
	}
	return idx
}

// Static always returns the same sprite.
type Static struct {
	Sprite Sprite
}

func (s Static) SpriteForAngle(float64) Sprite {
	return s.Sprite
}

// Directional chooses among up to eight angle variants.
type Directional struct {
	variants []Sprite
}

// NewDirectional creates a provider; variant 0 faces the viewer and the
// rest follow counter-clockwise.
func NewDirectional(variants ...Sprite) *Directional {
	return &Directional{variants: variants}
}

// Variants returns the number of angle variants.
func (d *Directional) Variants() int {
	return len(d.variants)
}

func (d *Directional) SpriteForAngle(relative float64) Sprite {
	if len(d.variants) == 0 {
		return nil
	}
	return d.variants[Bucket(relative, len(d.variants))]
}

// Animated cycles through frames of directional providers. It is advanced
// by the animation driver through Tick.
type Animated struct {
	frames        []Provider
	ticksPerFrame uint64
	ticks         atomic.Uint64
}

// NewAnimated creates an animated provider switching frames every
// ticksPerFrame ticks.
func NewAnimated(ticksPerFrame int, frames ...Provider) *Animated {
	if ticksPerFrame < 1 {
		ticksPerFrame = 1
	}
	return &Animated{frames: frames, ticksPerFrame: uint64(ticksPerFrame)}
}

// Tick advances the animation clock and reports whether the visible frame
// changed.
func (a *Animated) Tick() bool {
	if len(a.frames) < 2 {
		return false
	}
	t := a.ticks.Add(1)
	return t%a.ticksPerFrame == 0
}

// Frame returns the index of the visible frame.
func (a *Animated) Frame() int {
	if len(a.frames) == 0 {
		return 0
	}
	return int(a.ticks.Load()/a.ticksPerFrame) % len(a.frames)
}

func (a *Animated) SpriteForAngle(relative float64) Sprite {
	if len(a.frames) == 0 {
		return nil
	}
	return a.frames[a.Frame()].SpriteForAngle(relative)
}
