package game

import (
	"math"

	"glyphcaster/internal/sprite"

	"github.com/google/uuid"
)

// DefaultMaxRenderDistance hides objects farther away than this.
const DefaultMaxRenderDistance = 24.0

// GameObject is a dynamic object placed on the map. The scene owns it; the
// renderer only ever sees ObjectState copies.
type GameObject struct {
	ID                string
	Name              string
	X, Y              float64
	Orientation       float64 // facing, radians
	Sprites           sprite.Provider
	Solid             bool
	Interactable      bool
	Visible           bool
	MaxRenderDistance float64
	ZOffset           float64 // lift above the floor, in wall heights
}

// NewGameObject creates a visible object with a fresh ID.
func NewGameObject(name string, x, y float64, sprites sprite.Provider) *GameObject {
	return &GameObject{
		ID:                uuid.NewString(),
		Name:              name,
		X:                 x,
		Y:                 y,
		Sprites:           sprites,
		Visible:           true,
		MaxRenderDistance: DefaultMaxRenderDistance,
	}
}

// ObjectState is the per-frame copy of an object handed to the renderer.
type ObjectState struct {
	ID                string
	X, Y              float64
	Orientation       float64
	Sprites           sprite.Provider
	Visible           bool
	MaxRenderDistance float64
	ZOffset           float64
}

func (o *GameObject) state() ObjectState {
	return ObjectState{
		ID:                o.ID,
		X:                 o.X,
		Y:                 o.Y,
		Orientation:       o.Orientation,
		Sprites:           o.Sprites,
		Visible:           o.Visible,
		MaxRenderDistance: o.MaxRenderDistance,
		ZOffset:           o.ZOffset,
	}
}

// DistanceTo returns the Euclidean distance from the object to (x, y).
func (s ObjectState) DistanceTo(x, y float64) float64 {
	return math.Hypot(s.X-x, s.Y-y)
}

// RelativeAngle is the viewer→object direction minus the object's
// orientation, normalised into [0, 2π).
func (s ObjectState) RelativeAngle(viewerX, viewerY float64) float64 {
	return sprite.NormalizeAngle(math.Atan2(s.Y-viewerY, s.X-viewerX) - s.Orientation)
}
