package collision

import "math"

// Entity is a circular footprint on the map plane. Solid entities keep the
// viewer outside their radius.
type Entity struct {
	ID     string
	X, Y   float64
	Radius float64
	Solid  bool
}

// NewEntity places an entity centred on (x, y).
func NewEntity(id string, x, y, radius float64, solid bool) *Entity {
	return &Entity{ID: id, X: x, Y: y, Radius: radius, Solid: solid}
}

// Distance is the centre-to-point distance.
func (e *Entity) Distance(x, y float64) float64 {
	return math.Hypot(e.X-x, e.Y-y)
}

// Covers reports whether (x, y) lies strictly inside the footprint.
func (e *Entity) Covers(x, y float64) bool {
	return e.Distance(x, y) < e.Radius
}
