package game

import (
	"math"

	"glyphcaster/internal/mathutil"
)

// Camera is the viewer pose on the map plane. Angle is kept in [0, 2π);
// 0 looks along +X and positive angles turn towards +Y.
type Camera struct {
	X, Y  float64
	Angle float64
	FOV   float64
}

func NewCamera(x, y, angle, fov float64) Camera {
	return Camera{X: x, Y: y, Angle: mathutil.NormalizeAngle(angle), FOV: fov}
}

// Forward is the unit view direction.
func (c *Camera) Forward() (dx, dy float64) {
	return math.Cos(c.Angle), math.Sin(c.Angle)
}

// Right is the unit direction a quarter turn clockwise of Forward, which is
// screen-right.
func (c *Camera) Right() (dx, dy float64) {
	fx, fy := c.Forward()
	return -fy, fx
}

func (c *Camera) SetPosition(x, y float64) {
	c.X, c.Y = x, y
}

func (c *Camera) Rotate(delta float64) {
	c.Angle = mathutil.NormalizeAngle(c.Angle + delta)
}

// AngleTo is the signed angle from Forward to the direction of (x, y), in
// (-π, π].
func (c *Camera) AngleTo(x, y float64) float64 {
	return mathutil.WrapAngle(math.Atan2(y-c.Y, x-c.X) - c.Angle)
}
