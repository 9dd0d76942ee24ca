package mathutil

import "math"

// TwoPi is a full turn in radians.
const TwoPi = 2 * math.Pi

// NormalizeAngle maps any angle into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	if a >= TwoPi {
		a = 0
	}
	return a
}

// WrapAngle maps any angle into (-π, π].
func WrapAngle(a float64) float64 {
	a = NormalizeAngle(a)
	if a > math.Pi {
		a -= TwoPi
	}
	return a
}
