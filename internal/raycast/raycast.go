// Package raycast walks rays through a tile grid with a DDA traversal.
package raycast

import (
	"math"

	"glyphcaster/internal/world"
)

// MinDistance clamps corrected distances so wall heights stay finite.
const MinDistance = 1e-4

// Hit describes where a ray stopped.
type Hit struct {
	Distance     float64          // Euclidean distance from the viewer to the struck face
	Side         bool             // true when the ray crossed a vertical gridline (x step)
	Entry        *world.EntryInfo // Tile that stopped the ray
	MapX, MapY   int              // Struck cell
	HitX, HitY   float64          // World coordinates of the impact point
	WallX        float64          // Position along the struck face in [0, 1)
	CellDistance float64          // Euclidean distance to the struck cell's centre
	OutOfBounds  bool             // Ray left the map; Entry is the synthetic boundary wall
}

// RayAngle returns the angle of the ray for a screen column.
func RayAngle(viewerAngle, fov float64, column, screenWidth int) float64 {
	if screenWidth <= 0 {
		return viewerAngle
	}
	return viewerAngle - fov/2 + (float64(column)/float64(screenWidth))*fov
}

// Corrected removes fish-eye distortion from a raw distance.
func Corrected(raw, rayAngle, viewerAngle float64) float64 {
	d := raw * math.Cos(rayAngle-viewerAngle)
	if d < MinDistance {
		return MinDistance
	}
	return d
}

// Cast walks a ray from (px, py) at angle until it enters a wall cell or
// leaves the map. It always terminates.
func Cast(m world.MapProvider, px, py, angle float64) Hit {
	rayDirX := math.Cos(angle)
	rayDirY := math.Sin(angle)

	mapX := int(math.Floor(px))
	mapY := int(math.Floor(py))

	if !world.InBounds(m, mapX, mapY) {
		return Hit{
			Entry:        m.Entry(mapX, mapY),
			MapX:         mapX,
			MapY:         mapY,
			HitX:         px,
			HitY:         py,
			CellDistance: math.Hypot(float64(mapX)+0.5-px, float64(mapY)+0.5-py),
			OutOfBounds:  true,
		}
	}

	// Distance the ray travels to cross one grid cell along each axis
	deltaDistX, deltaDistY := 1e30, 1e30
	if rayDirX != 0 {
		deltaDistX = math.Abs(1 / rayDirX)
	}
	if rayDirY != 0 {
		deltaDistY = math.Abs(1 / rayDirY)
	}

	var stepX, stepY int
	var sideDistX, sideDistY float64
	if rayDirX < 0 {
		stepX = -1
		sideDistX = (px - float64(mapX)) * deltaDistX
	} else {
		stepX = 1
		sideDistX = (float64(mapX) + 1 - px) * deltaDistX
	}
	if rayDirY < 0 {
		stepY = -1
		sideDistY = (py - float64(mapY)) * deltaDistY
	} else {
		stepY = 1
		sideDistY = (float64(mapY) + 1 - py) * deltaDistY
	}

	// Each step moves one axis monotonically, so the walk leaves any finite
	// map within width+height steps.
	maxSteps := m.Width() + m.Height() + 4
	side := true
	var dist float64
	var entry *world.EntryInfo
	outOfBounds := false

	for steps := 0; ; steps++ {
		if sideDistX < sideDistY {
			dist = sideDistX
			sideDistX += deltaDistX
			mapX += stepX
			side = true
		} else {
			dist = sideDistY
			sideDistY += deltaDistY
			mapY += stepY
			side = false
		}

		if !world.InBounds(m, mapX, mapY) {
			entry = m.Entry(mapX, mapY)
			outOfBounds = true
			break
		}
		if steps >= maxSteps {
			entry = world.OutOfBoundsEntry
			outOfBounds = true
			break
		}
		if e := m.Entry(mapX, mapY); e.IsWall() {
			entry = e
			break
		}
	}

	hitX := px + dist*rayDirX
	hitY := py + dist*rayDirY

	var wallX float64
	if side {
		wallX = hitY - math.Floor(hitY)
		if rayDirX > 0 {
			wallX = 1 - wallX
		}
	} else {
		wallX = hitX - math.Floor(hitX)
		if rayDirY < 0 {
			wallX = 1 - wallX
		}
	}
	if wallX >= 1 {
		wallX = 0
	}

	return Hit{
		Distance:     dist,
		Side:         side,
		Entry:        entry,
		MapX:         mapX,
		MapY:         mapY,
		HitX:         hitX,
		HitY:         hitY,
		WallX:        wallX,
		CellDistance: math.Hypot(float64(mapX)+0.5-px, float64(mapY)+0.5-py),
		OutOfBounds:  outOfBounds,
	}
}
