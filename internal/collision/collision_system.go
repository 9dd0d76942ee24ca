// Package collision answers "may the viewer stand here" and line-of-sight
// questions against a tile map and the solid objects placed on it.
package collision

import (
	"math"
	"sort"

	"glyphcaster/internal/world"
)

// TileChecker reports per-cell movement and sight properties. Cells outside
// [0, width) × [0, height) are treated as blocking and opaque by the system.
type TileChecker interface {
	IsTileBlocking(tileX, tileY int) bool
	IsTileOpaque(tileX, tileY int) bool
	GetWorldBounds() (width, height int)
}

// MapChecker adapts a map provider to TileChecker.
type MapChecker struct {
	Map world.MapProvider
}

func (mc MapChecker) IsTileBlocking(tileX, tileY int) bool {
	return !mc.Map.Entry(tileX, tileY).IsWalkThrough()
}

// IsTileOpaque is true for wall cells, transparent or not.
func (mc MapChecker) IsTileOpaque(tileX, tileY int) bool {
	return mc.Map.Entry(tileX, tileY).IsWall()
}

func (mc MapChecker) GetWorldBounds() (width, height int) {
	return mc.Map.Width(), mc.Map.Height()
}

// CollisionSystem holds the entities of one scene. It is not safe for
// concurrent use; the scene serialises access.
type CollisionSystem struct {
	tiles    TileChecker
	entities map[string]*Entity
}

func NewCollisionSystem(tiles TileChecker) *CollisionSystem {
	return &CollisionSystem{tiles: tiles, entities: make(map[string]*Entity)}
}

// RegisterEntity adds e, replacing any entity with the same ID.
func (cs *CollisionSystem) RegisterEntity(e *Entity) {
	cs.entities[e.ID] = e
}

func (cs *CollisionSystem) UnregisterEntity(id string) {
	delete(cs.entities, id)
}

// UpdateEntity moves a registered entity; unknown IDs are ignored.
func (cs *CollisionSystem) UpdateEntity(id string, x, y float64) {
	if e, ok := cs.entities[id]; ok {
		e.X, e.Y = x, y
	}
}

// UpdateTileChecker swaps the map after a reload. Entities are kept.
func (cs *CollisionSystem) UpdateTileChecker(tiles TileChecker) {
	cs.tiles = tiles
}

// GetEntityByID returns nil for unknown IDs.
func (cs *CollisionSystem) GetEntityByID(id string) *Entity {
	return cs.entities[id]
}

func (cs *CollisionSystem) inside(tx, ty int) bool {
	w, h := cs.tiles.GetWorldBounds()
	return tx >= 0 && ty >= 0 && tx < w && ty < h
}

// CanOccupy reports whether a point is free: its cell is inside the map and
// walkable, and no solid entity covers it.
func (cs *CollisionSystem) CanOccupy(x, y float64) bool {
	tx, ty := int(math.Floor(x)), int(math.Floor(y))
	if !cs.inside(tx, ty) || cs.tiles.IsTileBlocking(tx, ty) {
		return false
	}
	for _, e := range cs.entities {
		if e.Solid && e.Covers(x, y) {
			return false
		}
	}
	return true
}

// GetNearbyEntities returns entities whose centre is within radius of
// (x, y), nearest first. Ties are broken by ID.
func (cs *CollisionSystem) GetNearbyEntities(x, y, radius float64, excludeID string) []*Entity {
	type hit struct {
		e *Entity
		d float64
	}
	var hits []hit
	for id, e := range cs.entities {
		if id == excludeID {
			continue
		}
		if d := e.Distance(x, y); d <= radius {
			hits = append(hits, hit{e, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].d != hits[j].d {
			return hits[i].d < hits[j].d
		}
		return hits[i].e.ID < hits[j].e.ID
	})

	out := make([]*Entity, len(hits))
	for i, h := range hits {
		out[i] = h.e
	}
	return out
}

// CheckLineOfSight walks every cell the segment crosses, start and end
// cells included, and fails on the first opaque or off-map cell.
func (cs *CollisionSystem) CheckLineOfSight(x1, y1, x2, y2 float64) bool {
	tx, ty := int(math.Floor(x1)), int(math.Floor(y1))
	endX, endY := int(math.Floor(x2)), int(math.Floor(y2))
	dx, dy := x2-x1, y2-y1

	stepX, nextX, deltaX := gridStep(x1, dx)
	stepY, nextY, deltaY := gridStep(y1, dy)

	for {
		if !cs.inside(tx, ty) || cs.tiles.IsTileOpaque(tx, ty) {
			return false
		}
		if tx == endX && ty == endY {
			return true
		}
		if math.Min(nextX, nextY) > 1 {
			// rounding left the end cell unvisited; no boundary remains
			return true
		}
		if nextX < nextY {
			tx += stepX
			nextX += deltaX
		} else {
			ty += stepY
			nextY += deltaY
		}
	}
}

// gridStep returns the cell step along one axis, the segment parameter of
// the first boundary crossing and the parameter span of one cell.
func gridStep(origin, d float64) (step int, next, delta float64) {
	if d == 0 {
		return 0, math.Inf(1), math.Inf(1)
	}
	delta = math.Abs(1 / d)
	if d > 0 {
		return 1, (math.Floor(origin) + 1 - origin) * delta, delta
	}
	return -1, (origin - math.Floor(origin)) * delta, delta
}
