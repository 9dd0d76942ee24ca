package render

import (
	"math"

	"glyphcaster/internal/game"
	"glyphcaster/internal/glyph"
	"glyphcaster/internal/mathutil"
	"glyphcaster/internal/raycast"
)

// traceColumn is the geometric half of pass 1 for one screen column. It
// writes only the column's own depth and hit slots.
func (r *Renderer) traceColumn(f *Frame, snap *game.Snapshot, x int) {
	cam := snap.Camera
	angle := raycast.RayAngle(cam.Angle, cam.FOV, x, f.width)
	hit := raycast.Cast(snap.Map, cam.X, cam.Y, angle)

	corrected := raycast.Corrected(hit.Distance, angle, cam.Angle)
	f.depth[x] = corrected
	f.hits[x] = columnHit{
		hit:       hit,
		rayAngle:  angle,
		corrected: corrected,
		light:     hit.Side,
	}
}

// resolveTexture finishes pass 1 for a traced column. It shares the frame's
// texture cache and must run on the render goroutine.
func (r *Renderer) resolveTexture(f *Frame, x int) {
	ch := &f.hits[x]
	name := ch.hit.Entry.Texture()
	if name == "" {
		return
	}
	ch.texture = f.texture(r.textures, name, r.cfg.TextureWidth, r.cfg.TextureHeight, ch.hit.Entry, ch.light)
	if ch.texture != nil {
		ch.texColumn = mathutil.Clamp(int(math.Floor(ch.hit.WallX*float64(ch.texture.Width()))), 0, ch.texture.Width()-1)
	}
}

// isEdge reports whether column x separates faces at different depths.
func (r *Renderer) isEdge(f *Frame, x int) bool {
	if x == 0 || x == f.width-1 {
		return true
	}
	c := f.hits[x].corrected
	return math.Abs(c-f.hits[x-1].corrected) > r.cfg.EdgeThreshold ||
		math.Abs(c-f.hits[x+1].corrected) > r.cfg.EdgeThreshold
}

// span rounds a continuous vertical range to the rows whose centres lie
// inside it, clamped to the screen.
func span(start, end float64, height int) (int, int) {
	from := mathutil.Clamp(int(math.Ceil(start-0.5)), 0, height)
	to := mathutil.Clamp(int(math.Ceil(end-0.5)), 0, height)
	return from, to
}

// drawColumn is pass 2 for one screen column: ceiling, wall, then floor.
func (r *Renderer) drawColumn(buf *glyph.Buffer, f *Frame, snap *game.Snapshot, x int) {
	ch := &f.hits[x]
	H := float64(f.height)

	projected := H / ch.corrected
	floorLine := H/2 + projected/2
	wallHeight := projected * ch.hit.Entry.Height()
	actualWallStart := floorLine - wallHeight
	actualWallEnd := floorLine

	wallStart, wallEnd := span(actualWallStart, actualWallEnd, f.height)

	for y := 0; y < wallStart; y++ {
		r.drawCeilingCell(buf, f, snap, ch, x, y)
	}

	edge := r.isEdge(f, x)
	for y := wallStart; y < wallEnd; y++ {
		cell := r.wallCell(ch, float64(y)+0.5, actualWallStart, wallHeight)
		if edge {
			cell = glyph.Cell{Rune: r.edgeGlyph, Fg: r.edgeColor, Bg: cell.Bg}
		}
		buf.Set(x, y, cell)
	}

	for y := wallEnd; y < f.height; y++ {
		r.drawFloorCell(buf, f, snap, ch, x, y)
	}
}

// wallCell samples the wall at screen row centre rowY. Texture rows are
// taken against the unclipped span so an off-screen top or bottom keeps the
// right slice.
func (r *Renderer) wallCell(ch *columnHit, rowY, actualWallStart, wallHeight float64) glyph.Cell {
	tile := ch.hit.Entry
	var cell glyph.Cell
	if ch.texture != nil {
		texH := ch.texture.Height()
		ty := mathutil.Clamp(int(math.Floor((rowY-actualWallStart)/wallHeight*float64(texH))), 0, texH-1)
		cell = ch.texture.CharAt(ch.texColumn, ty)
		cell.Bg = cell.Bg.Or(tile.BackgroundColor(!ch.light))
	} else {
		fg, bg := r.wallColors(tile, !ch.light)
		cell = glyph.Cell{Rune: tile.Glyph(), Fg: fg, Bg: bg}
	}
	return r.shade(cell, ch.hit.Distance)
}

// planePoint projects a perpendicular plane distance along the column's ray.
func planePoint(cam game.Camera, rayAngle, planeDistance float64) (wx, wy, dist float64) {
	dist = planeDistance / math.Cos(rayAngle-cam.Angle)
	return cam.X + math.Cos(rayAngle)*dist, cam.Y + math.Sin(rayAngle)*dist, dist
}

func cellOf(wx, wy float64) (int, int) {
	return int(math.Floor(wx)), int(math.Floor(wy))
}

func (r *Renderer) drawFloorCell(buf *glyph.Buffer, f *Frame, snap *game.Snapshot, ch *columnHit, x, y int) {
	denom := float64(2*y - f.height)
	if denom <= 0 {
		return
	}
	wx, wy, dist := planePoint(snap.Camera, ch.rayAngle, float64(f.height)/denom)
	tile := snap.Map.Entry(cellOf(wx, wy))

	var cell glyph.Cell
	if tex := f.texture(r.textures, tile.Texture(), r.cfg.TextureWidth, r.cfg.TextureHeight, tile, true); tex != nil {
		cell = tex.CharAt(fracIndex(wx, tex.Width()), fracIndex(wy, tex.Height()))
		cell.Bg = cell.Bg.Or(tile.BackgroundColor(false))
	} else {
		cell = glyph.Cell{Rune: tile.Glyph(), Fg: tile.Color(false), Bg: tile.BackgroundColor(false)}
	}
	cell = r.shade(cell, dist)
	cell.Bg = cell.Bg.Or(buf.At(x, y).Bg)
	buf.Set(x, y, cell)
}

// drawCeilingCell draws one ceiling row. The cell is found on the unit
// ceiling plane first; a tile with a different ceiling height moves the
// plane and is looked up again. Tiles without a ceiling leave the
// background untouched.
func (r *Renderer) drawCeilingCell(buf *glyph.Buffer, f *Frame, snap *game.Snapshot, ch *columnHit, x, y int) {
	denom := float64(f.height - 2*y)
	if denom <= 0 {
		return
	}
	base := float64(f.height) / denom
	wx, wy, dist := planePoint(snap.Camera, ch.rayAngle, base)
	tile := snap.Map.Entry(cellOf(wx, wy))
	if ceilingHeight := tile.CeilingHeight(); ceilingHeight != 1 {
		wx, wy, dist = planePoint(snap.Camera, ch.rayAngle, (2*ceilingHeight-1)*base)
		tile = snap.Map.Entry(cellOf(wx, wy))
	}
	if !tile.HasCeiling() {
		return
	}

	cell := glyph.Cell{
		Rune: tile.CeilingGlyph(),
		Fg:   tile.CeilingColor(false),
		Bg:   tile.CeilingBackgroundColor(false),
	}
	cell = r.shade(cell, dist)
	cell.Bg = cell.Bg.Or(buf.At(x, y).Bg)
	buf.Set(x, y, cell)
}

// fracIndex maps the fractional part of a world coordinate onto n texels.
func fracIndex(v float64, n int) int {
	return mathutil.Clamp(int(math.Floor((v-math.Floor(v))*float64(n))), 0, n-1)
}
