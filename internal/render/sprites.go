package render

import (
	"math"
	"sort"

	"glyphcaster/internal/game"
	"glyphcaster/internal/glyph"
	"glyphcaster/internal/mathutil"
	"glyphcaster/internal/raycast"
	"glyphcaster/internal/sprite"
)

// spriteJob holds what the sprite pass needs to draw one object.
type spriteJob struct {
	obj    game.ObjectState
	sprite sprite.Sprite
	dist   float64 // Euclidean distance, for shading
	perp   float64 // camera-space depth, for the depth test
	offset float64 // angle from the view direction
}

// renderSprites is pass 3: cull, pick the angle variant, sort far to near
// and draw against the finished depth buffer.
func (r *Renderer) renderSprites(buf *glyph.Buffer, f *Frame, snap *game.Snapshot) (drawn, culled int) {
	cam := snap.Camera
	halfView := cam.FOV/2 + r.cfg.SpriteFOVMargin

	jobs := r.jobs[:0]
	for _, o := range snap.Objects {
		if !o.Visible || o.Sprites == nil {
			culled++
			continue
		}
		dist := o.DistanceTo(cam.X, cam.Y)
		if dist > o.MaxRenderDistance {
			culled++
			continue
		}
		offset := cam.AngleTo(o.X, o.Y)
		if math.Abs(offset) > halfView {
			culled++
			continue
		}
		perp := dist * math.Cos(offset)
		if perp <= raycast.MinDistance {
			culled++
			continue
		}
		s := o.Sprites.SpriteForAngle(o.RelativeAngle(cam.X, cam.Y))
		if s == nil || s.Width() <= 0 || s.Height() <= 0 {
			culled++
			continue
		}
		jobs = append(jobs, spriteJob{obj: o, sprite: s, dist: dist, perp: perp, offset: offset})
	}

	// Sort by camera-space depth, back to front
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].perp > jobs[j].perp
	})

	for i := range jobs {
		r.drawSprite(buf, f, cam.FOV, &jobs[i])
	}
	r.jobs = jobs
	return len(jobs), culled
}

// drawSprite scales the sprite to its projected size, standing on the floor
// line at its depth. A pixel is drawn only where the sprite is strictly
// nearer than the wall in that column.
func (r *Renderer) drawSprite(buf *glyph.Buffer, f *Frame, fov float64, job *spriteJob) {
	s := job.sprite
	W, H := float64(f.width), float64(f.height)
	sw, sh := s.Width(), s.Height()

	projected := H / job.perp
	height := projected * s.Scale()
	width := height * float64(sw) / float64(sh) * r.cfg.SpriteAspect
	if width <= 0 || height <= 0 {
		return
	}

	centerX := (job.offset + fov/2) / fov * W
	bottom := H/2 + projected/2 - job.obj.ZOffset*projected
	top := bottom - height
	left := centerX - width/2

	x0, x1 := span(left, left+width, f.width)
	y0, y1 := span(top, bottom, f.height)

	for x := x0; x < x1; x++ {
		if !(job.perp < f.depth[x]) {
			continue
		}
		sx := mathutil.Clamp(int(math.Floor((float64(x)+0.5-left)/width*float64(sw))), 0, sw-1)
		for y := y0; y < y1; y++ {
			sy := mathutil.Clamp(int(math.Floor((float64(y)+0.5-top)/height*float64(sh))), 0, sh-1)
			if s.IsTransparentAt(sx, sy) {
				continue
			}
			cell := glyph.Cell{
				Rune: s.CharAt(sx, sy),
				Fg:   s.ForegroundAt(sx, sy),
				Bg:   s.BackgroundAt(sx, sy),
			}
			cell = r.shade(cell, job.dist)
			// default background keeps whatever is behind the sprite
			cell.Bg = cell.Bg.Or(buf.At(x, y).Bg)
			buf.Set(x, y, cell)
		}
	}
}
