package render

import (
	"math"
	"strings"
	"testing"

	"glyphcaster/internal/background"
	"glyphcaster/internal/config"
	"glyphcaster/internal/game"
	"glyphcaster/internal/glyph"
	"glyphcaster/internal/sprite"
	"glyphcaster/internal/texture"
	"glyphcaster/internal/threading/rendering"
	"glyphcaster/internal/world"
)

var skyCell = glyph.Cell{Rune: '~', Fg: glyph.Blue, Bg: glyph.RGB(0, 0, 40)}

var corridor = []string{
	"#########",
	"#.......#",
	"#.......#",
	"#.......#",
	"#########",
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Render.DimDistance = 100
	cfg.Render.FarDistance = 200
	return cfg
}

func testMap(t *testing.T, ceilings bool, wall config.TileData, rows []string) *world.GridMap {
	t.Helper()
	wall.Letter = "#"
	wall.Wall = true
	tm := world.NewTileManager()
	err := tm.LoadTileData(map[string]config.TileData{
		"wall":  wall,
		"floor": {Letter: ".", Ceiling: ceilings, CeilingGlyph: "^", ColorLight: "#808080"},
	})
	if err != nil {
		t.Fatalf("LoadTileData: %v", err)
	}
	m, err := world.NewGridMap("test", rows, tm.Legend())
	if err != nil {
		t.Fatalf("NewGridMap: %v", err)
	}
	return m
}

func newTestRenderer(t *testing.T, cfg *config.Config, textures texture.Provider) *Renderer {
	t.Helper()
	r, err := NewRenderer(cfg, textures, background.NewSolid(skyCell.Rune, skyCell.Fg, skyCell.Bg))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func snapshot(m world.MapProvider, x, y, angle float64, objects ...game.ObjectState) game.Snapshot {
	return game.Snapshot{Map: m, Camera: game.NewCamera(x, y, angle, math.Pi/3), Objects: objects}
}

func object(r rune, x, y, maxDist float64) game.ObjectState {
	s := sprite.MustGlyphSprite([]string{string(r)}, sprite.Style{Alpha: ' ', Foreground: glyph.White})
	return game.ObjectState{
		ID:                string(r),
		X:                 x,
		Y:                 y,
		Sprites:           sprite.Static{Sprite: s},
		Visible:           true,
		MaxRenderDistance: maxDist,
	}
}

func contains(buf *glyph.Buffer, r rune) bool {
	return strings.ContainsRune(strings.Join(buf.Lines(), "\n"), r)
}

// Without any ceiling, every cell above the horizon that no wall covers is
// exactly the background provider's cell.
func TestCeilinglessMapShowsBackground(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(t, cfg, nil)
	buf := glyph.NewBuffer(40, 20)
	edge := cfg.GetEdgeGlyph()

	r.Render(buf, snapshot(testMap(t, false, config.TileData{}, corridor), 1.5, 2.5, 0))

	sky := 0
	for y := 0; y < buf.Height()/2; y++ {
		for x := 0; x < buf.Width(); x++ {
			c := buf.At(x, y)
			switch c.Rune {
			case '~':
				if c != skyCell {
					t.Fatalf("cell (%d,%d) = %+v, want the background cell", x, y, c)
				}
				sky++
			case world.DefaultWallGlyph, edge:
			default:
				t.Fatalf("cell (%d,%d) = %q, expected background or wall", x, y, c.Rune)
			}
		}
	}
	if sky == 0 {
		t.Errorf("expected background cells above the walls")
	}

	// the same map with ceilings covers the top row
	r.Render(buf, snapshot(testMap(t, true, config.TileData{}, corridor), 1.5, 2.5, 0))
	if got := buf.At(20, 0).Rune; got != '^' {
		t.Errorf("ceiling row = %q, want '^'", got)
	}
}

func TestObjectBeyondRenderDistanceIsSkipped(t *testing.T) {
	r := newTestRenderer(t, testConfig(), nil)
	buf := glyph.NewBuffer(40, 20)
	m := testMap(t, false, config.TileData{}, corridor)

	tests := []struct {
		name    string
		maxDist float64
		want    bool
	}{
		{"beyond max distance", 2, false},
		{"within max distance", 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.Render(buf, snapshot(m, 1.5, 2.5, 0, object('X', 4.5, 2.5, tt.maxDist)))
			if got := contains(buf, 'X'); got != tt.want {
				t.Errorf("sprite drawn = %v, want %v", got, tt.want)
			}
		})
	}

	if m := r.Monitor().GetCurrentMetrics(); m.SpritesDrawn != 1 {
		t.Errorf("expected the last frame to draw one sprite, got %d", m.SpritesDrawn)
	}
}

func TestSpritesOutsideViewAreSkipped(t *testing.T) {
	r := newTestRenderer(t, testConfig(), nil)
	buf := glyph.NewBuffer(40, 20)
	m := testMap(t, false, config.TileData{}, corridor)

	hidden := object('H', 4.5, 2.5, 10)
	hidden.Visible = false
	behind := object('B', 1.2, 2.5, 10)
	side := object('S', 1.5, 3.5, 10)

	r.Render(buf, snapshot(m, 1.5, 2.5, 0, hidden, behind, side))
	for _, ch := range "HBS" {
		if contains(buf, ch) {
			t.Errorf("sprite %q should not be drawn", ch)
		}
	}
	if metrics := r.Monitor().GetCurrentMetrics(); metrics.SpritesCulled != 3 {
		t.Errorf("expected 3 culled sprites, got %d", metrics.SpritesCulled)
	}
}

func TestSpritesDrawnBackToFront(t *testing.T) {
	r := newTestRenderer(t, testConfig(), nil)
	buf := glyph.NewBuffer(40, 20)
	m := testMap(t, false, config.TileData{}, corridor)

	r.Render(buf, snapshot(m, 1.5, 2.5, 0,
		object('N', 3.5, 2.5, 10),
		object('F', 5.5, 2.5, 10),
	))
	if got := buf.At(20, 10).Rune; got != 'N' {
		t.Errorf("centre cell = %q, want the near sprite", got)
	}
}

func TestSpriteDepthTestIsStrict(t *testing.T) {
	r := newTestRenderer(t, testConfig(), nil)
	s := sprite.MustGlyphSprite([]string{"X"}, sprite.Style{Alpha: ' '})

	tests := []struct {
		name string
		perp float64
		want bool
	}{
		{"same depth as wall", 3.0, false},
		{"behind wall", 3.5, false},
		{"in front of wall", 2.999, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFrame()
			f.reset(10, 10)
			for i := range f.depth {
				f.depth[i] = 3.0
			}
			buf := glyph.NewBuffer(10, 10)
			buf.Clear(skyCell)

			job := &spriteJob{sprite: s, dist: tt.perp, perp: tt.perp}
			r.drawSprite(buf, f, math.Pi/3, job)
			if got := contains(buf, 'X'); got != tt.want {
				t.Errorf("drawn = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpriteDefaultBackgroundKeepsUnderlying(t *testing.T) {
	r := newTestRenderer(t, testConfig(), nil)
	f := newFrame()
	f.reset(10, 10)
	for i := range f.depth {
		f.depth[i] = 10
	}
	buf := glyph.NewBuffer(10, 10)
	buf.Clear(skyCell)

	s := sprite.MustGlyphSprite([]string{"X"}, sprite.Style{Alpha: ' ', Foreground: glyph.Red, Background: glyph.DefaultColor})
	r.drawSprite(buf, f, math.Pi/3, &spriteJob{sprite: s, dist: 2, perp: 2})

	c := buf.At(5, 5)
	if c.Rune != 'X' || c.Fg != glyph.Red {
		t.Fatalf("centre cell = %+v, want a red X", c)
	}
	if c.Bg != skyCell.Bg {
		t.Errorf("background = %+v, want the underlying %+v", c.Bg, skyCell.Bg)
	}
}

func TestEdgeDetection(t *testing.T) {
	r := newTestRenderer(t, testConfig(), nil)
	f := newFrame()
	f.reset(6, 4)
	for i, d := range []float64{5, 5, 5, 1, 1, 1} {
		f.hits[i].corrected = d
	}

	want := []bool{true, false, true, true, false, true}
	for x, w := range want {
		if got := r.isEdge(f, x); got != w {
			t.Errorf("isEdge(%d) = %v, want %v", x, got, w)
		}
	}
}

func TestEdgeColumnsOverdrawWall(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(t, cfg, nil)
	buf := glyph.NewBuffer(40, 20)
	r.Render(buf, snapshot(testMap(t, false, config.TileData{}, corridor), 1.5, 2.5, 0))

	if got := buf.At(0, 10).Rune; got != cfg.GetEdgeGlyph() {
		t.Errorf("first column wall = %q, want the edge glyph", got)
	}
	if got := buf.At(39, 10).Rune; got != cfg.GetEdgeGlyph() {
		t.Errorf("last column wall = %q, want the edge glyph", got)
	}
	if got := buf.At(20, 10).Rune; got != world.DefaultWallGlyph {
		t.Errorf("flat wall centre = %q, want the wall glyph", got)
	}
}

func TestWallSidesShadeDifferently(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(t, cfg, nil)
	buf := glyph.NewBuffer(40, 20)
	red := glyph.MustHex("#ff0000")
	m := testMap(t, false, config.TileData{ColorLight: "#ff0000"}, corridor)

	// facing +x the ray crosses a vertical gridline: light side
	r.Render(buf, snapshot(m, 1.5, 2.5, 0))
	if got := buf.At(20, 10).Fg; got != red {
		t.Errorf("vertical side colour = %+v, want %+v", got, red)
	}

	// facing +y it crosses a horizontal gridline: darkened fallback
	r.Render(buf, snapshot(m, 4.5, 2.5, math.Pi/2))
	want := red.Darken(cfg.Render.DarkSideFactor)
	if got := buf.At(20, 10).Fg; got != want {
		t.Errorf("horizontal side colour = %+v, want %+v", got, want)
	}
}

func TestExplicitDarkColourIsUsed(t *testing.T) {
	r := newTestRenderer(t, testConfig(), nil)
	buf := glyph.NewBuffer(40, 20)
	m := testMap(t, false, config.TileData{ColorLight: "#ff0000", ColorDark: "#00ff00"}, corridor)

	r.Render(buf, snapshot(m, 4.5, 2.5, math.Pi/2))
	if got := buf.At(20, 10).Fg; got != glyph.MustHex("#00ff00") {
		t.Errorf("dark side colour = %+v, want the explicit dark colour", got)
	}
}

func TestDistanceBands(t *testing.T) {
	cfg := testConfig()
	cfg.Render.DimDistance = 2
	cfg.Render.FarDistance = 5
	r := newTestRenderer(t, cfg, nil)

	c := glyph.Cell{Rune: '#', Fg: glyph.White, Bg: glyph.DefaultColor}
	if got := r.shade(c, 1); got != c {
		t.Errorf("near cell changed: %+v", got)
	}
	if got := r.shade(c, 3); got.Fg != glyph.White.Darken(cfg.Render.DimFactor) || !got.Bg.IsDefault() {
		t.Errorf("dim cell = %+v", got)
	}
	if got := r.shade(c, 6); got.Fg != glyph.Black || !got.Bg.IsDefault() {
		t.Errorf("far cell = %+v", got)
	}
}

func TestTexturedWallSamplesTextureColumn(t *testing.T) {
	pp := texture.NewPatternProvider()
	pp.Add("brick", texture.MustPattern([]string{"AB"}, glyph.White, glyph.DefaultColor), texture.ScaleToFit)

	r := newTestRenderer(t, testConfig(), pp)
	buf := glyph.NewBuffer(40, 20)
	m := testMap(t, false, config.TileData{Texture: "brick"}, corridor)

	r.Render(buf, snapshot(m, 1.5, 2.5, 0))
	// the centre ray hits the far wall half way along its face
	if got := buf.At(20, 10).Rune; got != 'B' {
		t.Errorf("centre wall texel = %q, want 'B'", got)
	}
	if got := buf.At(20, 10).Bg; got != glyph.DefaultColor {
		t.Errorf("texel background = %+v, want default", got)
	}
}

func TestFloorAndDepthBuffer(t *testing.T) {
	r := newTestRenderer(t, testConfig(), nil)
	buf := glyph.NewBuffer(40, 20)
	r.Render(buf, snapshot(testMap(t, false, config.TileData{}, corridor), 1.5, 2.5, 0))

	if got := buf.At(20, 19).Rune; got != '.' {
		t.Errorf("bottom row = %q, want floor", got)
	}

	depth := r.Depth()
	if len(depth) != 40 {
		t.Fatalf("depth has %d columns, want 40", len(depth))
	}
	if math.Abs(depth[20]-6.5) > 1e-9 {
		t.Errorf("centre depth = %v, want 6.5", depth[20])
	}
	depth[20] = 0
	if r.Depth()[20] == 0 {
		t.Errorf("Depth must return a copy")
	}

	// a narrower frame reallocates the depth buffer
	r.Render(glyph.NewBuffer(10, 20), snapshot(testMap(t, false, config.TileData{}, corridor), 1.5, 2.5, 0))
	if len(r.Depth()) != 10 {
		t.Errorf("depth not resized, %d columns", len(r.Depth()))
	}
}

func TestViewerOutsideMap(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(t, cfg, nil)
	buf := glyph.NewBuffer(12, 8)
	r.Render(buf, snapshot(testMap(t, false, config.TileData{}, corridor), -3, -3, 1))

	for y := 0; y < buf.Height(); y++ {
		for x := 0; x < buf.Width(); x++ {
			if c := buf.At(x, y).Rune; c != world.DefaultWallGlyph && c != cfg.GetEdgeGlyph() {
				t.Fatalf("cell (%d,%d) = %q, want boundary wall", x, y, c)
			}
		}
	}
}

type recordingSurface struct {
	cells map[[2]int]rune
}

func (s *recordingSurface) DrawStyledChar(x, y int, r rune, fg, bg glyph.Color) {
	s.cells[[2]int{x, y}] = r
}

func TestRenderToSurface(t *testing.T) {
	r := newTestRenderer(t, testConfig(), nil)
	s := &recordingSurface{cells: make(map[[2]int]rune)}
	r.RenderTo(s, 16, 8, game.Snapshot{Camera: game.NewCamera(0, 0, 0, math.Pi/3)})

	if len(s.cells) != 16*8 {
		t.Fatalf("surface got %d cells, want %d", len(s.cells), 16*8)
	}
	if s.cells[[2]int{3, 3}] != '~' {
		t.Errorf("a frame without a map is all background")
	}
}

func TestParallelCastMatchesSequential(t *testing.T) {
	pp := texture.NewPatternProvider()
	pp.Add("brick", texture.MustPattern([]string{"AB", "CD"}, glyph.White, glyph.DefaultColor), texture.ScaleToFit)
	m := testMap(t, true, config.TileData{Texture: "brick"}, corridor)
	snap := snapshot(m, 2.2, 1.7, 0.4, object('x', 5.5, 2.5, 20))

	seq := newTestRenderer(t, testConfig(), pp)
	want := glyph.NewBuffer(64, 24)
	seq.Render(want, snap)

	par := newTestRenderer(t, testConfig(), pp)
	pr := rendering.NewParallelRenderer(4)
	defer pr.Stop()
	par.SetParallel(pr)
	got := glyph.NewBuffer(64, 24)
	par.Render(got, snap)

	for y := 0; y < 24; y++ {
		for x := 0; x < 64; x++ {
			if got.At(x, y) != want.At(x, y) {
				t.Fatalf("cell (%d,%d) = %+v, want %+v", x, y, got.At(x, y), want.At(x, y))
			}
		}
	}
	wd, gd := seq.Depth(), par.Depth()
	for x := range wd {
		if wd[x] != gd[x] {
			t.Errorf("depth[%d] = %v, want %v", x, gd[x], wd[x])
		}
	}
}

// Close to a wall the span runs off both screen edges; texture rows are
// still measured from the unclipped top, so the visible rows are the middle
// of the texture rather than the whole texture squeezed on screen.
func TestNearWallSamplesUnclippedSpan(t *testing.T) {
	pp := texture.NewPatternProvider()
	pp.Add("stripes", texture.MustPattern([]string{"A", "B", "C", "D"}, glyph.White, glyph.DefaultColor), texture.ScaleToFit)
	cfg := testConfig()
	r := newTestRenderer(t, cfg, pp)
	buf := glyph.NewBuffer(40, 20)
	m := testMap(t, false, config.TileData{Texture: "stripes"}, corridor)

	r.Render(buf, snapshot(m, 7.7, 2.5, 0))

	H := float64(buf.Height())
	projected := H / 0.3
	actualWallStart := H/2 + projected/2 - projected
	texH := float64(cfg.Render.TextureHeight)
	stripe := func(y int) rune {
		texel := int(math.Floor((float64(y) + 0.5 - actualWallStart) / projected * texH))
		return rune('A' + texel*4/cfg.Render.TextureHeight)
	}

	if got, want := buf.At(20, 0).Rune, stripe(0); got != want || got != 'B' {
		t.Errorf("top row = %q, want %q from the unclipped span", got, want)
	}
	if got, want := buf.At(20, buf.Height()-1).Rune, stripe(buf.Height()-1); got != want || got != 'C' {
		t.Errorf("bottom row = %q, want %q", got, want)
	}
	for y := 0; y < buf.Height(); y++ {
		if c := buf.At(20, y).Rune; c == 'A' || c == 'D' {
			t.Fatalf("row %d shows %q; the outer stripes are off screen", y, c)
		}
	}
}

type textureRequest struct {
	name  string
	light bool
}

// countingProvider records every texture resolution.
type countingProvider struct {
	texture.Provider
	calls map[textureRequest]int
}

func (p *countingProvider) Texture(key string, width, height int, tile *world.EntryInfo, light bool) texture.Texture {
	p.calls[textureRequest{key, light}]++
	return p.Provider.Texture(key, width, height, tile, light)
}

func TestTexturesResolvedOncePerFrame(t *testing.T) {
	pp := texture.NewPatternProvider()
	pp.Add("brick", texture.MustPattern([]string{"AB", "CD"}, glyph.White, glyph.DefaultColor), texture.ScaleToFit)
	counter := &countingProvider{Provider: pp, calls: make(map[textureRequest]int)}

	r := newTestRenderer(t, testConfig(), counter)
	buf := glyph.NewBuffer(40, 20)
	m := testMap(t, false, config.TileData{Texture: "brick"}, corridor)
	// looking into a corner shows both a light and a dark face
	snap := snapshot(m, 5.5, 2.5, math.Pi/4)

	for frame := 1; frame <= 2; frame++ {
		r.Render(buf, snap)
		for _, light := range []bool{true, false} {
			if got := counter.calls[textureRequest{"brick", light}]; got != frame {
				t.Errorf("frame %d: brick light=%v resolved %d times, want %d", frame, light, got, frame)
			}
		}
	}
	if len(counter.calls) != 2 {
		t.Errorf("unexpected requests: %v", counter.calls)
	}
}

type emptySprites struct{}

func (emptySprites) SpriteForAngle(float64) sprite.Sprite { return nil }

func TestObjectWithoutSpriteIsSkipped(t *testing.T) {
	r := newTestRenderer(t, testConfig(), nil)
	buf := glyph.NewBuffer(40, 20)
	m := testMap(t, false, config.TileData{}, corridor)

	ghost := object('G', 3.5, 2.5, 10)
	ghost.Sprites = emptySprites{}

	r.Render(buf, snapshot(m, 1.5, 2.5, 0, ghost, object('X', 5.5, 2.5, 10)))

	if !contains(buf, 'X') {
		t.Error("the object behind the empty one should still be drawn")
	}
	if got := buf.At(20, 19).Rune; got != '.' {
		t.Errorf("floor row = %q, want the floor", got)
	}
	if got := buf.At(0, 10).Rune; got != testConfig().GetEdgeGlyph() {
		t.Errorf("wall column = %q, want the edge glyph", got)
	}
	metrics := r.Monitor().GetCurrentMetrics()
	if metrics.SpritesDrawn != 1 || metrics.SpritesCulled != 1 {
		t.Errorf("drawn/culled = %d/%d, want 1/1", metrics.SpritesDrawn, metrics.SpritesCulled)
	}
}
