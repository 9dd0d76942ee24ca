package game

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"glyphcaster/internal/config"
	"glyphcaster/internal/sprite"
	"glyphcaster/internal/world"
)

func boolPtr(b bool) *bool { return &b }

func testMap(t *testing.T, rows ...string) *world.GridMap {
	t.Helper()
	tm := world.NewTileManager()
	err := tm.LoadTileData(map[string]config.TileData{
		"wall":  {Letter: "#", Wall: true},
		"floor": {Letter: "."},
		"bush":  {Letter: "*", Wall: true, WalkThrough: boolPtr(true)},
		"water": {Letter: "~", WalkThrough: boolPtr(false)},
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

func newTestScene(t *testing.T, x, y, angle float64, rows ...string) *Scene {
	t.Helper()
	cfg := config.DefaultConfig()
	return NewScene(testMap(t, rows...), NewCamera(x, y, angle, math.Pi/3), cfg.Movement)
}

func TestIsValidPosition(t *testing.T) {
	s := newTestScene(t, 1.5, 1.5, 0,
		"######",
		"#..*~#",
		"#....#",
		"######",
	)
	crate := NewGameObject("crate", 2.5, 2.5, nil)
	crate.Solid = true
	s.AddObject(crate)
	ghost := NewGameObject("ghost", 4.5, 2.5, nil)
	s.AddObject(ghost)

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"floor", 1.5, 1.5, true},
		{"wall", 0.5, 0.5, false},
		{"walk-through wall", 3.5, 1.5, true},
		{"blocking floor", 4.5, 1.5, false},
		{"outside map", -1, 1.5, false},
		{"far outside map", 40, 40, false},
		{"near solid object", 2.7, 2.5, false},
		{"on non-solid object", 4.5, 2.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsValidPosition(tt.x, tt.y); got != tt.want {
				t.Errorf("IsValidPosition(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestMovePlayerBlockedAndSliding(t *testing.T) {
	s := newTestScene(t, 1.5, 1.5, 0,
		"####",
		"#..#",
		"#..#",
		"####",
	)

	if !s.MovePlayer(1) {
		t.Fatalf("expected move into open floor")
	}
	if cam := s.Camera(); math.Abs(cam.X-2.5) > 1e-9 || math.Abs(cam.Y-1.5) > 1e-9 {
		t.Fatalf("camera at (%v, %v), want (2.5, 1.5)", cam.X, cam.Y)
	}

	// straight into the east wall
	if s.MovePlayer(1) {
		t.Errorf("move into a wall should be rejected")
	}
	if cam := s.Camera(); cam.X != 2.5 {
		t.Errorf("rejected move changed position to %v", cam.X)
	}

	// diagonal into the east wall slides along y
	s.RotatePlayer(math.Pi / 4)
	if !s.MovePlayer(0.9) {
		t.Fatalf("diagonal move should slide along the wall")
	}
	cam := s.Camera()
	if cam.X != 2.5 || cam.Y <= 1.5 {
		t.Errorf("expected slide along y, camera at (%v, %v)", cam.X, cam.Y)
	}
}

func TestStrafeAndRotate(t *testing.T) {
	s := newTestScene(t, 2.5, 2.5, 0,
		"#####",
		"#...#",
		"#...#",
		"#...#",
		"#####",
	)

	// facing +x, right is +y
	if !s.StrafePlayer(1) {
		t.Fatalf("strafe should succeed")
	}
	if cam := s.Camera(); math.Abs(cam.Y-3.5) > 1e-9 || math.Abs(cam.X-2.5) > 1e-9 {
		t.Errorf("strafe right went to (%v, %v)", cam.X, cam.Y)
	}

	s.RotatePlayer(-math.Pi / 2)
	if a := s.Camera().Angle; math.Abs(a-3*math.Pi/2) > 1e-9 {
		t.Errorf("angle = %v, want 3π/2", a)
	}
	s.RotatePlayer(5 * math.Pi)
	if a := s.Camera().Angle; a < 0 || a >= 2*math.Pi {
		t.Errorf("angle %v outside [0, 2π)", a)
	}
}

func TestMovePlayerBlockedBySolidObject(t *testing.T) {
	s := newTestScene(t, 1.5, 1.5, 0,
		"######",
		"#....#",
		"######",
	)
	pillar := NewGameObject("pillar", 3, 1.5, nil)
	pillar.Solid = true
	s.AddObject(pillar)

	if s.MovePlayer(1.2) {
		t.Errorf("move into a solid object should be rejected")
	}
	if !s.RemoveObject(pillar.ID) {
		t.Fatalf("RemoveObject should find the pillar")
	}
	if !s.MovePlayer(1.2) {
		t.Errorf("move should succeed once the pillar is gone")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestScene(t, 1.5, 1.5, 0,
		"#####",
		"#...#",
		"#####",
	)
	o := NewGameObject("lamp", 2.5, 1.5, nil)
	s.AddObject(o)

	snap := s.Snapshot()
	s.UpdateObject(o.ID, func(o *GameObject) { o.X = 3.5 })
	s.MovePlayer(0.5)

	if snap.Objects[0].X != 2.5 {
		t.Errorf("snapshot object moved to %v", snap.Objects[0].X)
	}
	if snap.Camera.X != 1.5 {
		t.Errorf("snapshot camera moved to %v", snap.Camera.X)
	}
	if got := s.Objects()[0].X; got != 3.5 {
		t.Errorf("live object X = %v, want 3.5", got)
	}
}

func TestSetMapRelocatesDisplacedViewer(t *testing.T) {
	s := newTestScene(t, 2.5, 1.5, 0,
		"#####",
		"#...#",
		"#####",
	)
	walled := testMap(t,
		"#####",
		"#.###",
		"#####",
	)
	s.SetMap(walled, 1.5, 1.5)
	if cam := s.Camera(); cam.X != 1.5 || cam.Y != 1.5 {
		t.Errorf("viewer should move to spawn, at (%v, %v)", cam.X, cam.Y)
	}
	if s.Map() != walled {
		t.Errorf("map was not swapped")
	}
}

func TestInteractable(t *testing.T) {
	s := newTestScene(t, 1.5, 1.5, 0,
		"#######",
		"#.....#",
		"#.#...#",
		"#######",
	)
	behind := NewGameObject("behind", 0.9, 1.5, nil)
	behind.Interactable = true
	s.AddObject(behind)

	near := NewGameObject("sign", 2.5, 1.5, nil)
	near.Interactable = true
	s.AddObject(near)

	far := NewGameObject("chest", 3.5, 1.5, nil)
	far.Interactable = true
	s.AddObject(far)

	got, ok := s.Interactable(3)
	if !ok || got.ID != near.ID {
		t.Fatalf("expected the sign in front, got %+v (%v)", got, ok)
	}

	s.RemoveObject(near.ID)
	got, ok = s.Interactable(3)
	if !ok || got.ID != far.ID {
		t.Fatalf("expected the chest, got %+v (%v)", got, ok)
	}
	if _, ok := s.Interactable(1.5); ok {
		t.Errorf("chest is out of range")
	}
}

func TestObjectRelativeAngle(t *testing.T) {
	o := ObjectState{X: 0, Y: 0, Orientation: 0}
	// viewer on +x looking back at an object facing +x: viewer→object is π
	if got := o.RelativeAngle(5, 0); math.Abs(got-math.Pi) > 1e-9 {
		t.Errorf("RelativeAngle = %v, want π", got)
	}
	if sprite.Bucket(o.RelativeAngle(5, 0), 8) != 0 {
		t.Errorf("object facing the viewer should use variant 0")
	}
	if got := o.DistanceTo(3, 4); got != 5 {
		t.Errorf("DistanceTo = %v, want 5", got)
	}
}

func TestLoadObjects(t *testing.T) {
	src := `objects:
  - name: statue
    sprite: statue
    x: 3.5
    y: 2.5
    facing: 90
    solid: true
  - sprite: missing
    x: 1
    y: 1
    hidden: true
    max_render_distance: 4
`
	path := filepath.Join(t.TempDir(), "objects.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	sm := sprite.NewManager()
	sm.Add("statue", sprite.Static{Sprite: sprite.MustGlyphSprite([]string{"S"}, sprite.Style{})})

	objects, err := LoadObjects(path, sm)
	if err != nil {
		t.Fatalf("LoadObjects: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objects))
	}

	statue := objects[0]
	if statue.Name != "statue" || !statue.Solid || !statue.Visible {
		t.Errorf("statue loaded wrong: %+v", statue)
	}
	if math.Abs(statue.Orientation-math.Pi/2) > 1e-9 {
		t.Errorf("facing 90 should be π/2, got %v", statue.Orientation)
	}
	if statue.MaxRenderDistance != DefaultMaxRenderDistance {
		t.Errorf("default render distance not applied")
	}

	other := objects[1]
	if other.Name != "missing" || other.Visible || other.MaxRenderDistance != 4 {
		t.Errorf("second object loaded wrong: %+v", other)
	}
	if other.Sprites.SpriteForAngle(0) == nil {
		t.Errorf("unknown sprite should resolve to the placeholder")
	}
	if statue.ID == other.ID || statue.ID == "" {
		t.Errorf("objects need distinct IDs")
	}
}

func TestLoadObjectsErrors(t *testing.T) {
	if _, err := LoadObjects(filepath.Join(t.TempDir(), "none.yaml"), sprite.NewManager()); err == nil {
		t.Errorf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("objects:\n  - x: 1\n"), 0o644)
	if _, err := LoadObjects(path, sprite.NewManager()); err == nil {
		t.Errorf("expected error for object without sprite")
	}
}
