package collision

import "testing"

// gridChecker reads cells from rows of text: '#' blocks and hides, '+'
// blocks but can be seen through, '|' can be walked through but hides.
type gridChecker []string

func (g gridChecker) cell(x, y int) byte { return g[y][x] }

func (g gridChecker) IsTileBlocking(x, y int) bool {
	c := g.cell(x, y)
	return c == '#' || c == '+'
}

func (g gridChecker) IsTileOpaque(x, y int) bool {
	c := g.cell(x, y)
	return c == '#' || c == '|'
}

func (g gridChecker) GetWorldBounds() (int, int) { return len(g[0]), len(g) }

func TestCanOccupy(t *testing.T) {
	cs := NewCollisionSystem(gridChecker{
		".....",
		"..+..",
		".....",
		".....",
		".....",
	})
	cs.RegisterEntity(NewEntity("barrel", 3.5, 3.5, 0.4, true))
	cs.RegisterEntity(NewEntity("ghost", 1.5, 3.5, 0.4, false))

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"open floor", 1.5, 1.5, true},
		{"blocking tile", 2.5, 1.5, false},
		{"left of map", -0.1, 1.5, false},
		{"below map", 1.5, 5.0, false},
		{"inside solid radius", 3.7, 3.5, false},
		{"just outside solid radius", 3.95, 3.5, true},
		{"non-solid entity", 1.5, 3.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cs.CanOccupy(tt.x, tt.y); got != tt.want {
				t.Errorf("CanOccupy(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestEntityLifecycle(t *testing.T) {
	cs := NewCollisionSystem(gridChecker{".....", ".....", ".....", ".....", "....."})
	cs.RegisterEntity(NewEntity("crate", 1.5, 1.5, 0.4, true))

	if cs.CanOccupy(1.5, 1.5) {
		t.Fatal("crate should block its centre")
	}

	cs.UpdateEntity("crate", 3.5, 3.5)
	cs.UpdateEntity("missing", 0.5, 0.5)
	if !cs.CanOccupy(1.5, 1.5) || cs.CanOccupy(3.5, 3.5) {
		t.Error("crate did not move")
	}

	cs.GetEntityByID("crate").Solid = false
	if !cs.CanOccupy(3.5, 3.5) {
		t.Error("non-solid crate still blocks")
	}

	cs.UnregisterEntity("crate")
	if cs.GetEntityByID("crate") != nil {
		t.Error("crate still registered")
	}
}

func TestUpdateTileChecker(t *testing.T) {
	cs := NewCollisionSystem(gridChecker{"...", "...", "..."})
	cs.RegisterEntity(NewEntity("keep", 0.5, 0.5, 0.2, true))

	cs.UpdateTileChecker(gridChecker{"#"})
	if cs.CanOccupy(1.5, 1.5) {
		t.Error("old map bounds still used")
	}
	if cs.GetEntityByID("keep") == nil {
		t.Error("entities dropped on map swap")
	}
}

func TestGetNearbyEntities(t *testing.T) {
	cs := NewCollisionSystem(gridChecker{"..........", ".........."})
	cs.RegisterEntity(NewEntity("far", 4, 1, 0.3, false))
	cs.RegisterEntity(NewEntity("near-b", 2, 1, 0.3, false))
	cs.RegisterEntity(NewEntity("near-a", 1, 2, 0.3, false))
	cs.RegisterEntity(NewEntity("self", 1, 1, 0.3, false))
	cs.RegisterEntity(NewEntity("outside", 9, 9, 0.3, false))

	got := cs.GetNearbyEntities(1, 1, 4, "self")
	want := []string{"near-a", "near-b", "far"}
	if len(got) != len(want) {
		t.Fatalf("got %d entities, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.ID != want[i] {
			t.Errorf("entity %d = %s, want %s", i, e.ID, want[i])
		}
	}
}

func TestCheckLineOfSight(t *testing.T) {
	cs := NewCollisionSystem(gridChecker{
		"....#.....",
		"..........",
		"..+.......",
		"......|...",
		"..........",
	})

	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		want           bool
	}{
		{"same cell", 1.2, 1.2, 1.8, 1.7, true},
		{"clear row", 0.5, 1.5, 8.5, 1.5, true},
		{"wall in row", 0.5, 0.5, 8.5, 0.5, false},
		{"see-through blocker", 0.5, 2.5, 8.5, 2.5, true},
		{"walkable but opaque", 0.5, 3.5, 8.5, 3.5, false},
		{"diagonal clear", 0.5, 4.5, 3.5, 1.5, true},
		{"diagonal into wall", 1.5, 3.5, 4.5, 0.5, false},
		{"vertical", 6.5, 0.5, 6.5, 2.5, true},
		{"leaves map", 0.5, 1.5, 12, 1.5, false},
		{"ends on boundary", 0.5, 1.5, 3.0, 1.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cs.CheckLineOfSight(tt.x1, tt.y1, tt.x2, tt.y2); got != tt.want {
				t.Errorf("CheckLineOfSight(%v,%v -> %v,%v) = %v, want %v", tt.x1, tt.y1, tt.x2, tt.y2, got, tt.want)
			}
		})
	}
}
