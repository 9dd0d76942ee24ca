package world

import (
	"testing"

	"glyphcaster/internal/config"
)

func boolPtr(b bool) *bool { return &b }

// testLegend is a wall ('#'), a floor ('.') and a walk-through bush ('*').
func testLegend(t *testing.T) Legend {
	t.Helper()
	tm := NewTileManager()
	err := tm.LoadTileData(map[string]config.TileData{
		"wall":  {Letter: "#", Wall: true, ColorLight: "#ffffff"},
		"floor": {Letter: ".", Ceiling: true},
		"bush":  {Letter: "*", Wall: true, WalkThrough: boolPtr(true), Transparent: true},
	})
	if err != nil {
		t.Fatalf("LoadTileData: %v", err)
	}
	return tm.Legend()
}
