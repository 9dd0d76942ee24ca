package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestLoadConfigYAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
display:
  columns: 80
render:
  edge_glyph: "|"
background:
  variant: starfield
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Display.Columns != 80 {
		t.Errorf("columns = %d, want 80", cfg.Display.Columns)
	}
	if cfg.Display.Rows != 40 {
		t.Errorf("rows = %d, want default 40", cfg.Display.Rows)
	}
	if cfg.GetEdgeGlyph() != '|' {
		t.Errorf("edge glyph = %q, want '|'", cfg.GetEdgeGlyph())
	}
	if cfg.Background.Variant != "starfield" {
		t.Errorf("variant = %q", cfg.Background.Variant)
	}
	if GlobalConfig != cfg {
		t.Error("GlobalConfig not updated")
	}
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[camera]
field_of_view = 1.2

[movement]
move_speed = 0.5
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if math.Abs(cfg.GetCameraFOV()-1.2) > 1e-9 {
		t.Errorf("fov = %f, want 1.2", cfg.GetCameraFOV())
	}
	if cfg.GetMoveSpeed() != 0.5 {
		t.Errorf("move speed = %f, want 0.5", cfg.GetMoveSpeed())
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"bad yaml", "c.yaml", "display: [", "failed to parse"},
		{"bad fov", "c.yaml", "camera:\n  field_of_view: 4\n", "field_of_view"},
		{"zero columns", "c.yaml", "display:\n  columns: 0\n", "display size"},
		{"dim beyond far", "c.yaml", "render:\n  dim_distance: 30\n  far_distance: 10\n", "far_distance"},
		{"weather range", "c.toml", "[background]\nweather_min_ticks = 10\nweather_max_ticks = 5\n", "weather_max_ticks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.file, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadConfig() error = %v, want containing %q", err, tt.want)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() of a missing file succeeded")
	}
}

func TestGlyphFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Render.EdgeGlyph = ""
	cfg.Background.Glyph = ""
	if cfg.GetEdgeGlyph() != '│' {
		t.Errorf("edge fallback = %q", cfg.GetEdgeGlyph())
	}
	if cfg.GetBackgroundGlyph() != ' ' {
		t.Errorf("background fallback = %q", cfg.GetBackgroundGlyph())
	}
}
