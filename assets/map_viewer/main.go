// map_viewer checks a map against the tile legend and prints it top-down,
// or renders one frame from the spawn point, without opening a display.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"glyphcaster/internal/background"
	"glyphcaster/internal/config"
	"glyphcaster/internal/game"
	"glyphcaster/internal/glyph"
	"glyphcaster/internal/render"
	"glyphcaster/internal/texture"
	"glyphcaster/internal/world"
)

func main() {
	configPath := flag.String("config", "config.yaml", "configuration file")
	mapPath := flag.String("map", "", "map file (defaults to the configured map)")
	frame := flag.Bool("frame", false, "render a frame from the spawn point instead of the top-down view")
	angle := flag.Float64("angle", 0, "view angle in degrees for -frame")
	flag.Parse()

	ensureRuntimeCWD(*configPath)

	cfg := config.MustLoadConfig(*configPath)
	if *mapPath == "" {
		*mapPath = cfg.Assets.Map
	}

	tm := world.NewTileManager()
	if err := tm.LoadTileConfig(cfg.Assets.Tiles); err != nil {
		log.Fatalf("tile config: %v", err)
	}
	md, err := world.NewMapLoader(tm).LoadMap(*mapPath)
	if err != nil {
		log.Fatalf("map: %v", err)
	}

	if *frame {
		lines, err := renderFrame(cfg, md, *angle)
		if err != nil {
			log.Fatalf("render: %v", err)
		}
		fmt.Println(strings.Join(lines, "\n"))
		return
	}

	fmt.Printf("%s: %dx%d, spawn (%.1f, %.1f)\n\n", md.Map.Name(), md.Map.Width(), md.Map.Height(), md.StartX, md.StartY)
	for _, line := range topDown(md) {
		fmt.Println(line)
	}
	fmt.Println()
	for _, line := range legendLines(tm, md.Map) {
		fmt.Println(line)
	}
}

// topDown draws each cell with its tile's glyph and marks the spawn.
func topDown(md *world.MapData) []string {
	sx, sy := int(md.StartX), int(md.StartY)
	lines := make([]string, md.Map.Height())
	var sb strings.Builder
	for y := 0; y < md.Map.Height(); y++ {
		sb.Reset()
		for x := 0; x < md.Map.Width(); x++ {
			if x == sx && y == sy {
				sb.WriteRune(world.SpawnMarker)
				continue
			}
			sb.WriteRune(md.Map.Entry(x, y).Glyph())
		}
		lines[y] = sb.String()
	}
	return lines
}

// legendLines lists the tiles used by the map with their cell counts.
func legendLines(tm *world.TileManager, m world.MapProvider) []string {
	counts := make(map[*world.EntryInfo]int)
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			counts[m.Entry(x, y)]++
		}
	}

	lines := []string{"Legend:"}
	for _, key := range tm.Keys() {
		entry, _ := tm.Entry(key)
		n := counts[entry]
		if n == 0 {
			continue
		}
		letter, _ := tm.Letter(key)
		lines = append(lines, fmt.Sprintf("  %c  %-20s %5d cells", letter, entry.Name(), n))
	}
	return lines
}

func renderFrame(cfg *config.Config, md *world.MapData, angleDeg float64) ([]string, error) {
	patterns := texture.NewPatternProvider()
	if cfg.Assets.Textures != "" {
		if err := patterns.LoadPatterns(cfg.Assets.Textures); err != nil {
			return nil, err
		}
	}
	bg, err := background.New(cfg.Background, cfg.Camera.FieldOfView)
	if err != nil {
		return nil, err
	}
	r, err := render.NewRenderer(cfg, texture.NewRegistry(patterns), bg)
	if err != nil {
		return nil, err
	}

	cam := game.NewCamera(md.StartX, md.StartY, angleDeg*math.Pi/180, cfg.Camera.FieldOfView)
	buf := glyph.NewBuffer(cfg.Display.Columns, cfg.Display.Rows)
	r.Render(buf, game.Snapshot{Map: md.Map, Camera: cam})
	return buf.Lines(), nil
}

func ensureRuntimeCWD(configPath string) {
	if _, err := os.Stat(configPath); err == nil {
		return
	}
	exe, err := os.Executable()
	if err != nil {
		return
	}
	execDir := filepath.Dir(exe)
	_ = os.Chdir(execDir)
}
