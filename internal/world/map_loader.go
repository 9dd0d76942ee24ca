package world

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"glyphcaster/internal/logging"

	"github.com/sirupsen/logrus"
)

// SpawnMarker marks the viewer's start cell in a map file.
const SpawnMarker = '@'

// DefaultSpawnTile is the tile key placed under the spawn marker.
const DefaultSpawnTile = "floor"

// MapLoader turns text maps into grids using a tile legend.
type MapLoader struct {
	tiles     *TileManager
	spawnTile string
}

// MapData is a parsed grid plus the viewer start, centred in its cell.
type MapData struct {
	Map    *GridMap
	StartX float64
	StartY float64
}

// NewMapLoader creates a new map loader over a tile legend
func NewMapLoader(tiles *TileManager) *MapLoader {
	return &MapLoader{
		tiles:     tiles,
		spawnTile: DefaultSpawnTile,
	}
}

// WithSpawnTile sets the tile key written under the spawn marker.
func (ml *MapLoader) WithSpawnTile(key string) *MapLoader {
	ml.spawnTile = key
	return ml
}

// LoadMap parses a map file; the map is named after the file stem.
func (ml *MapLoader) LoadMap(mapPath string) (*MapData, error) {
	file, err := os.Open(mapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file %s: %w", mapPath, err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(mapPath), filepath.Ext(mapPath))
	return ml.ParseMap(name, file)
}

// ParseMap reads map rows from r. Blank lines and lines starting with "//"
// are skipped.
func (ml *MapLoader) ParseMap(name string, r io.Reader) (*MapData, error) {
	var lines []string
	spawnX, spawnY := -1, -1

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if idx := strings.IndexRune(line, SpawnMarker); idx >= 0 {
			if spawnX >= 0 {
				return nil, fmt.Errorf("line %d: duplicate spawn marker", len(lines)+1)
			}
			letter, err := ml.spawnLetter()
			if err != nil {
				return nil, err
			}
			spawnX = utf8.RuneCountInString(line[:idx])
			spawnY = len(lines)
			line = strings.Replace(line, string(SpawnMarker), string(letter), 1)
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading map file: %w", err)
	}

	m, err := NewGridMap(name, lines, ml.tiles.Legend())
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", name, err)
	}

	data := &MapData{Map: m}
	if spawnX >= 0 {
		data.StartX = float64(spawnX) + 0.5
		data.StartY = float64(spawnY) + 0.5
	} else {
		x, y, ok := firstWalkable(m)
		if !ok {
			return nil, fmt.Errorf("map %s has no walkable cell", name)
		}
		data.StartX, data.StartY = float64(x)+0.5, float64(y)+0.5
	}

	logging.For("map_loader").WithFields(logrus.Fields{
		"map":    name,
		"width":  m.Width(),
		"height": m.Height(),
	}).Debug("map loaded")

	return data, nil
}

func (ml *MapLoader) spawnLetter() (rune, error) {
	letter, ok := ml.tiles.Letter(ml.spawnTile)
	if !ok {
		return 0, fmt.Errorf("spawn tile %q is not in the legend", ml.spawnTile)
	}
	return letter, nil
}

func firstWalkable(m MapProvider) (int, int, bool) {
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.Entry(x, y).IsWalkThrough() {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}
