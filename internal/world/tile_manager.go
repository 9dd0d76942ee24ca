package world

import (
	"fmt"
	"os"
	"sort"
	"unicode/utf8"

	"glyphcaster/internal/config"

	"gopkg.in/yaml.v3"
)

type tileRecord struct {
	letter rune
	entry  *EntryInfo
}

// TileManager owns the tile definitions and the map letter legend.
type TileManager struct {
	byKey    map[string]tileRecord
	byLetter map[rune]string
}

func NewTileManager() *TileManager {
	return &TileManager{
		byKey:    make(map[string]tileRecord),
		byLetter: make(map[rune]string),
	}
}

// LoadTileConfig reads a YAML tile file and replaces the legend with it.
func (tm *TileManager) LoadTileConfig(filename string) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read tile config file: %w", err)
	}
	var file config.TileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse tile config %s: %w", filename, err)
	}
	return tm.LoadTileData(file.TileData)
}

// LoadTileData replaces the legend. On error the previous legend is kept.
// Keys are processed in sorted order so duplicate letters always blame the
// same tile.
func (tm *TileManager) LoadTileData(tiles map[string]config.TileData) error {
	byKey := make(map[string]tileRecord, len(tiles))
	byLetter := make(map[rune]string, len(tiles))

	for _, key := range sortedKeys(tiles) {
		def := tiles[key]
		if def.Name == "" {
			def.Name = key
		}
		if utf8.RuneCountInString(def.Letter) != 1 {
			return fmt.Errorf("tile %q: letter must be a single character, got %q", key, def.Letter)
		}
		letter, _ := utf8.DecodeRuneInString(def.Letter)
		switch prev, taken := byLetter[letter]; {
		case letter == SpawnMarker:
			return fmt.Errorf("tile %q: letter %q is reserved for the spawn marker", key, letter)
		case taken:
			return fmt.Errorf("tile %q: letter %q already used by %q", key, letter, prev)
		}

		entry, err := NewEntryInfo(def)
		if err != nil {
			return err
		}
		byKey[key] = tileRecord{letter: letter, entry: entry}
		byLetter[letter] = key
	}

	tm.byKey, tm.byLetter = byKey, byLetter
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Legend returns a fresh letter → descriptor map for building grids. The
// descriptors themselves are shared.
func (tm *TileManager) Legend() Legend {
	legend := make(Legend, len(tm.byLetter))
	for letter, key := range tm.byLetter {
		legend[letter] = tm.byKey[key].entry
	}
	return legend
}

func (tm *TileManager) Entry(key string) (*EntryInfo, bool) {
	rec, ok := tm.byKey[key]
	return rec.entry, ok
}

// Letter returns the map letter of a tile key.
func (tm *TileManager) Letter(key string) (rune, bool) {
	rec, ok := tm.byKey[key]
	return rec.letter, ok
}

// Keys lists every tile key, sorted.
func (tm *TileManager) Keys() []string {
	return sortedKeys(tm.byKey)
}
