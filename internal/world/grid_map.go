package world

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrEmptyMap          = errors.New("map contains no rows")
	ErrInconsistentWidth = errors.New("map rows have inconsistent width")
	ErrUnknownTile       = errors.New("map uses a glyph missing from the legend")
)

// MapProvider answers tile lookups for the ray caster, the compositors and
// collision checks. Width and Height never change for a given provider;
// swapping maps swaps providers.
type MapProvider interface {
	// Entry returns the tile at (x, y). Coordinates outside the map yield a
	// synthetic wall, never nil.
	Entry(x, y int) *EntryInfo
	Width() int
	Height() int
	Name() string
}

// Legend maps map-file glyphs to tile descriptors.
type Legend map[rune]*EntryInfo

// GridMap is a fixed-size, immutable MapProvider built from text rows.
type GridMap struct {
	name   string
	width  int
	height int
	cells  []*EntryInfo
}

// NewGridMap builds a map from rows of legend glyphs. All rows must have the
// same number of glyphs.
func NewGridMap(name string, rows []string, legend Legend) (*GridMap, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyMap
	}

	width := utf8.RuneCountInString(rows[0])
	if width == 0 {
		return nil, ErrEmptyMap
	}
	for i, row := range rows {
		if got := utf8.RuneCountInString(row); got != width {
			return nil, fmt.Errorf("%w: line %d: expected %d, got %d", ErrInconsistentWidth, i+1, width, got)
		}
	}

	m := &GridMap{
		name:   name,
		width:  width,
		height: len(rows),
		cells:  make([]*EntryInfo, 0, width*len(rows)),
	}
	for y, row := range rows {
		x := 0
		for _, r := range row {
			entry, ok := legend[r]
			if !ok || entry == nil {
				return nil, fmt.Errorf("%w: %q at (%d, %d)", ErrUnknownTile, r, x, y)
			}
			m.cells = append(m.cells, entry)
			x++
		}
	}
	return m, nil
}

// MustGridMap is NewGridMap for literal maps known to be valid.
func MustGridMap(name string, rows []string, legend Legend) *GridMap {
	m, err := NewGridMap(name, rows, legend)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *GridMap) Entry(x, y int) *EntryInfo {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return OutOfBoundsEntry
	}
	return m.cells[y*m.width+x]
}

func (m *GridMap) Width() int   { return m.width }
func (m *GridMap) Height() int  { return m.height }
func (m *GridMap) Name() string { return m.name }

// InBounds reports whether (x, y) is a real cell of the map.
func InBounds(m MapProvider, x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width() && y < m.Height()
}
