package glyph

import "strings"

// Buffer is a flat row-major cell grid.
type Buffer struct {
	cells  []Cell
	width  int
	height int
}

// NewBuffer creates a buffer with the specified dimensions
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{}
	b.Resize(width, height)
	return b
}

// Resize adjusts buffer dimensions, reallocates only if capacity insufficient
func (b *Buffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	size := width * height
	if cap(b.cells) < size {
		b.cells = make([]Cell, size)
	} else {
		b.cells = b.cells[:size]
	}
	b.width = width
	b.height = height
	b.Clear(EmptyCell)
}

// Clear fills every cell using exponential copy
func (b *Buffer) Clear(c Cell) {
	if len(b.cells) == 0 {
		return
	}
	b.cells[0] = c
	for filled := 1; filled < len(b.cells); filled *= 2 {
		copy(b.cells[filled:], b.cells[:filled])
	}
}

func (b *Buffer) Width() int  { return b.width }
func (b *Buffer) Height() int { return b.height }

func (b *Buffer) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Set writes a cell; out-of-range writes are ignored.
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.inBounds(x, y) {
		return
	}
	b.cells[y*b.width+x] = c
}

// At returns the cell at (x, y), or EmptyCell when out of range.
func (b *Buffer) At(x, y int) Cell {
	if !b.inBounds(x, y) {
		return EmptyCell
	}
	return b.cells[y*b.width+x]
}

// DrawStyledChar implements Surface.
func (b *Buffer) DrawStyledChar(x, y int, r rune, fg, bg Color) {
	b.Set(x, y, Cell{Rune: r, Fg: fg, Bg: bg})
}

// CopyTo pushes every cell into a surface.
func (b *Buffer) CopyTo(s Surface) {
	for y := 0; y < b.height; y++ {
		row := b.cells[y*b.width : (y+1)*b.width]
		for x, c := range row {
			s.DrawStyledChar(x, y, c.Rune, c.Fg, c.Bg)
		}
	}
}

// Lines returns the runes of each row, without styling.
func (b *Buffer) Lines() []string {
	lines := make([]string, b.height)
	var sb strings.Builder
	for y := 0; y < b.height; y++ {
		sb.Reset()
		for _, c := range b.cells[y*b.width : (y+1)*b.width] {
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			sb.WriteRune(r)
		}
		lines[y] = sb.String()
	}
	return lines
}
