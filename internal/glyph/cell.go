package glyph

// Cell is one styled character of the output grid.
type Cell struct {
	Rune rune
	Fg   Color
	Bg   Color
}

// EmptyCell is a blank cell in default colours.
var EmptyCell = Cell{Rune: ' ', Fg: DefaultColor, Bg: DefaultColor}

// Surface receives styled characters. The terminal sink implements it, as
// does Buffer.
type Surface interface {
	DrawStyledChar(x, y int, r rune, fg, bg Color)
}
