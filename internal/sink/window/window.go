// Package window shows glyph frames in a desktop window using ebiten.
package window

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/gomono"

	"glyphcaster/internal/config"
	"glyphcaster/internal/glyph"
	"glyphcaster/internal/logging"
	"glyphcaster/internal/sink"
)

// Held keys repeat after repeatDelay ticks, then every repeatEvery ticks.
const (
	repeatDelay = 12
	repeatEvery = 4
)

var keyBindings = []struct {
	key ebiten.Key
	cmd sink.Command
}{
	{ebiten.KeyUp, sink.CommandForward},
	{ebiten.KeyW, sink.CommandForward},
	{ebiten.KeyDown, sink.CommandBackward},
	{ebiten.KeyS, sink.CommandBackward},
	{ebiten.KeyLeft, sink.CommandTurnLeft},
	{ebiten.KeyA, sink.CommandTurnLeft},
	{ebiten.KeyRight, sink.CommandTurnRight},
	{ebiten.KeyD, sink.CommandTurnRight},
	{ebiten.KeyQ, sink.CommandStrafeLeft},
	{ebiten.KeyE, sink.CommandStrafeRight},
	{ebiten.KeySpace, sink.CommandInteract},
	{ebiten.KeyEnter, sink.CommandInteract},
}

// Window is an ebiten.Game drawing the latest presented frame as a grid of
// monospace glyphs.
type Window struct {
	title     string
	resizable bool

	face  *text.GoTextFace
	cellW float64
	cellH float64

	mu    sync.Mutex
	frame *glyph.Buffer
	cols  int
	rows  int

	commands  chan sink.Command
	closeOnce sync.Once
	closed    chan struct{}
}

// New loads the embedded Go Mono face and sizes the window for the
// configured grid.
func New(cfg config.DisplayConfig) (*Window, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	if err != nil {
		return nil, fmt.Errorf("failed to load mono font: %w", err)
	}
	face := &text.GoTextFace{Source: src, Size: cfg.FontSize}
	m := face.Metrics()

	w := &Window{
		title:     cfg.WindowTitle,
		resizable: cfg.Resizable,
		face:      face,
		cellW:     text.Advance("M", face),
		cellH:     m.HAscent + m.HDescent,
		frame:     glyph.NewBuffer(0, 0),
		cols:      cfg.Columns,
		rows:      cfg.Rows,
		commands:  make(chan sink.Command, 16),
		closed:    make(chan struct{}),
	}
	return w, nil
}

// Run opens the window and blocks until it is closed. It must be called
// from the main goroutine.
func (w *Window) Run() error {
	w.mu.Lock()
	width := int(float64(w.cols) * w.cellW)
	height := int(float64(w.rows) * w.cellH)
	w.mu.Unlock()

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(w.title)
	if w.resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}

	logging.For("window").WithField("size", fmt.Sprintf("%dx%d", width, height)).Info("opening window")
	err := ebiten.RunGame(w)
	w.Close()
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	select {
	case <-w.closed:
		return ebiten.Termination
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.emit(sink.CommandQuit)
		return ebiten.Termination
	}
	for _, b := range keyBindings {
		d := inpututil.KeyPressDuration(b.key)
		if d == 1 || (d > repeatDelay && d%repeatEvery == 0) {
			w.emit(b.cmd)
		}
	}
	return nil
}

func (w *Window) emit(cmd sink.Command) {
	select {
	case w.commands <- cmd:
	default:
	}
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	w.mu.Lock()
	defer w.mu.Unlock()

	for y := 0; y < w.frame.Height(); y++ {
		for x := 0; x < w.frame.Width(); x++ {
			c := w.frame.At(x, y)
			px := float64(x) * w.cellW
			py := float64(y) * w.cellH
			if !c.Bg.IsDefault() {
				vector.DrawFilledRect(screen, float32(px), float32(py), float32(w.cellW), float32(w.cellH), c.Bg, false)
			}
			if c.Rune == 0 || c.Rune == ' ' {
				continue
			}
			op := &text.DrawOptions{}
			op.GeoM.Translate(px, py)
			op.ColorScale.ScaleWithColor(c.Fg.Or(glyph.White))
			text.Draw(screen, string(c.Rune), w.face, op)
		}
	}
}

// Layout implements ebiten.Game. The grid follows the window size.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.mu.Lock()
	w.cols = max(1, int(float64(outsideWidth)/w.cellW))
	w.rows = max(1, int(float64(outsideHeight)/w.cellH))
	w.mu.Unlock()
	return outsideWidth, outsideHeight
}

// Size implements sink.Display.
func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cols, w.rows
}

// Present implements sink.Display by copying the frame for the next Draw.
func (w *Window) Present(b *glyph.Buffer) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.frame.Width() != b.Width() || w.frame.Height() != b.Height() {
		w.frame.Resize(b.Width(), b.Height())
	}
	b.CopyTo(w.frame)
	return nil
}

// Commands implements sink.Display.
func (w *Window) Commands() <-chan sink.Command {
	return w.commands
}

// Close asks the game loop to stop.
func (w *Window) Close() {
	w.closeOnce.Do(func() {
		close(w.closed)
	})
}
