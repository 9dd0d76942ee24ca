package sink

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"glyphcaster/internal/glyph"
	"glyphcaster/internal/logging"
)

// Terminal renders frames with tcell and decodes key events.
type Terminal struct {
	screen   tcell.Screen
	mu       sync.Mutex
	commands chan Command
	quit     chan struct{}
	once     sync.Once
}

// NewTerminal creates a terminal sink on the controlling terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalWithScreen(screen), nil
}

// NewTerminalWithScreen wraps an existing screen, such as a simulation
// screen in tests.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{
		screen:   screen,
		commands: make(chan Command, 16),
		quit:     make(chan struct{}),
	}
}

// Init takes over the terminal and starts the event loop.
func (t *Terminal) Init() error {
	t.mu.Lock()
	if err := t.screen.Init(); err != nil {
		t.mu.Unlock()
		return err
	}
	t.screen.HideCursor()
	t.screen.Clear()
	t.mu.Unlock()

	go t.pollEvents()
	return nil
}

func (t *Terminal) pollEvents() {
	log := logging.For("terminal")
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}

		var cmd Command
		switch ev := ev.(type) {
		case *tcell.EventKey:
			cmd = KeyCommand(ev)
		case *tcell.EventResize:
			t.mu.Lock()
			t.screen.Sync()
			t.mu.Unlock()
			cmd = CommandRedraw
		}
		if cmd == CommandNone {
			continue
		}

		log.WithField("command", cmd).Debug("input")
		select {
		case t.commands <- cmd:
		case <-t.quit:
			return
		}
	}
}

// KeyCommand decodes a tcell key event.
func KeyCommand(ev *tcell.EventKey) Command {
	switch ev.Key() {
	case tcell.KeyUp:
		return CommandForward
	case tcell.KeyDown:
		return CommandBackward
	case tcell.KeyLeft:
		return CommandTurnLeft
	case tcell.KeyRight:
		return CommandTurnRight
	case tcell.KeyEnter:
		return CommandInteract
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return CommandQuit
	case tcell.KeyCtrlL:
		return CommandRedraw
	case tcell.KeyRune:
		return RuneCommand(ev.Rune())
	}
	return CommandNone
}

// Size implements Display.
func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

// DrawStyledChar implements glyph.Surface.
func (t *Terminal) DrawStyledChar(x, y int, r rune, fg, bg glyph.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.SetContent(x, y, r, nil, convertStyle(fg, bg))
}

// Present implements Display.
func (t *Terminal) Present(b *glyph.Buffer) error {
	b.CopyTo(t)
	t.Show()
	return nil
}

// Show flushes pending cells to the terminal.
func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Show()
}

// Commands implements Display.
func (t *Terminal) Commands() <-chan Command {
	return t.commands
}

// Close restores the terminal. It is safe to call more than once.
func (t *Terminal) Close() {
	t.once.Do(func() {
		close(t.quit)
		t.mu.Lock()
		defer t.mu.Unlock()
		t.screen.Fini()
	})
}

func convertStyle(fg, bg glyph.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(convertColor(fg)).Background(convertColor(bg))
}

func convertColor(c glyph.Color) tcell.Color {
	if c.IsDefault() {
		return tcell.ColorDefault
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
