// Package sink delivers composed glyph frames to a terminal, a desktop
// window or websocket viewers, and turns their input into commands.
package sink

import "glyphcaster/internal/glyph"

// Command is a player action decoded from sink input.
type Command int

const (
	CommandNone Command = iota
	CommandForward
	CommandBackward
	CommandTurnLeft
	CommandTurnRight
	CommandStrafeLeft
	CommandStrafeRight
	CommandInteract
	CommandRedraw
	CommandQuit
)

func (c Command) String() string {
	switch c {
	case CommandForward:
		return "forward"
	case CommandBackward:
		return "backward"
	case CommandTurnLeft:
		return "turn_left"
	case CommandTurnRight:
		return "turn_right"
	case CommandStrafeLeft:
		return "strafe_left"
	case CommandStrafeRight:
		return "strafe_right"
	case CommandInteract:
		return "interact"
	case CommandRedraw:
		return "redraw"
	case CommandQuit:
		return "quit"
	default:
		return "none"
	}
}

// RuneCommand maps the letter keys shared by every sink.
func RuneCommand(r rune) Command {
	switch r {
	case 'w', 'W':
		return CommandForward
	case 's', 'S':
		return CommandBackward
	case 'a', 'A':
		return CommandTurnLeft
	case 'd', 'D':
		return CommandTurnRight
	case 'q', 'Q':
		return CommandStrafeLeft
	case 'e', 'E':
		return CommandStrafeRight
	case ' ', 'f', 'F':
		return CommandInteract
	}
	return CommandNone
}

// Display is an interactive frame destination.
type Display interface {
	// Size reports the grid the next frame should be composed at.
	Size() (int, int)
	// Present shows a composed frame.
	Present(b *glyph.Buffer) error
	// Commands delivers decoded input until the display closes.
	Commands() <-chan Command
	Close()
}
