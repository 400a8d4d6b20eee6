package input

import (
	"errors"

	"github.com/gdamore/tcell/v2"
)

// EventPoller is the part of tcell.Screen the terminal source needs.
type EventPoller interface {
	PollEvent() tcell.Event
}

// TerminalSource reads key presses from a tcell screen. Terminals only report
// presses, so every event it yields has Kind Press. Resize, mouse and paste
// events are skipped.
type TerminalSource struct {
	screen EventPoller
}

// NewTerminalSource creates a source reading from screen.
func NewTerminalSource(screen EventPoller) *TerminalSource {
	return &TerminalSource{screen: screen}
}

// ReadKey implements Source.
func (s *TerminalSource) ReadKey() (KeyEvent, error) {
	for {
		ev := s.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			// PollEvent returns nil once the screen is finalized.
			return KeyEvent{}, ErrSourceClosed
		case *tcell.EventKey:
			return translateKey(ev), nil
		case *tcell.EventError:
			return KeyEvent{}, errors.New(ev.Error())
		}
	}
}

func translateKey(ev *tcell.EventKey) KeyEvent {
	out := KeyEvent{Kind: Press}
	switch ev.Key() {
	case tcell.KeyRune:
		out.Code = KeyRune
		out.Rune = ev.Rune()
	case tcell.KeyLeft:
		out.Code = KeyLeft
	case tcell.KeyRight:
		out.Code = KeyRight
	case tcell.KeyUp:
		out.Code = KeyUp
	case tcell.KeyDown:
		out.Code = KeyDown
	case tcell.KeyEnter:
		out.Code = KeyEnter
	case tcell.KeyEscape:
		out.Code = KeyEscape
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		out.Code = KeyBackspace
	case tcell.KeyTab:
		out.Code = KeyTab
	case tcell.KeyCtrlC:
		out.Code = KeyCtrlC
	default:
		out.Code = KeyUnknown
	}
	return out
}
