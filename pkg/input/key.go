// Package input turns the raw terminal key stream into KeyEvent values.
package input

import (
	"errors"
	"fmt"
)

// ErrSourceClosed is returned by a Source once it can never yield again.
var ErrSourceClosed = errors.New("input source closed")

// KeyCode identifies a key independent of the terminal library.
type KeyCode int

// Known key codes. KeyRune carries its character in KeyEvent.Rune.
const (
	KeyUnknown KeyCode = iota
	KeyRune
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeyCtrlC
)

var keyNames = map[KeyCode]string{
	KeyUnknown:   "Unknown",
	KeyRune:      "Rune",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyEnter:     "Enter",
	KeyEscape:    "Esc",
	KeyBackspace: "Backspace",
	KeyTab:       "Tab",
	KeyCtrlC:     "Ctrl+C",
}

func (k KeyCode) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KeyCode(%d)", int(k))
}

// KeyKind is the transition a key event reports.
type KeyKind int

const (
	Press KeyKind = iota
	Release
	Repeat
)

func (k KeyKind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	case Repeat:
		return "repeat"
	default:
		return fmt.Sprintf("KeyKind(%d)", int(k))
	}
}

// KeyEvent is one raw key transition.
type KeyEvent struct {
	Code KeyCode
	Rune rune
	Kind KeyKind
}

// Char builds a pressed rune key.
func Char(r rune) KeyEvent {
	return KeyEvent{Code: KeyRune, Rune: r, Kind: Press}
}

// Key builds a pressed special key.
func Key(code KeyCode) KeyEvent {
	return KeyEvent{Code: code, Kind: Press}
}

func (e KeyEvent) String() string {
	if e.Code == KeyRune {
		return fmt.Sprintf("%q %s", e.Rune, e.Kind)
	}
	return fmt.Sprintf("%s %s", e.Code, e.Kind)
}

// Source yields raw key events. ReadKey blocks until a key arrives or the
// source fails; once it returns ErrSourceClosed it keeps doing so.
type Source interface {
	ReadKey() (KeyEvent, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (KeyEvent, error)

// ReadKey calls f.
func (f SourceFunc) ReadKey() (KeyEvent, error) {
	return f()
}
