// Package action maps multiplexed events to the semantic commands the
// simulation loop dispatches.
package action

import (
	"fmt"

	"github.com/opd-ai/go-hillclimb/pkg/event"
	"github.com/opd-ai/go-hillclimb/pkg/input"
)

// Action is a semantic command derived from one event.
type Action int

// Every Action value. Dispatch sites switch over all of them.
const (
	None Action = iota
	Tick
	Quit
	Render
	Accelerate
	Deccelerate
)

var names = [...]string{
	None:        "None",
	Tick:        "Tick",
	Quit:        "Quit",
	Render:      "Render",
	Accelerate:  "Accelerate",
	Deccelerate: "Deccelerate",
}

func (a Action) String() string {
	if a >= 0 && int(a) < len(names) {
		return names[a]
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// keyTable is the binding of pressed keys to actions. Keys not listed map to None.
var keyTable = map[input.KeyEvent]Action{
	input.Char('q'):           Quit,
	input.Key(input.KeyRight): Accelerate,
	input.Key(input.KeyLeft):  Deccelerate,
}

// Translate maps ev to exactly one Action. Tick and Render pass straight
// through; key presses go through the key table; errors and anything that is
// not a press yield None.
func Translate(ev event.Event) Action {
	switch ev := ev.(type) {
	case event.Tick:
		return Tick
	case event.Render:
		return Render
	case event.Input:
		return TranslateKey(ev.Key)
	case event.Error:
		return None
	default:
		return None
	}
}

// TranslateKey looks k up in the key table.
func TranslateKey(k input.KeyEvent) Action {
	if k.Kind != input.Press {
		return None
	}
	if k.Code != input.KeyRune {
		k.Rune = 0
	}
	if a, ok := keyTable[k]; ok {
		return a
	}
	return None
}
