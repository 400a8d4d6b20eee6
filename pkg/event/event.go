// pkg/event/event.go
package event

import (
	"fmt"
	"time"

	"github.com/opd-ai/go-hillclimb/pkg/input"
)

// Event is the closed set of things the multiplexer delivers: Tick, Render,
// Input and Error. The unexported marker keeps other packages from adding
// variants, so a type switch over these four is exhaustive.
type Event interface {
	isEvent()
	fmt.Stringer
}

// Tick asks for one fixed-timestep simulation advance.
type Tick struct {
	At time.Time
}

// Render asks for a redraw from the current pose.
type Render struct {
	At time.Time
}

// Input carries one key press.
type Input struct {
	Key input.KeyEvent
}

// Error reports a failed read of the input source. It is never fatal.
type Error struct {
	Err error
}

func (Tick) isEvent() {}
func (Render) isEvent() {}
func (Input) isEvent() {}
func (Error) isEvent() {}

func (Tick) String() string { return "tick" }
func (Render) String() string { return "render" }
func (e Input) String() string { return "input(" + e.Key.String() + ")" }
func (e Error) String() string { return fmt.Sprintf("error(%v)", e.Err) }
