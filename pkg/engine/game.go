// pkg/engine/game.go
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-hillclimb/pkg/action"
	"github.com/opd-ai/go-hillclimb/pkg/event"
	"github.com/opd-ai/go-hillclimb/pkg/logging"
	"github.com/opd-ai/go-hillclimb/pkg/vehicle"
)

// GameStatus is the lifecycle state of the loop.
type GameStatus int32

const (
	GameStatusWaiting GameStatus = iota
	GameStatusRunning
	GameStatusEnded
)

func (s GameStatus) String() string {
	switch s {
	case GameStatusWaiting:
		return "waiting"
	case GameStatusRunning:
		return "running"
	default:
		return "ended"
	}
}

// EventSource is the consumer side of the event multiplexer.
type EventSource interface {
	// Next blocks until an event is available.
	Next(ctx context.Context) (event.Event, error)
	// Pending returns every event already queued without blocking.
	Pending() []event.Event
	// Len reports the backlog.
	Len() int
}

// Presenter draws one frame. It must not keep the frame past the call.
type Presenter interface {
	Present(Frame)
}

// Frame is everything a redraw needs, copied out of the simulation.
type Frame struct {
	Pose    vehicle.Pose
	Ground  vehicle.Ground
	Stats   Stats
	Backlog int
}

// Stats counts dispatched actions.
type Stats struct {
	Ticks         uint64
	Renders       uint64
	Accelerations uint64
	Decelerations uint64
	Ignored       uint64
	Errors        uint64
	Batches       uint64
}

// Game is the simulation controller. It alone owns the scene: physics steps,
// torque and pose reads all happen on the goroutine that calls Run.
type Game struct {
	scene       *vehicle.Scene
	events      EventSource
	presenter   Presenter
	logger      *logging.Logger
	driveTorque float64

	status   atomic.Int32
	quitting bool

	ticks         atomic.Uint64
	renders       atomic.Uint64
	accelerations atomic.Uint64
	decelerations atomic.Uint64
	ignored       atomic.Uint64
	errs          atomic.Uint64
	batches       atomic.Uint64
}

// Option configures a Game.
type Option func(*Game)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Game) { g.logger = l }
}

// NewGame creates a controller over scene. driveTorque is the magnitude
// applied per Accelerate or Deccelerate action.
func NewGame(scene *vehicle.Scene, events EventSource, presenter Presenter, driveTorque float64, opts ...Option) *Game {
	g := &Game{
		scene:       scene,
		events:      events,
		presenter:   presenter,
		logger:      logging.Nop(),
		driveTorque: driveTorque,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Status returns the lifecycle state.
func (g *Game) Status() GameStatus { return GameStatus(g.status.Load()) }

// Stats returns the dispatch counters. Safe to call from any goroutine.
func (g *Game) Stats() Stats {
	return Stats{
		Ticks:         g.ticks.Load(),
		Renders:       g.renders.Load(),
		Accelerations: g.accelerations.Load(),
		Decelerations: g.decelerations.Load(),
		Ignored:       g.ignored.Load(),
		Errors:        g.errs.Load(),
		Batches:       g.batches.Load(),
	}
}

// Run processes events until a Quit action has been dispatched. Each
// iteration blocks for one event, then dispatches everything already queued
// behind it before checking for Quit, so a backlog of ticks never waits on
// the next wake-up. It returns nil after Quit and a wrapped error if the
// event stream ends or ctx is done.
func (g *Game) Run(ctx context.Context) error {
	g.status.Store(int32(GameStatusRunning))
	defer g.status.Store(int32(GameStatusEnded))
	start := time.Now()

	for !g.quitting {
		ev, err := g.events.Next(ctx)
		if err != nil {
			return logging.WrapError(err, "wait for event after %d ticks", g.ticks.Load())
		}
		g.batches.Add(1)
		g.handle(ctx, ev)
		for _, ev := range g.events.Pending() {
			g.handle(ctx, ev)
		}
	}

	g.logger.Info(ctx, "simulation stopped",
		"ticks", g.ticks.Load(),
		"renders", g.renders.Load(),
		logging.Since(start))
	return nil
}

func (g *Game) handle(ctx context.Context, ev event.Event) {
	if e, ok := ev.(event.Error); ok {
		g.errs.Add(1)
		g.logger.Warn(ctx, "input error ignored", "error", e.Err)
		return
	}
	g.dispatch(ctx, action.Translate(ev))
}

func (g *Game) dispatch(ctx context.Context, a action.Action) {
	switch a {
	case action.Quit:
		g.quitting = true
		g.logger.Info(ctx, "quit requested", "backlog", g.events.Len())
	case action.Tick:
		g.scene.Vehicle.Step()
		g.ticks.Add(1)
	case action.Render:
		g.renders.Add(1)
		g.presenter.Present(g.frame())
	case action.Accelerate:
		g.scene.Vehicle.ApplyDriveTorque(g.driveTorque)
		g.accelerations.Add(1)
	case action.Deccelerate:
		g.scene.Vehicle.ApplyDriveTorque(-g.driveTorque)
		g.decelerations.Add(1)
	case action.None:
		g.ignored.Add(1)
	}
}

func (g *Game) frame() Frame {
	return Frame{
		Pose:    g.scene.Vehicle.Snapshot(),
		Ground:  g.scene.Ground,
		Stats:   g.Stats(),
		Backlog: g.events.Len(),
	}
}
