// Package engine provides unit tests for game.go
package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-hillclimb/pkg/config"
	"github.com/opd-ai/go-hillclimb/pkg/event"
	"github.com/opd-ai/go-hillclimb/pkg/input"
	"github.com/opd-ai/go-hillclimb/pkg/vehicle"
)

// scriptedSource hands out pre-built batches: Next returns the head of the
// next batch and Pending the rest of it.
type scriptedSource struct {
	batches [][]event.Event
	pending []event.Event
	fetched int
}

func (s *scriptedSource) Next(ctx context.Context) (event.Event, error) {
	if len(s.batches) == 0 {
		return nil, event.ErrQueueClosed
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	s.fetched++
	s.pending = b[1:]
	return b[0], nil
}

func (s *scriptedSource) Pending() []event.Event {
	p := s.pending
	s.pending = nil
	return p
}

func (s *scriptedSource) Len() int { return len(s.pending) }

type recorder struct {
	frames []Frame
}

func (r *recorder) Present(f Frame) { r.frames = append(r.frames, f) }

var (
	tick   = event.Tick{}
	render = event.Render{}
	quit   = event.Input{Key: input.Char('q')}
	right  = event.Input{Key: input.Key(input.KeyRight)}
	left   = event.Input{Key: input.Key(input.KeyLeft)}
)

func newGame(t *testing.T, batches ...[]event.Event) (*Game, *scriptedSource, *recorder) {
	t.Helper()
	cfg := config.DefaultConfig()
	scene, err := vehicle.NewScene(cfg)
	require.NoError(t, err)
	src := &scriptedSource{batches: batches}
	rec := &recorder{}
	return NewGame(scene, src, rec, cfg.Vehicle.DriveTorque), src, rec
}

func repeat(ev event.Event, n int) []event.Event {
	out := make([]event.Event, n)
	for i := range out {
		out[i] = ev
	}
	return out
}

func TestGame_QuitFinishesCurrentBatch(t *testing.T) {
	g, src, rec := newGame(t,
		[]event.Event{tick, quit, tick, render},
		[]event.Event{tick, render},
	)

	require.NoError(t, g.Run(context.Background()))

	assert.Equal(t, 1, src.fetched, "no batch is fetched after quit")
	stats := g.Stats()
	assert.Equal(t, uint64(2), stats.Ticks)
	assert.Equal(t, uint64(1), stats.Renders)
	require.Len(t, rec.frames, 1)
	assert.Equal(t, uint64(2), rec.frames[0].Pose.Step)
	assert.Equal(t, GameStatusEnded, g.Status())
}

func TestGame_TorqueAccumulationLaw(t *testing.T) {
	tests := []struct {
		name   string
		inputs []event.Event
		want   float64
	}{
		{"none", nil, 0},
		{"one_accelerate", []event.Event{right}, 20},
		{"two_accelerates", []event.Event{right, right}, 40},
		{"cancelled", []event.Event{right, left}, 0},
		{"net_reverse", []event.Event{left, right, left, left}, -40},
		{"unbound_keys_ignored", []event.Event{right, event.Input{Key: input.Char('x')}}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := []event.Event{tick}
			batch = append(batch, tt.inputs...)
			batch = append(batch, render, tick, render, quit)
			g, _, rec := newGame(t, batch)

			require.NoError(t, g.Run(context.Background()))
			require.Len(t, rec.frames, 2)
			assert.InDelta(t, tt.want, rec.frames[0].Pose.DriveTorque, 1e-9, "before the step")
			assert.Zero(t, rec.frames[1].Pose.DriveTorque, "consumed by the step")
		})
	}
}

func TestGame_RenderAfterThousandTicks(t *testing.T) {
	batch := append(repeat(tick, 1000), render, quit)
	g, _, rec := newGame(t, batch)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, rec.frames, 1)
	assert.Equal(t, uint64(1000), rec.frames[0].Pose.Step)
	assert.Less(t, rec.frames[0].Pose.Chassis.Position.Y, 3.0)
	assert.Equal(t, uint64(1000), g.Stats().Ticks)
}

func TestGame_RenderBeforeThousandTicks(t *testing.T) {
	batch := append([]event.Event{render}, repeat(tick, 1000)...)
	batch = append(batch, quit)
	g, _, rec := newGame(t, batch)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, rec.frames, 1)
	assert.Zero(t, rec.frames[0].Pose.Step)
	assert.Equal(t, 10.0, rec.frames[0].Pose.Chassis.Position.Y)
	assert.Equal(t, uint64(1000), g.Stats().Ticks)
}

func TestGame_ErrorsAreNotFatal(t *testing.T) {
	g, _, _ := newGame(t,
		[]event.Event{event.Error{Err: errors.New("read failed")}},
		[]event.Event{tick, event.Error{Err: errors.New("again")}},
		[]event.Event{quit},
	)

	require.NoError(t, g.Run(context.Background()))
	stats := g.Stats()
	assert.Equal(t, uint64(2), stats.Errors)
	assert.Equal(t, uint64(1), stats.Ticks)
	assert.Equal(t, uint64(3), stats.Batches)
}

func TestGame_QueueClosedIsFatal(t *testing.T) {
	g, _, _ := newGame(t, []event.Event{tick, right})

	err := g.Run(context.Background())
	require.ErrorIs(t, err, event.ErrQueueClosed)
	assert.Equal(t, uint64(1), g.Stats().Ticks)
	assert.Equal(t, uint64(1), g.Stats().Accelerations)
}

func TestGame_FrameCarriesStats(t *testing.T) {
	g, _, rec := newGame(t, []event.Event{left, tick, event.Input{Key: input.Char('z')}, render, quit})

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, rec.frames, 1)
	f := rec.frames[0]
	assert.Equal(t, uint64(1), f.Stats.Decelerations)
	assert.Equal(t, uint64(1), f.Stats.Ignored)
	assert.Equal(t, uint64(1), f.Stats.Renders)
	assert.Equal(t, 1.0, f.Ground.Top())
}

func TestGame_WithMultiplexer(t *testing.T) {
	keys := make(chan input.KeyEvent, 1)
	src := input.SourceFunc(func() (input.KeyEvent, error) {
		k, ok := <-keys
		if !ok {
			return input.KeyEvent{}, input.ErrSourceClosed
		}
		return k, nil
	})
	tickClock, renderClock := event.NewManualClock(16), event.NewManualClock(16)
	mux := event.NewMultiplexer(tickClock, renderClock, src)
	require.NoError(t, mux.Start(context.Background()))
	defer mux.Close()

	for i := 0; i < 5; i++ {
		tickClock.Fire()
	}
	require.Eventually(t, func() bool { return mux.Len() == 5 }, 2*time.Second, time.Millisecond)
	renderClock.Fire()
	require.Eventually(t, func() bool { return mux.Len() == 6 }, 2*time.Second, time.Millisecond)
	keys <- input.Char('q')
	require.Eventually(t, func() bool { return mux.Len() == 7 }, 2*time.Second, time.Millisecond)

	cfg := config.DefaultConfig()
	scene, err := vehicle.NewScene(cfg)
	require.NoError(t, err)
	rec := &recorder{}
	g := NewGame(scene, mux, rec, cfg.Vehicle.DriveTorque)

	require.NoError(t, g.Run(context.Background()))
	assert.Equal(t, uint64(5), g.Stats().Ticks)
	require.Len(t, rec.frames, 1)
	assert.Equal(t, uint64(5), rec.frames[0].Pose.Step)
}

func TestGameStatus_String(t *testing.T) {
	assert.Equal(t, "waiting", GameStatusWaiting.String())
	assert.Equal(t, "running", GameStatusRunning.String())
	assert.Equal(t, "ended", GameStatusEnded.String())
}
