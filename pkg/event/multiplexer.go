package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/opd-ai/go-hillclimb/pkg/input"
	"github.com/opd-ai/go-hillclimb/pkg/logging"
)

// Spawner starts a named background task.
type Spawner interface {
	Go(ctx context.Context, name string, fn func(context.Context)) error
}

type goSpawner struct{}

func (goSpawner) Go(ctx context.Context, _ string, fn func(context.Context)) error {
	go fn(ctx)
	return nil
}

// Stats counts what the multiplexer has enqueued so far.
type Stats struct {
	Ticks    uint64
	Renders  uint64
	Inputs   uint64
	Errors   uint64
	Filtered uint64
}

// Multiplexer races a tick clock, a render clock and a key source in one
// background task and feeds whichever fires first into a single Queue.
// Each source keeps its own temporal order; interleaving across sources
// follows the scheduler.
//
// The key source blocks, so it is read by a second task that hands events to
// the racing task over a channel. Only presses reach the queue.
type Multiplexer struct {
	tick    Clock
	render  Clock
	src     input.Source
	queue   *Queue
	keys    chan Event
	spawner Spawner
	logger  *logging.Logger

	stop     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool

	ticks    atomic.Uint64
	renders  atomic.Uint64
	inputs   atomic.Uint64
	errs     atomic.Uint64
	filtered atomic.Uint64
}

// Option configures a Multiplexer.
type Option func(*Multiplexer)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Multiplexer) { m.logger = l }
}

// WithSpawner routes the background tasks through s.
func WithSpawner(s Spawner) Option {
	return func(m *Multiplexer) { m.spawner = s }
}

// WithInputBuffer sets how many key events may wait between the reader and
// the racing task.
func WithInputBuffer(n int) Option {
	return func(m *Multiplexer) {
		if n >= 0 {
			m.keys = make(chan Event, n)
		}
	}
}

// NewMultiplexer creates a multiplexer over the given sources. src may be nil
// for a session without keyboard.
func NewMultiplexer(tick, render Clock, src input.Source, opts ...Option) *Multiplexer {
	m := &Multiplexer{
		tick:    tick,
		render:  render,
		src:     src,
		queue:   NewQueue(),
		keys:    make(chan Event, 64),
		spawner: goSpawner{},
		logger:  logging.Nop(),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the background tasks. It may be called once.
func (m *Multiplexer) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return fmt.Errorf("multiplexer already started")
	}
	if m.src != nil {
		if err := m.spawner.Go(ctx, "input-reader", m.readInput); err != nil {
			return logging.WrapError(err, "start input reader")
		}
	}
	if err := m.spawner.Go(ctx, "event-multiplexer", m.race); err != nil {
		return logging.WrapError(err, "start event multiplexer")
	}
	m.logger.Debug(ctx, "event multiplexer started")
	return nil
}

// Next blocks until an event is queued. It returns ErrQueueClosed once the
// multiplexer has stopped and the backlog is consumed.
func (m *Multiplexer) Next(ctx context.Context) (Event, error) {
	return m.queue.Pop(ctx)
}

// Pending returns, without blocking, every event already queued.
func (m *Multiplexer) Pending() []Event {
	return m.queue.Drain()
}

// Len returns the queue backlog.
func (m *Multiplexer) Len() int {
	return m.queue.Len()
}

// Stats returns the enqueue counters.
func (m *Multiplexer) Stats() Stats {
	return Stats{
		Ticks:    m.ticks.Load(),
		Renders:  m.renders.Load(),
		Inputs:   m.inputs.Load(),
		Errors:   m.errs.Load(),
		Filtered: m.filtered.Load(),
	}
}

// Close stops the racing task, which stops both clocks and closes the queue.
// A reader blocked inside the key source is abandoned.
func (m *Multiplexer) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
	if !m.started.Load() {
		m.tick.Stop()
		m.render.Stop()
		m.queue.Close()
	}
}

func (m *Multiplexer) race(ctx context.Context) {
	defer m.queue.Close()
	defer m.render.Stop()
	defer m.tick.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug(ctx, "event multiplexer stopped by context")
			return
		case <-m.stop:
			m.logger.Debug(ctx, "event multiplexer stopped")
			return
		case at := <-m.tick.C():
			m.ticks.Add(1)
			m.queue.Push(Tick{At: at})
		case at := <-m.render.C():
			m.renders.Add(1)
			m.queue.Push(Render{At: at})
		case ev := <-m.keys:
			m.queue.Push(ev)
		}
	}
}

func (m *Multiplexer) readInput(ctx context.Context) {
	for {
		key, err := m.src.ReadKey()

		var ev Event
		switch {
		case errors.Is(err, input.ErrSourceClosed):
			m.logger.Info(ctx, "input source closed")
			return
		case err != nil:
			m.errs.Add(1)
			ev = Error{Err: err}
		case key.Kind != input.Press:
			m.filtered.Add(1)
			continue
		default:
			m.inputs.Add(1)
			ev = Input{Key: key}
		}

		select {
		case m.keys <- ev:
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
