package event

import (
	"sync"
	"time"
)

// Clock is a periodic timer source.
type Clock interface {
	C() <-chan time.Time
	Stop()
}

type tickerClock struct {
	t *time.Ticker
}

// NewClock starts a clock firing every interval.
func NewClock(interval time.Duration) Clock {
	return &tickerClock{t: time.NewTicker(interval)}
}

// NewRateClock starts a clock firing rate times per second.
func NewRateClock(rate float64) Clock {
	return NewClock(time.Duration(float64(time.Second) / rate))
}

func (c *tickerClock) C() <-chan time.Time { return c.t.C }
func (c *tickerClock) Stop() { c.t.Stop() }

// ManualClock fires only when Fire is called. It is meant for tests and for
// stepping a session by hand.
type ManualClock struct {
	ch   chan time.Time
	once sync.Once
	stop chan struct{}
}

// NewManualClock creates a manual clock with room for buffer pending fires.
func NewManualClock(buffer int) *ManualClock {
	return &ManualClock{
		ch:   make(chan time.Time, buffer),
		stop: make(chan struct{}),
	}
}

// C implements Clock.
func (c *ManualClock) C() <-chan time.Time { return c.ch }

// Stop implements Clock. Fires after Stop are ignored.
func (c *ManualClock) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Fire delivers one tick, blocking if the buffer is full.
func (c *ManualClock) Fire() {
	select {
	case <-c.stop:
	case c.ch <- time.Now():
	}
}
