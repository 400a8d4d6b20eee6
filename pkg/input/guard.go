package input

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-hillclimb/pkg/config"
	"github.com/opd-ai/go-hillclimb/pkg/logging"
)

// GuardedSource wraps a Source with a circuit breaker. After too many
// consecutive read failures the breaker opens and reads fail fast with
// gobreaker.ErrOpenState for the configured timeout, after pausing briefly so
// a broken terminal does not spin the reader goroutine.
type GuardedSource struct {
	src     Source
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
	backoff time.Duration
	sleep   func(time.Duration)
}

// NewGuardedSource creates a GuardedSource configured from cfg.
func NewGuardedSource(src Source, cfg config.InputConfig, logger *logging.Logger) *GuardedSource {
	if logger == nil {
		logger = logging.Nop()
	}
	maxFails := uint32(cfg.MaxConsecutiveFails)

	settings := gobreaker.Settings{
		Name:        "key-input",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFails
		},
		IsSuccessful: func(err error) bool {
			// a closed source is final, not a transient failure
			return err == nil || errors.Is(err, ErrSourceClosed)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	backoff := cfg.OpenTimeout / 10
	if backoff <= 0 {
		backoff = 10 * time.Millisecond
	}

	return &GuardedSource{
		src:     src,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		backoff: backoff,
		sleep:   time.Sleep,
	}
}

// ReadKey implements Source.
func (g *GuardedSource) ReadKey() (KeyEvent, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.src.ReadKey()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			g.sleep(g.backoff)
		}
		return KeyEvent{}, fmt.Errorf("read key: %w", err)
	}
	return out.(KeyEvent), nil
}

// State returns the current breaker state.
func (g *GuardedSource) State() gobreaker.State {
	return g.breaker.State()
}

// Counts returns the breaker's failure/success counts.
func (g *GuardedSource) Counts() gobreaker.Counts {
	return g.breaker.Counts()
}
