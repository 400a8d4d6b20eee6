package input

import (
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-hillclimb/pkg/config"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return screen
}

func TestTerminalSource_TranslatesKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		r    rune
		want KeyEvent
	}{
		{"quit rune", tcell.KeyRune, 'q', Char('q')},
		{"right arrow", tcell.KeyRight, 0, Key(KeyRight)},
		{"left arrow", tcell.KeyLeft, 0, Key(KeyLeft)},
		{"escape", tcell.KeyEscape, 0, Key(KeyEscape)},
		{"function key is unknown", tcell.KeyF5, 0, Key(KeyUnknown)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := newSimScreen(t)
			src := NewTerminalSource(screen)
			screen.InjectKey(tt.key, tt.r, tcell.ModNone)

			got, err := src.ReadKey()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, Press, got.Kind, "terminals only report presses")
		})
	}
}

func TestTerminalSource_SkipsNonKeyEvents(t *testing.T) {
	screen := newSimScreen(t)
	src := NewTerminalSource(screen)

	require.NoError(t, screen.PostEvent(tcell.NewEventResize(100, 40)))
	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)

	got, err := src.ReadKey()
	require.NoError(t, err)
	assert.Equal(t, Char('x'), got)
}

func TestTerminalSource_ReportsErrors(t *testing.T) {
	screen := newSimScreen(t)
	src := NewTerminalSource(screen)

	require.NoError(t, screen.PostEvent(tcell.NewEventError(errors.New("tty gone"))))
	_, err := src.ReadKey()
	assert.EqualError(t, err, "tty gone")
}

type nilPoller struct{}

func (nilPoller) PollEvent() tcell.Event { return nil }

func TestTerminalSource_ClosedScreen(t *testing.T) {
	_, err := NewTerminalSource(nilPoller{}).ReadKey()
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func TestKeyEventString(t *testing.T) {
	assert.Equal(t, "'q' press", Char('q').String())
	assert.Equal(t, "Right release", KeyEvent{Code: KeyRight, Kind: Release}.String())
	assert.Equal(t, "KeyCode(99)", KeyCode(99).String())
}

func guarded(src Source, fails int) *GuardedSource {
	g := NewGuardedSource(src, config.InputConfig{
		MaxConsecutiveFails: fails,
		OpenTimeout:         time.Minute,
	}, nil)
	g.sleep = func(time.Duration) {}
	return g
}

func TestGuardedSource_PassesThrough(t *testing.T) {
	g := guarded(SourceFunc(func() (KeyEvent, error) { return Char('a'), nil }), 3)
	got, err := g.ReadKey()
	require.NoError(t, err)
	assert.Equal(t, Char('a'), got)
	assert.Equal(t, gobreaker.StateClosed, g.State())
}

func TestGuardedSource_OpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	failing := SourceFunc(func() (KeyEvent, error) {
		calls++
		return KeyEvent{}, errors.New("read error")
	})
	g := guarded(failing, 3)

	for i := 0; i < 3; i++ {
		_, err := g.ReadKey()
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	_, err := g.ReadKey()
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls, "open breaker must not touch the source")
}

func TestGuardedSource_ClosedSourceDoesNotTrip(t *testing.T) {
	g := guarded(SourceFunc(func() (KeyEvent, error) { return KeyEvent{}, ErrSourceClosed }), 1)
	for i := 0; i < 5; i++ {
		_, err := g.ReadKey()
		assert.ErrorIs(t, err, ErrSourceClosed)
	}
	assert.Equal(t, gobreaker.StateClosed, g.State())
}
