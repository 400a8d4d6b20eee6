package render

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-hillclimb/pkg/config"
	"github.com/opd-ai/go-hillclimb/pkg/engine"
	"github.com/opd-ai/go-hillclimb/pkg/physics"
	"github.com/opd-ai/go-hillclimb/pkg/vehicle"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func rows(s tcell.SimulationScreen) []string {
	cells, w, h := s.GetContents()
	out := make([]string, h)
	for y := 0; y < h; y++ {
		var b strings.Builder
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) == 0 || c.Runes[0] == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(c.Runes[0])
		}
		out[y] = b.String()
	}
	return out
}

func count(s tcell.SimulationScreen, r rune) int {
	n := 0
	for _, row := range rows(s) {
		n += strings.Count(row, string(r))
	}
	return n
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name         string
		w, h, info   int
		canvas, rest Rect
	}{
		{"default", 80, 24, 5, Rect{1, 1, 78, 17}, Rect{1, 18, 78, 5}},
		{"info_capped_at_half", 80, 10, 5, Rect{1, 1, 78, 4}, Rect{1, 5, 78, 4}},
		{"no_info", 40, 12, 0, Rect{1, 1, 38, 10}, Rect{1, 11, 38, 0}},
		{"too_small", 2, 2, 5, Rect{}, Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canvas, info := Split(tt.w, tt.h, tt.info)
			assert.Equal(t, tt.canvas, canvas)
			assert.Equal(t, tt.rest, info)
		})
	}
}

func TestCanvas_Cell(t *testing.T) {
	c := NewCanvas(nil, Rect{X: 2, Y: 1, W: 11, H: 5}, Bounds{XMin: -5, XMax: 5, YMin: -2, YMax: 2})

	tests := []struct {
		name     string
		x, y     float64
		col, row int
		ok       bool
	}{
		{"top_left", -5, 2, 2, 1, true},
		{"bottom_right", 5, -2, 12, 5, true},
		{"origin", 0, 0, 7, 3, true},
		{"right_of_bounds", 6, 0, 0, 0, false},
		{"below_bounds", 0, -2.5, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, row, ok := c.Cell(tt.x, tt.y)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.col, col)
				assert.Equal(t, tt.row, row)
			}
		})
	}
}

func TestBounds_Clip(t *testing.T) {
	b := Bounds{XMin: -1, XMax: 1, YMin: -1, YMax: 1}

	_, _, _, _, ok := b.clip(2, 2, 3, 3)
	assert.False(t, ok, "fully outside")

	x1, y1, x2, y2, ok := b.clip(-0.5, 0, 0.5, 0)
	require.True(t, ok)
	assert.Equal(t, [4]float64{-0.5, 0, 0.5, 0}, [4]float64{x1, y1, x2, y2})

	x1, y1, x2, y2, ok = b.clip(-10, 0, 10, 0)
	require.True(t, ok)
	assert.InDelta(t, -1, x1, 1e-12)
	assert.InDelta(t, 1, x2, 1e-12)
	assert.Zero(t, y1)
	assert.Zero(t, y2)
}

func TestBounds_ClipStaysInsideBounds(t *testing.T) {
	tests := []struct {
		name           string
		b              Bounds
		x1, y1, x2, y2 float64
	}{
		{"narrow_horizontal", Bounds{XMin: -5, XMax: 5, YMin: -2, YMax: 2}, -50, 0, 50, 0},
		{"wide_horizontal", Bounds{XMin: -180, XMax: 180, YMin: -90, YMax: 90}, -1000, 3.7, 1000, 3.7},
		{"vertical", Bounds{XMin: -180, XMax: 180, YMin: -90, YMax: 90}, 12.3, -731, 12.3, 917},
		{"diagonal", Bounds{XMin: -180, XMax: 180, YMin: -90, YMax: 90}, -333.3, -444.4, 555.5, 222.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(nil, Rect{W: 80, H: 20}, tt.b)
			x1, y1, x2, y2, ok := tt.b.clip(tt.x1, tt.y1, tt.x2, tt.y2)
			require.True(t, ok)
			for _, p := range [][2]float64{{x1, y1}, {x2, y2}} {
				_, _, inside := c.Cell(p[0], p[1])
				assert.True(t, inside, "endpoint %v", p)
			}
		})
	}
}

func TestCanvas_GroundSpansDefaultBounds(t *testing.T) {
	rc := config.DefaultConfig().Render
	s := newScreen(t, 40, 10)
	c := NewCanvas(s, Rect{W: 40, H: 10}, Bounds{XMin: rc.XMin, XMax: rc.XMax, YMin: rc.YMin, YMax: rc.YMax})

	c.Line(-1000, 0, 1000, 0, '=', tcell.StyleDefault)
	s.Show()

	assert.Equal(t, 40, count(s, '='))
}

func TestCanvas_Shapes(t *testing.T) {
	s := newScreen(t, 11, 5)
	c := NewCanvas(s, Rect{W: 11, H: 5}, Bounds{XMin: -5, XMax: 5, YMin: -2, YMax: 2})

	c.Line(-50, 0, 50, 0, '-', tcell.StyleDefault)
	c.Point(0, 2, '*', tcell.StyleDefault)
	s.Show()

	got := rows(s)
	assert.Equal(t, strings.Repeat("-", 11), got[2])
	assert.Equal(t, "     *     ", got[0])
}

func TestCanvas_RectangleAndCircle(t *testing.T) {
	s := newScreen(t, 21, 11)
	c := NewCanvas(s, Rect{W: 21, H: 11}, Bounds{XMin: -10, XMax: 10, YMin: -5, YMax: 5})

	c.Rectangle(-4, -2, 8, 4, '#', tcell.StyleDefault)
	c.Circle(0, 0, 1, 'o', tcell.StyleDefault)
	c.Circle(0, 0, 0, 'x', tcell.StyleDefault)
	s.Show()

	got := rows(s)
	assert.Equal(t, "      #########      ", got[3])
	assert.Equal(t, "      #########      ", got[7])
	assert.Equal(t, "      #        #     "[:7], got[5][:7])
	assert.NotEqual(t, 'o', rune(got[5][10]), "circle leaves its centre empty")
	assert.Positive(t, count(s, 'o'))
	assert.Zero(t, count(s, 'x'))
}

func TestPanel_Draw(t *testing.T) {
	s := newScreen(t, 12, 4)
	p := Panel{Title: "Game Info", Area: Rect{W: 12, H: 4}}
	p.Draw(s)
	p.Lines(s, []string{"a line that is too long", "two", "dropped"}, tcell.StyleDefault)
	s.Show()

	got := rows(s)
	assert.Equal(t, "╭Game Info─╮", got[0])
	assert.Equal(t, "│a line tha│", got[1])
	assert.Equal(t, "│two       │", got[2])
	assert.Equal(t, "╰──────────╯", got[3])
}

func newFrame(t *testing.T) engine.Frame {
	t.Helper()
	scene, err := vehicle.NewScene(config.DefaultConfig())
	require.NoError(t, err)
	return engine.Frame{Pose: scene.Vehicle.Snapshot(), Ground: scene.Ground, Backlog: 3}
}

func TestTerminalRenderer_Present(t *testing.T) {
	s := newScreen(t, 80, 30)
	r := NewTerminalRenderer(s, config.DefaultConfig().Render)

	r.Present(newFrame(t))
	got := rows(s)
	text := strings.Join(got, "\n")

	assert.Equal(t, '╭', []rune(got[1])[1])
	assert.Contains(t, text, "Game Canvas")
	assert.Contains(t, text, "Game Info")
	assert.Contains(t, text, "torque: 0.0 x: 0.00 y: 10.00")
	assert.Contains(t, text, "backlog: 3")
	assert.Positive(t, count(s, runeGround))
	assert.Positive(t, count(s, runeChassis))
	assert.Positive(t, count(s, runeWheel))
}

func TestTerminalRenderer_FollowsVehicle(t *testing.T) {
	s := newScreen(t, 80, 30)
	r := NewTerminalRenderer(s, config.DefaultConfig().Render)

	f := newFrame(t)
	f.Pose.Chassis.Position = physics.Vec(50, 5)
	r.Present(f)
	assert.Equal(t, 50.0, r.Center().X)
	assert.Positive(t, count(s, runeChassis), "chassis stays on screen")

	cfg := config.DefaultConfig().Render
	cfg.FollowVehicle = false
	fixed := NewTerminalRenderer(s, cfg)
	fixed.Present(f)
	assert.Zero(t, fixed.Center().X)
	assert.Zero(t, count(s, runeChassis), "chassis is off screen")
}

func TestTerminalRenderer_TooSmall(t *testing.T) {
	s := newScreen(t, 20, 4)
	r := NewTerminalRenderer(s, config.DefaultConfig().Render)

	r.Present(newFrame(t))
	assert.True(t, strings.HasPrefix(rows(s)[0], "terminal too small"))
}

func TestInfoLines(t *testing.T) {
	f := newFrame(t)
	f.Pose.DriveTorque = 20
	f.Stats.Renders = 7
	lines := InfoLines(f)
	require.Len(t, lines, 3)
	assert.Equal(t, "torque: 20.0 x: 0.00 y: 10.00", lines[0])
	assert.Equal(t, "angle: 0.0° step: 0 renders: 7 backlog: 3", lines[1])
}
