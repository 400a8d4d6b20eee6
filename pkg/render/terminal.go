// Package render draws simulation frames onto a character terminal.
package render

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-hillclimb/pkg/config"
	"github.com/opd-ai/go-hillclimb/pkg/engine"
	"github.com/opd-ai/go-hillclimb/pkg/physics"
	"github.com/opd-ai/go-hillclimb/pkg/vehicle"
)

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = styleDefault.Foreground(tcell.ColorDarkGray)
	styleGround  = styleDefault.Foreground(tcell.ColorGreen)
	styleChassis = styleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleWheel   = styleDefault.Foreground(tcell.ColorYellow)
	styleInfo    = styleDefault.Foreground(tcell.ColorSilver)
	styleWarning = styleDefault.Foreground(tcell.ColorRed)
)

const (
	runeGround  = '='
	runeChassis = '#'
	runeWheel   = 'o'
	runeSpoke   = '.'
)

// TerminalRenderer is the presentation adapter: it turns a Frame into
// shapes on a tcell screen. It keeps no simulation state, only the camera.
type TerminalRenderer struct {
	screen     tcell.Screen
	bounds     Bounds
	scale      float64
	follow     bool
	infoHeight int
	centerPos  physics.Vector2D
}

// NewTerminalRenderer creates a renderer drawing to screen.
func NewTerminalRenderer(screen tcell.Screen, cfg config.RenderConfig) *TerminalRenderer {
	return &TerminalRenderer{
		screen:     screen,
		bounds:     Bounds{XMin: cfg.XMin, XMax: cfg.XMax, YMin: cfg.YMin, YMax: cfg.YMax},
		scale:      cfg.Scale,
		follow:     cfg.FollowVehicle,
		infoHeight: cfg.InfoHeight,
	}
}

// SetCenter sets the world point shown at the logical origin.
func (r *TerminalRenderer) SetCenter(pos physics.Vector2D) {
	r.centerPos = pos
}

// Center returns the camera position.
func (r *TerminalRenderer) Center() physics.Vector2D { return r.centerPos }

// worldToLogical converts world metres to canvas coordinates.
func (r *TerminalRenderer) worldToLogical(pos physics.Vector2D) (float64, float64) {
	d := pos.Sub(r.centerPos).Scale(r.scale)
	return d.X, d.Y
}

// Present implements engine.Presenter.
func (r *TerminalRenderer) Present(f engine.Frame) {
	r.screen.Clear()
	defer r.screen.Show()

	w, h := r.screen.Size()
	canvasArea, infoArea := Split(w, h, r.infoHeight)
	if canvasArea.W < 3 || canvasArea.H < 3 {
		DrawText(r.screen, 0, 0, w, "terminal too small", styleWarning)
		return
	}

	if r.follow {
		r.SetCenter(physics.Vec(f.Pose.Chassis.Position.X, r.centerPos.Y))
	}

	Panel{Title: "Game Canvas", Area: canvasArea, Style: styleBorder}.Draw(r.screen)
	canvas := NewCanvas(r.screen, canvasArea.Inner(), r.bounds)
	r.drawGround(canvas, f.Ground)
	r.drawVehicle(canvas, f.Pose)

	if infoArea.H >= 3 {
		info := Panel{Title: "Game Info", Area: infoArea, Style: styleBorder}
		info.Draw(r.screen)
		info.Lines(r.screen, InfoLines(f), styleInfo)
	}
}

func (r *TerminalRenderer) drawGround(c *Canvas, g vehicle.Ground) {
	x1, y := r.worldToLogical(physics.Vec(-g.HalfWidth, g.Top()))
	x2, _ := r.worldToLogical(physics.Vec(g.HalfWidth, g.Top()))
	c.Line(x1, y, x2, y, runeGround, styleGround)
}

func (r *TerminalRenderer) drawVehicle(c *Canvas, p vehicle.Pose) {
	d := p.Dimensions
	corners := [4]physics.Vector2D{
		physics.Vec(-d.ChassisHalfWidth, -d.ChassisHalfHeight),
		physics.Vec(d.ChassisHalfWidth, -d.ChassisHalfHeight),
		physics.Vec(d.ChassisHalfWidth, d.ChassisHalfHeight),
		physics.Vec(-d.ChassisHalfWidth, d.ChassisHalfHeight),
	}
	pts := make([][2]float64, len(corners))
	for i, corner := range corners {
		x, y := r.worldToLogical(p.Chassis.Position.Add(corner.Rotate(p.Chassis.Angle)))
		pts[i] = [2]float64{x, y}
	}
	c.Polygon(pts, runeChassis, styleChassis)

	r.drawWheel(c, p.Rear, d.RearWheelRadius)
	r.drawWheel(c, p.Front, d.FrontWheelRadius)
}

func (r *TerminalRenderer) drawWheel(c *Canvas, t physics.Transform, radius float64) {
	x, y := r.worldToLogical(t.Position)
	c.Circle(x, y, radius*r.scale, runeWheel, styleWheel)
	sx, sy := r.worldToLogical(t.Position.Add(physics.Vec(radius, 0).Rotate(t.Angle)))
	c.Line(x, y, sx, sy, runeSpoke, styleWheel)
}

// InfoLines is the text of the info panel.
func InfoLines(f engine.Frame) []string {
	p := f.Pose
	return []string{
		fmt.Sprintf("torque: %.1f x: %.2f y: %.2f", p.DriveTorque, p.Chassis.Position.X, p.Chassis.Position.Y),
		fmt.Sprintf("angle: %.1f° step: %d renders: %d backlog: %d",
			p.Chassis.Angle*180/math.Pi, p.Step, f.Stats.Renders, f.Backlog),
		"→ accelerate  ← decelerate  q quit",
	}
}
