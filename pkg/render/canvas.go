package render

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Rect is a region of terminal cells.
type Rect struct {
	X, Y, W, H int
}

// Inner returns r shrunk by one cell on every side.
func (r Rect) Inner() Rect {
	return Rect{X: r.X + 1, Y: r.Y + 1, W: r.W - 2, H: r.H - 2}
}

// Empty reports whether r holds no cells.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Contains reports whether the cell (x, y) is inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Bounds is the logical coordinate space of a canvas. +y is up.
type Bounds struct {
	XMin, XMax, YMin, YMax float64
}

// Canvas draws primitive shapes given in logical coordinates onto a cell
// region of a screen. Anything outside the bounds is clipped.
type Canvas struct {
	screen tcell.Screen
	area   Rect
	bounds Bounds
}

// NewCanvas maps bounds onto area.
func NewCanvas(screen tcell.Screen, area Rect, bounds Bounds) *Canvas {
	return &Canvas{screen: screen, area: area, bounds: bounds}
}

// Cell converts a logical point to the cell that displays it.
func (c *Canvas) Cell(x, y float64) (col, row int, ok bool) {
	b := c.bounds
	if c.area.Empty() || x < b.XMin || x > b.XMax || y < b.YMin || y > b.YMax {
		return 0, 0, false
	}
	col = c.area.X + int(math.Round((x-b.XMin)/(b.XMax-b.XMin)*float64(c.area.W-1)))
	row = c.area.Y + int(math.Round((b.YMax-y)/(b.YMax-b.YMin)*float64(c.area.H-1)))
	return col, row, true
}

// Point marks a single logical point.
func (c *Canvas) Point(x, y float64, r rune, style tcell.Style) {
	if col, row, ok := c.Cell(x, y); ok {
		c.screen.SetContent(col, row, r, nil, style)
	}
}

// Line draws a segment, clipped to the bounds.
func (c *Canvas) Line(x1, y1, x2, y2 float64, r rune, style tcell.Style) {
	x1, y1, x2, y2, ok := c.bounds.clip(x1, y1, x2, y2)
	if !ok {
		return
	}
	c1, r1, ok1 := c.Cell(x1, y1)
	c2, r2, ok2 := c.Cell(x2, y2)
	if !ok1 || !ok2 {
		return
	}
	drawLine(c.screen, c.area, c1, r1, c2, r2, r, style)
}

// Rectangle draws an axis-aligned outline with its lower-left corner at
// (x, y).
func (c *Canvas) Rectangle(x, y, width, height float64, r rune, style tcell.Style) {
	c.Polygon([][2]float64{{x, y}, {x + width, y}, {x + width, y + height}, {x, y + height}}, r, style)
}

// Polygon draws a closed outline through pts.
func (c *Canvas) Polygon(pts [][2]float64, r rune, style tcell.Style) {
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		c.Line(a[0], a[1], b[0], b[1], r, style)
	}
}

// Circle draws the outline of a circle. The sample count follows the
// circle's size in cells so small wheels stay cheap.
func (c *Canvas) Circle(x, y, radius float64, r rune, style tcell.Style) {
	if radius <= 0 || c.area.Empty() {
		return
	}
	perUnit := math.Max(
		float64(c.area.W)/(c.bounds.XMax-c.bounds.XMin),
		float64(c.area.H)/(c.bounds.YMax-c.bounds.YMin),
	)
	n := int(2*math.Pi*radius*perUnit*2) + 8
	if n > 720 {
		n = 720
	}
	for i := 0; i < n; i++ {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		c.Point(x+radius*cos, y+radius*sin, r, style)
	}
}

// clip trims a segment to b using Liang-Barsky. ok is false when nothing of
// the segment is inside. Returned endpoints always satisfy Cell's range check.
func (b Bounds) clip(x1, y1, x2, y2 float64) (float64, float64, float64, float64, bool) {
	dx, dy := x2-x1, y2-y1
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x1 - b.XMin},
		{dx, b.XMax - x1},
		{-dy, y1 - b.YMin},
		{dy, b.YMax - y1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, t)
		}
	}
	return b.clampX(x1 + t0*dx), b.clampY(y1 + t0*dy), b.clampX(x1 + t1*dx), b.clampY(y1 + t1*dy), true
}

// clampX and clampY pull clipped endpoints back inside b; the parametric
// form can land a rounding error past an edge.
func (b Bounds) clampX(x float64) float64 { return math.Min(math.Max(x, b.XMin), b.XMax) }
func (b Bounds) clampY(y float64) float64 { return math.Min(math.Max(y, b.YMin), b.YMax) }

// drawLine rasterises a cell segment with Bresenham's algorithm, skipping
// cells outside area.
func drawLine(s tcell.Screen, area Rect, x1, y1, x2, y2 int, r rune, style tcell.Style) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if area.Contains(x1, y1) {
			s.SetContent(x1, y1, r, nil, style)
		}
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

// DrawText writes text from (x, y) and stops at maxWidth cells. It returns
// the number of cells used.
func DrawText(s tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) int {
	used := 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if used+w > maxWidth {
			break
		}
		s.SetContent(x+used, y, r, nil, style)
		used += w
	}
	return used
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
