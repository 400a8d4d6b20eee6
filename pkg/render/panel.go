package render

import "github.com/gdamore/tcell/v2"

// Rounded box-drawing corners.
const (
	cornerUL = '╭'
	cornerUR = '╮'
	cornerLL = '╰'
	cornerLR = '╯'
)

// Panel is a bordered, titled region.
type Panel struct {
	Title string
	Area  Rect
	Style tcell.Style
}

// Draw paints the border and title. Panels narrower or shorter than two
// cells are skipped.
func (p Panel) Draw(s tcell.Screen) {
	a := p.Area
	if a.W < 2 || a.H < 2 {
		return
	}
	right, bottom := a.X+a.W-1, a.Y+a.H-1
	for x := a.X + 1; x < right; x++ {
		s.SetContent(x, a.Y, tcell.RuneHLine, nil, p.Style)
		s.SetContent(x, bottom, tcell.RuneHLine, nil, p.Style)
	}
	for y := a.Y + 1; y < bottom; y++ {
		s.SetContent(a.X, y, tcell.RuneVLine, nil, p.Style)
		s.SetContent(right, y, tcell.RuneVLine, nil, p.Style)
	}
	s.SetContent(a.X, a.Y, cornerUL, nil, p.Style)
	s.SetContent(right, a.Y, cornerUR, nil, p.Style)
	s.SetContent(a.X, bottom, cornerLL, nil, p.Style)
	s.SetContent(right, bottom, cornerLR, nil, p.Style)

	if p.Title != "" {
		DrawText(s, a.X+1, a.Y, a.W-2, p.Title, p.Style)
	}
}

// Lines writes one string per inner row, clipping what does not fit.
func (p Panel) Lines(s tcell.Screen, lines []string, style tcell.Style) {
	inner := p.Area.Inner()
	for i, line := range lines {
		if i >= inner.H {
			return
		}
		DrawText(s, inner.X, inner.Y+i, inner.W, line, style)
	}
}

// Split lays out a w x h screen: a one-cell margin, then a canvas on top
// filling the space left by an info panel of at most infoHeight rows.
func Split(w, h, infoHeight int) (canvas, info Rect) {
	outer := Rect{X: 1, Y: 1, W: w - 2, H: h - 2}
	if outer.Empty() {
		return Rect{}, Rect{}
	}
	infoH := min(infoHeight, outer.H/2)
	if infoH < 0 {
		infoH = 0
	}
	canvas = Rect{X: outer.X, Y: outer.Y, W: outer.W, H: outer.H - infoH}
	info = Rect{X: outer.X, Y: outer.Y + canvas.H, W: outer.W, H: infoH}
	return canvas, info
}
