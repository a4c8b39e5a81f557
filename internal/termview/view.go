// Package termview draws simulation frames on a terminal and maps terminal
// input back to world edits.
package termview

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"ARS/propagation"
	"ARS/raycast"
	"ARS/world"
)

const statusRows = 2

var (
	cellStyle     = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	edgeStyle     = tcell.StyleDefault.Foreground(tcell.ColorRed)
	linkStyle     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	listenerStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	sourceStyle   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	statusStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

// View renders frames onto a tcell screen. Each grid cell covers rows x 2*rows
// terminal cells so it looks roughly square.
type View struct {
	screen tcell.Screen
	rows   int
	gridW  int
	gridH  int
}

// New creates a view on screen.
func New(screen tcell.Screen) *View {
	return &View{screen: screen, rows: 1}
}

// fit picks the largest cell scale at which the grid and status lines fit.
func (v *View) fit(g *raycast.Grid) {
	sw, sh := v.screen.Size()
	v.gridW, v.gridH = g.Width(), g.Height()
	rows := (sh - statusRows) / v.gridH
	if byCols := sw / (2 * v.gridW); byCols < rows {
		rows = byCols
	}
	v.rows = max(rows, 1)
}

func (v *View) cols() int { return 2 * v.rows }

// project maps world coordinates to terminal coordinates.
func (v *View) project(p raycast.Vec2) (int, int) {
	x := int(math.Floor(p.X * float64(v.cols())))
	y := int(math.Floor(p.Y * float64(v.rows)))
	return min(x, v.gridW*v.cols()-1), min(y, v.gridH*v.rows-1)
}

// WorldAt maps a terminal position to world coordinates at the centre of the
// terminal cell. ok is false outside the grid.
func (v *View) WorldAt(x, y int) (raycast.Vec2, bool) {
	if x < 0 || y < 0 || x >= v.gridW*v.cols() || y >= v.gridH*v.rows {
		return raycast.Vec2{}, false
	}
	return raycast.Vec2{
		X: (float64(x) + 0.5) / float64(v.cols()),
		Y: (float64(y) + 0.5) / float64(v.rows),
	}, true
}

// Draw renders f and a status line, then shows the screen. Occupied cells are
// drawn over the rays so walls stay solid.
func (v *View) Draw(f *world.Frame, status string) {
	v.fit(f.Grid)
	v.screen.Clear()

	propagation.Walk(f.Tree, func(n, _ *propagation.Node, _ int) bool {
		x0, y0 := v.project(n.Position)
		for _, c := range n.Casts {
			if !c.Hit {
				continue
			}
			x1, y1 := v.project(c.End)
			v.line(x0, y0, x1, y1, '·', edgeStyle)
		}
		for _, s := range n.Sources {
			x1, y1 := v.project(s.Position)
			v.line(x0, y0, x1, y1, '·', linkStyle)
		}
		return true
	})

	for gy := 0; gy < v.gridH; gy++ {
		for gx := 0; gx < v.gridW; gx++ {
			if !f.Grid.Occupied(raycast.Position{X: gx, Y: gy}) {
				continue
			}
			for y := gy * v.rows; y < (gy+1)*v.rows; y++ {
				for x := gx * v.cols(); x < (gx+1)*v.cols(); x++ {
					v.screen.SetContent(x, y, '█', nil, cellStyle)
				}
			}
		}
	}

	for _, s := range f.Sources {
		x, y := v.project(s.Position)
		v.screen.SetContent(x, y, '*', nil, sourceStyle)
	}
	x, y := v.project(f.Listener)
	v.screen.SetContent(x, y, '@', nil, listenerStyle)

	_, sh := v.screen.Size()
	v.text(0, sh-1, status, statusStyle)
	v.screen.Show()
}

// line plots a segment using Bresenham's integer algorithm. Endpoints are
// left for the markers.
func (v *View) line(x0, y0, x1, y1 int, r rune, style tcell.Style) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if x0 == x1 && y0 == y1 {
			return
		}
		v.screen.SetContent(x0, y0, r, nil, style)
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (v *View) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
