package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"ARS/propagation"
	"ARS/raycast"
	"ARS/world"
)

var (
	backgroundColor = color.RGBA{12, 12, 18, 255}
	cellColor       = color.RGBA{40, 70, 200, 255}
	gridLineColor   = color.RGBA{35, 35, 45, 255}
	edgeColor       = color.RGBA{220, 40, 40, 160}
	missColor       = color.RGBA{220, 40, 40, 50}
	sourceLinkColor = color.RGBA{40, 200, 80, 160}
	listenerColor   = color.RGBA{255, 40, 40, 255}
	sourceColor     = color.RGBA{40, 220, 80, 255}
)

// Draw renders the latest frame: cells, the ray tree, source links and the
// listener and source markers.
func (g *Game) Draw(screen *ebiten.Image) {
	f := g.sim.Frame()
	screen.Fill(backgroundColor)
	g.drawGrid(screen, f.Grid)
	g.drawTree(screen, f.Tree)

	lx, ly := g.worldToScreen(f.Listener)
	vector.DrawFilledCircle(screen, lx, ly, listenerDotRadius, listenerColor, true)
	for _, s := range f.Sources {
		sx, sy := g.worldToScreen(s.Position)
		vector.DrawFilledCircle(screen, sx, sy, sourceDotRadius, sourceColor, true)
	}

	if *debugFlag {
		g.drawOverlay(screen, f)
	}
}

func (g *Game) drawGrid(screen *ebiten.Image, grid *raycast.Grid) {
	size := float32(g.cell)
	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			px, py := float32(x)*size, float32(y)*size
			if grid.Occupied(raycast.Position{X: x, Y: y}) {
				vector.FillRect(screen, px, py, size, size, cellColor, false)
			}
			if size >= 8 {
				vector.StrokeRect(screen, px, py, size, size, 1, gridLineColor, false)
			}
		}
	}
}

// drawTree strokes every cast: parent to child for reflections, faint lines
// for rays that missed, and green links from each node to the sources it sees.
func (g *Game) drawTree(screen *ebiten.Image, root *propagation.Node) {
	propagation.Walk(root, func(n, _ *propagation.Node, _ int) bool {
		x0, y0 := g.worldToScreen(n.Position)
		for _, c := range n.Casts {
			x1, y1 := g.worldToScreen(c.End)
			clr := missColor
			if c.Hit {
				clr = edgeColor
			}
			vector.StrokeLine(screen, x0, y0, x1, y1, rayStrokeWidth, clr, true)
		}
		for _, s := range n.Sources {
			x1, y1 := g.worldToScreen(s.Position)
			vector.StrokeLine(screen, x0, y0, x1, y1, rayStrokeWidth, sourceLinkColor, true)
		}
		return true
	})
}

func (g *Game) drawOverlay(screen *ebiten.Image, f *world.Frame) {
	msg := fmt.Sprintf("FPS: %.1f\nBranching: %d (+/-), steps %d, max distance %.0f\nTree: %d nodes, depth %d\nReceptions: %d\nRebuild: %.2f ms",
		ebiten.ActualFPS(), f.Params.BranchingFactor, f.Params.MaxSteps, f.Params.MaxDistance,
		f.Stats.Nodes, f.Stats.Depth, len(f.Receptions), f.Elapsed.Seconds()*1000)
	if g.mix != nil {
		st := g.mix.Stats()
		msg += fmt.Sprintf("\nMixed: %d admitted, %d dropped", st.Admitted, st.Dropped)
	}
	ebitenutil.DebugPrint(screen, msg)
}
