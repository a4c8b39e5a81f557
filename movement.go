package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"ARS/raycast"
)

// moveSpeed is the listener speed in cells per tick for keyboard movement.
const moveSpeed = 0.08

// movementVector returns arrow-key movement scaled by moveSpeed.
func movementVector() (float64, float64) {
	dx, dy := 0.0, 0.0
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		dy -= moveSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		dy += moveSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		dx -= moveSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		dx += moveSpeed
	}
	if dx != 0 && dy != 0 {
		dx *= 0.7071
		dy *= 0.7071
	}
	return dx, dy
}

// handleMovement walks the listener with the arrow keys. Moves into an
// occupied cell are refused.
func (g *Game) handleMovement() {
	dx, dy := movementVector()
	if dx == 0 && dy == 0 {
		return
	}
	f := g.sim.Frame()
	next := raycast.Vec2{
		X: clampCoord(f.Listener.X+dx, 0, float64(f.Grid.Width())),
		Y: clampCoord(f.Listener.Y+dy, 0, float64(f.Grid.Height())),
	}
	if f.Grid.Occupied(next.Cell()) {
		return
	}
	g.reportEdit("Moving listener", g.sim.SetListenerPosition(next))
}

// handlePointer applies mouse edits: left moves the listener (or source 1
// while A is held), right fills a cell and Shift+right clears it.
func (g *Game) handlePointer() {
	pos := g.screenToWorld(ebiten.CursorPosition())
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if ebiten.IsKeyPressed(ebiten.KeyA) {
			g.reportEdit("Moving source", g.sim.SetSourcePosition(0, pos))
		} else {
			g.reportEdit("Moving listener", g.sim.SetListenerPosition(pos))
		}
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		cell := g.cellAt(pos)
		occupied := !ebiten.IsKeyPressed(ebiten.KeyShift)
		g.reportEdit("Editing cell", g.sim.ToggleCell(cell, occupied))
	}
}

// cellAt maps a world position to its cell, keeping the far edges inside.
func (g *Game) cellAt(v raycast.Vec2) raycast.Position {
	grid := g.sim.Frame().Grid
	p := v.Cell()
	p.X = min(p.X, grid.Width()-1)
	p.Y = min(p.Y, grid.Height()-1)
	return p
}

// handleHotkeys processes R (rewind), N (new source), C (clear walls), F5
// (rebuild) and +/- (branching).
func (g *Game) handleHotkeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyR) && g.mix != nil {
		g.mix.Rewind()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.reportEdit("Clearing walls", g.sim.ClearCells())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.reportEdit("Rebuilding", g.sim.Rebuild())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		_, err := g.sim.AddSource(g.screenToWorld(ebiten.CursorPosition()))
		g.reportEdit("Adding source", err)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		g.adjustBranching(-branchingStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		g.adjustBranching(branchingStep)
	}
}

// adjustBranching changes the rays per fan within bounds.
func (g *Game) adjustBranching(delta int) {
	b := g.sim.Frame().Params.BranchingFactor + delta
	b = int(clampCoord(float64(b), minBranchingFactor, maxBranchingFactor))
	g.reportEdit("Changing branching factor", g.sim.SetBranchingFactor(b))
}
