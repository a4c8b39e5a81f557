package main

import (
	"math"

	"ARS/raycast"
)

// screenToWorld converts a cursor position to world coordinates, clamped to
// the grid so edge clicks stay valid.
func (g *Game) screenToWorld(x, y int) raycast.Vec2 {
	grid := g.sim.Frame().Grid
	return raycast.Vec2{
		X: clampCoord(float64(x)/g.cell, 0, float64(grid.Width())),
		Y: clampCoord(float64(y)/g.cell, 0, float64(grid.Height())),
	}
}

// worldToScreen converts world coordinates to screen pixels.
func (g *Game) worldToScreen(v raycast.Vec2) (float32, float32) {
	return float32(v.X * g.cell), float32(v.Y * g.cell)
}

// clampCoord constrains v to lie within the inclusive [min, max] range.
func clampCoord(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
