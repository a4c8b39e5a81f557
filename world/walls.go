package world

import (
	"fmt"
	"math/rand"
	"os"

	"ARS/raycast"
)

// WallOptions shapes procedurally generated wall segments.
type WallOptions struct {
	Segments int
	MinLen   int
	MaxLen   int
	// ThicknessVariance adds up to this many cells of thickness on each side.
	ThicknessVariance int
	// ExclusionRadius keeps cells this close to any keep-clear point empty.
	ExclusionRadius float64
}

// GenerateWalls scatters straight horizontal or vertical segments over g. The
// outermost ring of cells is left empty, as are cells near keepClear points.
// It returns the number of cells it occupied.
func GenerateWalls(g *raycast.Grid, rng *rand.Rand, opts WallOptions, keepClear ...raycast.Vec2) int {
	w, h := g.Width(), g.Height()
	if w < 3 || h < 3 {
		return 0
	}
	placed := 0
	set := func(x, y int) {
		if x < 1 || x >= w-1 || y < 1 || y >= h-1 {
			return
		}
		c := raycast.Position{X: x, Y: y}.Center()
		for _, p := range keepClear {
			if c.DistanceTo(p) < opts.ExclusionRadius+0.5 {
				return
			}
		}
		p := raycast.Position{X: x, Y: y}
		if g.Occupied(p) {
			return
		}
		if err := g.Set(p, true); err == nil {
			placed++
		}
	}

	lengthRange := max(opts.MaxLen-opts.MinLen+1, 1)
	for s := 0; s < opts.Segments; s++ {
		length := opts.MinLen + rng.Intn(lengthRange)
		thickness := 0
		if opts.ThicknessVariance > 0 {
			thickness = rng.Intn(opts.ThicknessVariance + 1)
		}
		dx, dy := 0, 1
		if rng.Intn(2) == 0 {
			dx, dy = 1, 0
		}
		cx, cy := 1+rng.Intn(w-2), 1+rng.Intn(h-2)
		for l := 0; l < length; l++ {
			if cx < 1 || cx >= w-1 || cy < 1 || cy >= h-1 {
				break
			}
			for t := -thickness; t <= thickness; t++ {
				set(cx+dy*t, cy+dx*t)
			}
			cx += dx
			cy += dy
		}
	}
	return placed
}

// LoadMap reads a text map file, '#' marking occupied cells.
func LoadMap(path string) (*raycast.Grid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := raycast.ParseGrid(string(raw))
	if err != nil {
		return nil, fmt.Errorf("map %q: %w", path, err)
	}
	return g, nil
}
