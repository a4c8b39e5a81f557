package raycast

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrOutOfBounds is returned when a write or a world position falls outside the grid.
	ErrOutOfBounds = errors.New("position outside grid")
	// ErrInvalidSize is returned for grids without cells.
	ErrInvalidSize = errors.New("grid dimensions must be positive")
)

// Grid stores the occupancy of a fixed Width x Height cell area.
type Grid struct {
	width, height int
	cells         []bool
	revision      uint64
}

// NewGrid allocates an empty grid.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Grid{width: width, height: height, cells: make([]bool, width*height)}, nil
}

// ParseGrid builds a grid from a text map where '#' marks an occupied cell and
// any other rune an empty one. Blank lines are skipped; the widest row sets the width.
func ParseGrid(text string) (*Grid, error) {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	width := 0
	for _, row := range rows {
		if n := len([]rune(row)); n > width {
			width = n
		}
	}
	g, err := NewGrid(width, len(rows))
	if err != nil {
		return nil, fmt.Errorf("parsing grid: %w", err)
	}
	for y, row := range rows {
		for x, r := range []rune(row) {
			if r == '#' {
				g.cells[y*width+x] = true
			}
		}
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Revision increases every time the occupancy changes.
func (g *Grid) Revision() uint64 { return g.revision }

// InBounds reports whether p addresses a cell of the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Contains reports whether v lies inside the closed world rectangle [0,W]x[0,H].
func (g *Grid) Contains(v Vec2) bool {
	return v.IsFinite() && v.X >= 0 && v.X <= float64(g.width) && v.Y >= 0 && v.Y <= float64(g.height)
}

// Occupied reports whether the cell at p is blocked. Cells outside the grid are empty.
func (g *Grid) Occupied(p Position) bool {
	if !g.InBounds(p) {
		return false
	}
	return g.cells[p.Y*g.width+p.X]
}

// Set changes the occupancy of one cell.
func (g *Grid) Set(p Position, occupied bool) error {
	if !g.InBounds(p) {
		return fmt.Errorf("setting cell %v: %w", p, ErrOutOfBounds)
	}
	idx := p.Y*g.width + p.X
	if g.cells[idx] != occupied {
		g.cells[idx] = occupied
		g.revision++
	}
	return nil
}

// Clear empties every cell.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = false
	}
	g.revision++
}

// Clone returns an independent copy sharing no state with g.
func (g *Grid) Clone() *Grid {
	cells := make([]bool, len(g.cells))
	copy(cells, g.cells)
	return &Grid{width: g.width, height: g.height, cells: cells, revision: g.revision}
}

// Cells returns the row-major occupancy slice. Callers must not modify it.
func (g *Grid) Cells() []bool { return g.cells }

// String renders the grid in the ParseGrid format.
func (g *Grid) String() string {
	var b strings.Builder
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.cells[y*g.width+x] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Exit returns where r leaves the world rectangle [0,W]x[0,H] and the distance
// along r at which that happens. The origin is expected inside the rectangle.
func (g *Grid) Exit(r Ray) (Vec2, float64) {
	t := math.Inf(1)
	if r.Direction.X > 0 {
		t = math.Min(t, (float64(g.width)-r.Origin.X)/r.Direction.X)
	} else if r.Direction.X < 0 {
		t = math.Min(t, -r.Origin.X/r.Direction.X)
	}
	if r.Direction.Y > 0 {
		t = math.Min(t, (float64(g.height)-r.Origin.Y)/r.Direction.Y)
	} else if r.Direction.Y < 0 {
		t = math.Min(t, -r.Origin.Y/r.Direction.Y)
	}
	if math.IsInf(t, 1) || math.IsNaN(t) || t < 0 {
		t = 0
	}
	return r.At(t), t
}
