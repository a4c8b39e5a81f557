package raycast

import (
	"fmt"
	"math"
)

// Axis identifies which family of grid lines a crossing belongs to.
type Axis uint8

const (
	// Vertical crossings happen on lines x = const.
	Vertical Axis = iota
	// Horizontal crossings happen on lines y = const.
	Horizontal
)

func (a Axis) String() string {
	switch a {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return fmt.Sprintf("Axis(%d)", uint8(a))
	}
}

// Ray is an origin plus a non-zero direction. The direction does not have to be
// normalized; distances along the ray are measured in multiples of it.
type Ray struct {
	Origin    Vec2
	Direction Vec2
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) Vec2 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Intersection is a crossing of a ray with one grid line.
type Intersection struct {
	Distance float64
	Axis     Axis
	Line     int
}

// Approx reports whether both crossings are on the same axis and line and their
// distances differ by at most tol.
func (i Intersection) Approx(o Intersection, tol float64) bool {
	return i.Axis == o.Axis && i.Line == o.Line && math.Abs(i.Distance-o.Distance) <= tol
}

func (i Intersection) String() string {
	return fmt.Sprintf("%s(%d @ %.4f)", i.Axis, i.Line, i.Distance)
}

// Stepper enumerates the grid-line crossings of a ray in ascending distance.
// It never stops on its own for a non-degenerate ray; callers bound it.
type Stepper struct {
	nextV, nextH float64
	stepV, stepH float64
	lineV, lineH int
	dirV, dirH   int
}

// NewStepper prepares the crossing sequence of r.
func NewStepper(r Ray) *Stepper {
	s := &Stepper{}
	s.Reset(r)
	return s
}

// Reset restarts the stepper for r without allocating.
func (s *Stepper) Reset(r Ray) {
	s.nextV, s.stepV, s.lineV, s.dirV = axisStart(r.Origin.X, r.Direction.X)
	s.nextH, s.stepH, s.lineH, s.dirH = axisStart(r.Origin.Y, r.Direction.Y)
}

// axisStart computes the first crossing distance, the spacing between crossings,
// the first line index and the line increment for one axis.
func axisStart(origin, dir float64) (next, step float64, line, inc int) {
	if dir == 0 || math.IsNaN(dir) || math.IsNaN(origin) {
		return math.Inf(1), math.Inf(1), 0, 0
	}
	var target float64
	if dir > 0 {
		target = math.Ceil(origin)
		inc = 1
	} else {
		target = math.Floor(origin)
		inc = -1
	}
	return (target - origin) / dir, math.Abs(1 / dir), int(target), inc
}

// Next returns the next crossing. ok is false once no finite crossing remains,
// which only happens for degenerate rays.
func (s *Stepper) Next() (Intersection, bool) {
	if s.nextV < s.nextH {
		in := Intersection{Distance: s.nextV, Axis: Vertical, Line: s.lineV}
		s.nextV += s.stepV
		s.lineV += s.dirV
		return in, true
	}
	// Ties go to the horizontal crossing.
	if math.IsInf(s.nextH, 1) {
		return Intersection{}, false
	}
	in := Intersection{Distance: s.nextH, Axis: Horizontal, Line: s.lineH}
	s.nextH += s.stepH
	s.lineH += s.dirH
	return in, true
}
