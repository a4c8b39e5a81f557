package raycast

import (
	"errors"
	"fmt"
	"math"
)

// SelfHitEpsilon is the distance along a ray below which crossings are ignored,
// so rays cast from a wall face do not immediately hit that face again.
const SelfHitEpsilon = 0.01

// ErrUnterminatedRay reports a ray that kept crossing grid lines without ever
// reaching the grid border. It indicates a broken invariant, not bad input.
var ErrUnterminatedRay = errors.New("ray never reached the grid border")

// Hit is an empty-to-occupied transition along a ray.
type Hit struct {
	Position   Vec2
	Reflection float64
	Distance   float64
}

// transition is a crossing where occupancy changes.
type transition struct {
	position Vec2
	distance float64
	exited   bool
	entered  bool
}

// walker turns the crossings of a ray into occupancy transitions and stops at
// the grid border.
type walker struct {
	g         *Grid
	ray       Ray
	stepper   Stepper
	remaining int
}

func (g *Grid) newWalker(r Ray) walker {
	w := walker{g: g, ray: r}
	if !r.Origin.IsFinite() || !r.Direction.IsFinite() {
		// Leaves the stepper degenerate so no crossing is produced.
		w.stepper.Reset(Ray{Origin: Vec2{math.NaN(), math.NaN()}})
		return w
	}
	w.stepper.Reset(r)
	w.remaining = g.width + g.height + 4 +
		int(math.Ceil(math.Abs(r.Origin.X))) + int(math.Ceil(math.Abs(r.Origin.Y)))
	return w
}

// next returns the next transition. ok is false once the ray leaves the grid.
func (w *walker) next() (transition, bool, error) {
	for {
		in, ok := w.stepper.Next()
		if !ok {
			return transition{}, false, nil
		}
		if w.remaining <= 0 {
			return transition{}, false, fmt.Errorf("%w: origin %v direction %v", ErrUnterminatedRay, w.ray.Origin, w.ray.Direction)
		}
		w.remaining--

		pos := w.ray.At(in.Distance)
		var from, to Position
		switch in.Axis {
		case Vertical:
			if leaving(in.Line, w.g.width, w.ray.Direction.X) {
				return transition{}, false, nil
			}
			row := int(math.Floor(pos.Y))
			from, to = Position{in.Line - 1, row}, Position{in.Line, row}
			if w.ray.Direction.X < 0 {
				from, to = to, from
			}
		case Horizontal:
			if leaving(in.Line, w.g.height, w.ray.Direction.Y) {
				return transition{}, false, nil
			}
			col := int(math.Floor(pos.X))
			from, to = Position{col, in.Line - 1}, Position{col, in.Line}
			if w.ray.Direction.Y < 0 {
				from, to = to, from
			}
		}

		exited, entered := w.g.Occupied(from), w.g.Occupied(to)
		if exited != entered {
			return transition{position: pos, distance: in.Distance, exited: exited, entered: entered}, true, nil
		}
	}
}

// leaving reports whether crossing border line (0 or size) moves the ray out
// of the grid. A ray starting on a border line and heading inwards crosses it
// at t=0 and keeps going.
func leaving(line, size int, dir float64) bool {
	return (line == 0 && dir < 0) || (line == size && dir > 0)
}

// FindHit returns the first empty-to-occupied crossing along r. ok is false when
// the ray leaves the grid first, or when it starts inside an obstacle and exits it.
func (g *Grid) FindHit(r Ray) (hit Hit, ok bool, err error) {
	w := g.newWalker(r)
	for {
		tr, more, err := w.next()
		if err != nil || !more {
			return Hit{}, false, err
		}
		if tr.distance <= SelfHitEpsilon {
			continue
		}
		if !tr.exited && tr.entered {
			return Hit{Position: tr.position, Reflection: 1, Distance: tr.distance}, true, nil
		}
		return Hit{}, false, nil
	}
}

// Unobstructed reports whether the segment start->stop crosses no occupancy
// boundary. Distances are measured in segment lengths, so 1.0 is stop itself.
func (g *Grid) Unobstructed(start, stop Vec2) (bool, error) {
	d := stop.Sub(start)
	if d.IsZero() {
		return true, nil
	}
	w := g.newWalker(Ray{Origin: start, Direction: d})
	for {
		tr, more, err := w.next()
		if err != nil {
			return false, err
		}
		if !more {
			return true, nil
		}
		if tr.distance <= SelfHitEpsilon {
			continue
		}
		return tr.distance >= 1, nil
	}
}
