// Package propagation grows reflection trees from a listener position and
// flattens them into per-path receptions for the mixer.
package propagation

import (
	"errors"
	"fmt"
	"math"

	"ARS/raycast"
)

// MinHitDistance is the shortest hit distance that may spawn a reflection.
const MinHitDistance = raycast.SelfHitEpsilon

// ErrInvalidParams is returned for unusable tree parameters.
var ErrInvalidParams = errors.New("invalid ray tree parameters")

// AudioSource is an emitter placed in the world. Identity is the pointer;
// Position changes as the source is moved.
type AudioSource struct {
	Name     string
	Position raycast.Vec2
}

// NewAudioSource creates a source at pos.
func NewAudioSource(name string, pos raycast.Vec2) *AudioSource {
	return &AudioSource{Name: name, Position: pos}
}

// Params bounds a ray tree.
type Params struct {
	BranchingFactor int
	MaxDistance     float64
	MaxSteps        int
}

// Validate reports parameters that cannot produce a finite tree.
func (p Params) Validate() error {
	switch {
	case p.BranchingFactor < 1:
		return fmt.Errorf("%w: branching factor %d", ErrInvalidParams, p.BranchingFactor)
	case p.MaxSteps < 0:
		return fmt.Errorf("%w: max steps %d", ErrInvalidParams, p.MaxSteps)
	case !(p.MaxDistance > 0) || math.IsInf(p.MaxDistance, 0):
		return fmt.Errorf("%w: max distance %v", ErrInvalidParams, p.MaxDistance)
	}
	return nil
}

// Cast records one ray emitted from a node: where it ended and whether it hit
// an obstacle there. Rays that leave the grid end on the border.
type Cast struct {
	End raycast.Vec2
	Hit bool
}

// Node is one reflection point of a ray tree. The root is the listener.
type Node struct {
	Position        raycast.Vec2
	BranchingFactor int
	Casts           []Cast
	Children        []*Node
	Sources         []*AudioSource
}

// FanDirections returns n unit vectors evenly spaced over the full circle,
// starting at angle 0.
func FanDirections(n int) []raycast.Vec2 {
	dirs := make([]raycast.Vec2, n)
	for i := range dirs {
		dirs[i] = raycast.FromAngle(2 * math.Pi * float64(i) / float64(n))
	}
	return dirs
}

type builder struct {
	grid    *raycast.Grid
	sources []*AudioSource
	factor  int
	caster  raycast.FanCaster
	dirs    []raycast.Vec2
}

// Build grows a ray tree rooted at origin. The grid and source positions must
// not change while it runs. A nil caster casts sequentially.
func Build(grid *raycast.Grid, sources []*AudioSource, origin raycast.Vec2, p Params, caster raycast.FanCaster) (*Node, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if caster == nil {
		caster = raycast.SequentialCaster{}
	}
	b := &builder{
		grid:    grid,
		sources: sources,
		factor:  p.BranchingFactor,
		caster:  caster,
		dirs:    FanDirections(p.BranchingFactor),
	}
	return b.build(origin, p.MaxDistance, p.MaxSteps)
}

func (b *builder) build(origin raycast.Vec2, maxDistance float64, maxSteps int) (*Node, error) {
	node := &Node{Position: origin, BranchingFactor: b.factor}

	if maxSteps > 0 {
		results := make([]raycast.FanResult, len(b.dirs))
		if err := b.caster.CastFan(b.grid, origin, b.dirs, results); err != nil {
			return nil, fmt.Errorf("casting fan at %v: %w", origin, err)
		}
		node.Casts = make([]Cast, len(results))
		for i, r := range results {
			if !r.OK {
				end, _ := b.grid.Exit(raycast.Ray{Origin: origin, Direction: b.dirs[i]})
				node.Casts[i] = Cast{End: end}
				continue
			}
			node.Casts[i] = Cast{End: r.Hit.Position, Hit: true}
			d := r.Hit.Distance
			if r.Hit.Reflection <= 0 || d <= MinHitDistance || d >= maxDistance {
				continue
			}
			child, err := b.build(r.Hit.Position, maxDistance-d, maxSteps-1)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		}
	}

	for _, s := range b.sources {
		if s.Position == origin {
			node.Sources = append(node.Sources, s)
			continue
		}
		visible, err := b.grid.Unobstructed(origin, s.Position)
		if err != nil {
			return nil, fmt.Errorf("line of sight to %q: %w", s.Name, err)
		}
		if visible {
			node.Sources = append(node.Sources, s)
		}
	}
	return node, nil
}
