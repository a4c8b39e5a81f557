package world

import (
	"fmt"

	"ARS/propagation"
	"ARS/raycast"
)

// Config describes the starting world and the ray tree bounds.
type Config struct {
	Width, Height   int
	BranchingFactor int
	MaxDistance     float64
	MaxSteps        int
	Listener        raycast.Vec2
	// Sources are the initial emitter positions.
	Sources []raycast.Vec2
}

// DefaultConfig is a 10x10 empty room with one source sitting on the listener.
func DefaultConfig() Config {
	listener := raycast.Vec2{X: 1.5, Y: 1.5}
	return Config{
		Width:           10,
		Height:          10,
		BranchingFactor: 12,
		MaxDistance:     50,
		MaxSteps:        2,
		Listener:        listener,
		Sources:         []raycast.Vec2{listener},
	}
}

// Params returns the tree bounds.
func (c Config) Params() propagation.Params {
	return propagation.Params{
		BranchingFactor: c.BranchingFactor,
		MaxDistance:     c.MaxDistance,
		MaxSteps:        c.MaxSteps,
	}
}

// Validate checks the tree bounds and that every position lies inside g.
func (c Config) Validate(g *raycast.Grid) error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if !g.Contains(c.Listener) {
		return fmt.Errorf("listener %v: %w", c.Listener, raycast.ErrOutOfBounds)
	}
	for i, p := range c.Sources {
		if !g.Contains(p) {
			return fmt.Errorf("source %d at %v: %w", i, p, raycast.ErrOutOfBounds)
		}
	}
	return nil
}
