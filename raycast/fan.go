package raycast

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FanResult holds the hit, if any, for one ray of a fan.
type FanResult struct {
	Hit Hit
	OK  bool
}

// FanCaster resolves hits for a set of rays sharing one origin. out[i] receives
// the result for dirs[i]; len(out) must be at least len(dirs).
type FanCaster interface {
	CastFan(g *Grid, origin Vec2, dirs []Vec2, out []FanResult) error
}

// SequentialCaster casts every ray of a fan on the calling goroutine.
type SequentialCaster struct{}

// CastFan implements FanCaster.
func (SequentialCaster) CastFan(g *Grid, origin Vec2, dirs []Vec2, out []FanResult) error {
	if len(out) < len(dirs) {
		return fmt.Errorf("fan result buffer holds %d of %d rays", len(out), len(dirs))
	}
	return castRange(g, origin, dirs, out)
}

func castRange(g *Grid, origin Vec2, dirs []Vec2, out []FanResult) error {
	for i, d := range dirs {
		hit, ok, err := g.FindHit(Ray{Origin: origin, Direction: d})
		if err != nil {
			return err
		}
		out[i] = FanResult{Hit: hit, OK: ok}
	}
	return nil
}

// ParallelCaster splits a fan across a bounded number of goroutines. Fans
// smaller than MinRays are cast sequentially.
type ParallelCaster struct {
	Workers int
	MinRays int
}

// NewParallelCaster returns a caster using one worker per CPU.
func NewParallelCaster() *ParallelCaster {
	return &ParallelCaster{Workers: runtime.NumCPU(), MinRays: 16}
}

// CastFan implements FanCaster. The grid must not change while it runs.
func (c *ParallelCaster) CastFan(g *Grid, origin Vec2, dirs []Vec2, out []FanResult) error {
	if len(out) < len(dirs) {
		return fmt.Errorf("fan result buffer holds %d of %d rays", len(out), len(dirs))
	}
	workers := c.Workers
	if workers < 1 {
		workers = 1
	}
	if workers == 1 || len(dirs) < c.MinRays {
		return castRange(g, origin, dirs, out)
	}
	chunk := (len(dirs) + workers - 1) / workers
	var eg errgroup.Group
	eg.SetLimit(workers)
	for start := 0; start < len(dirs); start += chunk {
		end := min(start+chunk, len(dirs))
		eg.Go(func() error {
			return castRange(g, origin, dirs[start:end], out[start:end])
		})
	}
	return eg.Wait()
}
