// Package world owns the editable scene and republishes a fresh ray tree and
// reception list after every change.
package world

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ARS/propagation"
	"ARS/raycast"
)

// ErrNoSuchSource is returned for a source index that does not exist.
var ErrNoSuchSource = errors.New("no such source")

// Frame is an immutable result of one rebuild. Nothing in it is modified after
// publication, so it can be read from any goroutine.
//
// Every frame holds its own copies of the sources. Within a frame each
// Reception.Source points into Sources; across frames a source is identified
// by its index in Sources (and its Name), never by pointer.
type Frame struct {
	Seq        uint64
	Grid       *raycast.Grid
	Listener   raycast.Vec2
	Sources    []*propagation.AudioSource
	Params     propagation.Params
	Tree       *propagation.Node
	Receptions []propagation.Reception
	Stats      propagation.TreeStats
	Elapsed    time.Duration
}

// SourceIndex returns the index of src in f.Sources, or -1 when src belongs to
// another frame.
func (f *Frame) SourceIndex(src *propagation.AudioSource) int {
	for i, s := range f.Sources {
		if s == src {
			return i
		}
	}
	return -1
}

// Simulation serialises world edits and rebuilds. A failed rebuild rolls the
// edit back and keeps the previous frame.
type Simulation struct {
	mu       sync.Mutex
	params   propagation.Params
	grid     *raycast.Grid
	listener raycast.Vec2
	sources  []*propagation.AudioSource
	caster   raycast.FanCaster
	subs     []func(*Frame)
	seq      uint64

	frame atomic.Pointer[Frame]
}

// New builds the initial frame. A nil grid is replaced by an empty one of the
// configured size; a nil caster casts sequentially.
func New(cfg Config, grid *raycast.Grid, caster raycast.FanCaster) (*Simulation, error) {
	if grid == nil {
		var err error
		if grid, err = raycast.NewGrid(cfg.Width, cfg.Height); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(grid); err != nil {
		return nil, err
	}
	if caster == nil {
		caster = raycast.SequentialCaster{}
	}
	s := &Simulation{
		params:   cfg.Params(),
		grid:     grid,
		listener: cfg.Listener,
		caster:   caster,
	}
	for _, p := range cfg.Sources {
		s.sources = append(s.sources, propagation.NewAudioSource(sourceName(len(s.sources)), p))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rebuild(); err != nil {
		return nil, fmt.Errorf("initial rebuild: %w", err)
	}
	return s, nil
}

func sourceName(i int) string { return fmt.Sprintf("source %d", i+1) }

// Frame returns the latest published frame.
func (s *Simulation) Frame() *Frame { return s.frame.Load() }

// Subscribe registers fn to receive every new frame, starting with the current
// one. fn runs on the editing goroutine and must not call back into s.
func (s *Simulation) Subscribe(fn func(*Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	if f := s.frame.Load(); f != nil {
		fn(f)
	}
}

// SetListenerPosition moves the listener.
func (s *Simulation) SetListenerPosition(v raycast.Vec2) error {
	return s.apply(func() (func(), error) {
		if !s.grid.Contains(v) {
			return nil, fmt.Errorf("listener %v: %w", v, raycast.ErrOutOfBounds)
		}
		prev := s.listener
		if prev == v {
			return nil, nil
		}
		s.listener = v
		return func() { s.listener = prev }, nil
	})
}

// SetSourcePosition moves source i.
func (s *Simulation) SetSourcePosition(i int, v raycast.Vec2) error {
	return s.apply(func() (func(), error) {
		if i < 0 || i >= len(s.sources) {
			return nil, fmt.Errorf("source %d: %w", i, ErrNoSuchSource)
		}
		if !s.grid.Contains(v) {
			return nil, fmt.Errorf("source %d at %v: %w", i, v, raycast.ErrOutOfBounds)
		}
		src := s.sources[i]
		prev := src.Position
		if prev == v {
			return nil, nil
		}
		src.Position = v
		return func() { src.Position = prev }, nil
	})
}

// AddSource places a new source at v and returns its index.
func (s *Simulation) AddSource(v raycast.Vec2) (int, error) {
	idx := -1
	err := s.apply(func() (func(), error) {
		if !s.grid.Contains(v) {
			return nil, fmt.Errorf("new source at %v: %w", v, raycast.ErrOutOfBounds)
		}
		idx = len(s.sources)
		s.sources = append(s.sources, propagation.NewAudioSource(sourceName(idx), v))
		return func() { s.sources = s.sources[:idx] }, nil
	})
	if err != nil {
		return -1, err
	}
	return idx, nil
}

// ToggleCell sets the occupancy of one cell.
func (s *Simulation) ToggleCell(p raycast.Position, occupied bool) error {
	return s.apply(func() (func(), error) {
		if !s.grid.InBounds(p) {
			return nil, fmt.Errorf("cell %v: %w", p, raycast.ErrOutOfBounds)
		}
		prev := s.grid.Occupied(p)
		if prev == occupied {
			return nil, nil
		}
		if err := s.grid.Set(p, occupied); err != nil {
			return nil, err
		}
		return func() { _ = s.grid.Set(p, prev) }, nil
	})
}

// ClearCells empties every cell of the grid.
func (s *Simulation) ClearCells() error {
	return s.apply(func() (func(), error) {
		prev := s.grid.Clone()
		s.grid.Clear()
		if prev.String() == s.grid.String() {
			return nil, nil
		}
		return func() { s.grid = prev }, nil
	})
}

// SetBranchingFactor changes the number of rays per fan.
func (s *Simulation) SetBranchingFactor(b int) error {
	return s.apply(func() (func(), error) {
		next := s.params
		next.BranchingFactor = b
		if err := next.Validate(); err != nil {
			return nil, err
		}
		prev := s.params
		if prev == next {
			return nil, nil
		}
		s.params = next
		return func() { s.params = prev }, nil
	})
}

// Rebuild recomputes the frame without changing the world.
func (s *Simulation) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuild()
}

// apply runs change under the lock and rebuilds. change returns a nil undo
// when it left the world untouched, in which case no rebuild happens.
func (s *Simulation) apply(change func() (undo func(), err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	undo, err := change()
	if err != nil || undo == nil {
		return err
	}
	if err := s.rebuild(); err != nil {
		undo()
		return fmt.Errorf("rebuild: %w", err)
	}
	return nil
}

// rebuild must be called with mu held.
func (s *Simulation) rebuild() error {
	start := time.Now()

	// The frame keeps its own copies so later edits cannot reach it.
	sources := make([]*propagation.AudioSource, len(s.sources))
	for i, src := range s.sources {
		c := *src
		sources[i] = &c
	}

	root, err := propagation.Build(s.grid, sources, s.listener, s.params, s.caster)
	if err != nil {
		return err
	}
	s.seq++
	f := &Frame{
		Seq:        s.seq,
		Grid:       s.grid.Clone(),
		Listener:   s.listener,
		Sources:    sources,
		Params:     s.params,
		Tree:       root,
		Receptions: propagation.Flatten(root),
		Stats:      propagation.Stats(root),
	}
	f.Elapsed = time.Since(start)
	s.frame.Store(f)
	for _, fn := range s.subs {
		fn(f)
	}
	return nil
}
