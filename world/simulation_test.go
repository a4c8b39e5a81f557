package world_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"ARS/propagation"
	"ARS/raycast"
	"ARS/world"
)

var errCasterDown = errors.New("caster down")

// flakyCaster casts sequentially until fail is set.
type flakyCaster struct {
	mu   sync.Mutex
	fail bool
}

func (c *flakyCaster) CastFan(g *raycast.Grid, origin raycast.Vec2, dirs []raycast.Vec2, out []raycast.FanResult) error {
	c.mu.Lock()
	fail := c.fail
	c.mu.Unlock()
	if fail {
		return errCasterDown
	}
	return raycast.SequentialCaster{}.CastFan(g, origin, dirs, out)
}

func (c *flakyCaster) setFail(v bool) {
	c.mu.Lock()
	c.fail = v
	c.mu.Unlock()
}

type SimulationSuite struct {
	suite.Suite
	caster *flakyCaster
	sim    *world.Simulation
}

func (s *SimulationSuite) SetupTest() {
	s.caster = &flakyCaster{}
	sim, err := world.New(world.DefaultConfig(), nil, s.caster)
	s.Require().NoError(err)
	s.sim = sim
}

func (s *SimulationSuite) TestInitialFrame() {
	f := s.sim.Frame()
	s.Require().NotNil(f)
	s.Equal(uint64(1), f.Seq)
	s.Equal(10, f.Grid.Width())
	s.Equal(raycast.Vec2{X: 1.5, Y: 1.5}, f.Listener)
	s.Require().Len(f.Sources, 1)
	s.Equal("source 1", f.Sources[0].Name)
	s.Len(f.Tree.Casts, 12)
	s.Empty(f.Tree.Children)
	s.Require().Len(f.Receptions, 1)
	s.Equal(0.0, f.Receptions[0].Distance)
	s.Equal(1, f.Stats.Nodes)
}

func (s *SimulationSuite) TestEditsRebuild() {
	s.Require().NoError(s.sim.ToggleCell(raycast.Position{X: 5, Y: 1}, true))
	s.Require().NoError(s.sim.SetSourcePosition(0, raycast.Vec2{X: 3.5, Y: 1.5}))

	f := s.sim.Frame()
	s.Equal(uint64(3), f.Seq)
	s.True(f.Grid.Occupied(raycast.Position{X: 5, Y: 1}))
	s.NotEmpty(f.Tree.Children, "the new wall reflects")
	s.Require().NotEmpty(f.Receptions)
	s.InDelta(2.0, f.Receptions[0].Distance, 1e-9)

	s.Require().NoError(s.sim.SetListenerPosition(raycast.Vec2{X: 8.5, Y: 8.5}))
	s.Equal(raycast.Vec2{X: 8.5, Y: 8.5}, s.sim.Frame().Listener)
}

func (s *SimulationSuite) TestNoOpEditsSkipRebuild() {
	seq := s.sim.Frame().Seq
	s.Require().NoError(s.sim.ToggleCell(raycast.Position{X: 2, Y: 2}, false))
	s.Require().NoError(s.sim.SetListenerPosition(raycast.Vec2{X: 1.5, Y: 1.5}))
	s.Require().NoError(s.sim.SetBranchingFactor(12))
	s.Equal(seq, s.sim.Frame().Seq)

	s.Require().NoError(s.sim.Rebuild())
	s.Equal(seq+1, s.sim.Frame().Seq)
}

func (s *SimulationSuite) TestOutOfBoundsEditsRejected() {
	before := s.sim.Frame()
	s.ErrorIs(s.sim.SetListenerPosition(raycast.Vec2{X: -1, Y: 2}), raycast.ErrOutOfBounds)
	s.ErrorIs(s.sim.SetSourcePosition(0, raycast.Vec2{X: 2, Y: 10.5}), raycast.ErrOutOfBounds)
	s.ErrorIs(s.sim.ToggleCell(raycast.Position{X: 10, Y: 0}, true), raycast.ErrOutOfBounds)
	s.ErrorIs(s.sim.SetSourcePosition(3, raycast.Vec2{X: 2, Y: 2}), world.ErrNoSuchSource)
	_, err := s.sim.AddSource(raycast.Vec2{X: 11, Y: 2})
	s.ErrorIs(err, raycast.ErrOutOfBounds)
	s.ErrorIs(s.sim.SetBranchingFactor(0), propagation.ErrInvalidParams)
	s.Same(before, s.sim.Frame())
}

func (s *SimulationSuite) TestFailedRebuildRollsBack() {
	before := s.sim.Frame()
	s.caster.setFail(true)

	err := s.sim.SetListenerPosition(raycast.Vec2{X: 4.5, Y: 4.5})
	s.ErrorIs(err, errCasterDown)
	err = s.sim.ToggleCell(raycast.Position{X: 3, Y: 3}, true)
	s.ErrorIs(err, errCasterDown)
	_, err = s.sim.AddSource(raycast.Vec2{X: 2.5, Y: 2.5})
	s.ErrorIs(err, errCasterDown)
	s.Same(before, s.sim.Frame(), "the previous frame stays published")

	s.caster.setFail(false)
	s.Require().NoError(s.sim.Rebuild())
	f := s.sim.Frame()
	s.Equal(raycast.Vec2{X: 1.5, Y: 1.5}, f.Listener)
	s.False(f.Grid.Occupied(raycast.Position{X: 3, Y: 3}))
	s.Len(f.Sources, 1)
}

func (s *SimulationSuite) TestFramesAreImmutable() {
	before := s.sim.Frame()
	s.Require().NoError(s.sim.SetSourcePosition(0, raycast.Vec2{X: 6.5, Y: 6.5}))
	s.Require().NoError(s.sim.ToggleCell(raycast.Position{X: 0, Y: 0}, true))

	s.Equal(raycast.Vec2{X: 1.5, Y: 1.5}, before.Sources[0].Position)
	s.False(before.Grid.Occupied(raycast.Position{X: 0, Y: 0}))
	s.Equal(raycast.Vec2{X: 6.5, Y: 6.5}, s.sim.Frame().Sources[0].Position)
}

func (s *SimulationSuite) TestAddSourceAndSubscribe() {
	var got []*world.Frame
	s.sim.Subscribe(func(f *world.Frame) { got = append(got, f) })
	s.Require().Len(got, 1, "subscribers receive the current frame")

	idx, err := s.sim.AddSource(raycast.Vec2{X: 8.5, Y: 1.5})
	s.Require().NoError(err)
	s.Equal(1, idx)
	s.Require().Len(got, 2)
	s.Same(s.sim.Frame(), got[1])
	s.Equal("source 2", got[1].Sources[1].Name)
	s.Len(got[1].Receptions, 2)
}

func (s *SimulationSuite) TestBranchingFactor() {
	s.Require().NoError(s.sim.SetBranchingFactor(5))
	f := s.sim.Frame()
	s.Equal(5, f.Params.BranchingFactor)
	s.Len(f.Tree.Casts, 5)
}

func (s *SimulationSuite) TestClearCells() {
	s.Require().NoError(s.sim.ToggleCell(raycast.Position{X: 5, Y: 1}, true))
	s.Require().NoError(s.sim.ToggleCell(raycast.Position{X: 6, Y: 7}, true))
	walled := s.sim.Frame()

	s.Require().NoError(s.sim.ClearCells())
	f := s.sim.Frame()
	s.Equal(walled.Seq+1, f.Seq)
	s.NotContains(f.Grid.String(), "#")
	s.Contains(walled.Grid.String(), "#", "earlier frames keep their walls")

	s.Require().NoError(s.sim.ClearCells())
	s.Equal(f.Seq, s.sim.Frame().Seq, "clearing an empty grid is a no-op")

	s.Require().NoError(s.sim.ToggleCell(raycast.Position{X: 2, Y: 2}, true))
	s.caster.setFail(true)
	s.ErrorIs(s.sim.ClearCells(), errCasterDown)
	s.caster.setFail(false)
	s.Require().NoError(s.sim.Rebuild())
	s.True(s.sim.Frame().Grid.Occupied(raycast.Position{X: 2, Y: 2}), "failed clear is rolled back")
}

func (s *SimulationSuite) TestReceptionSourcesBelongToFrame() {
	_, err := s.sim.AddSource(raycast.Vec2{X: 8.5, Y: 1.5})
	s.Require().NoError(err)
	s.Require().NoError(s.sim.ToggleCell(raycast.Position{X: 5, Y: 5}, true))
	before := s.sim.Frame()

	s.Require().NoError(s.sim.SetSourcePosition(1, raycast.Vec2{X: 8.5, Y: 2.5}))
	after := s.sim.Frame()

	for _, f := range []*world.Frame{before, after} {
		s.Require().NotEmpty(f.Receptions)
		for _, r := range f.Receptions {
			i := f.SourceIndex(r.Source)
			s.Require().GreaterOrEqual(i, 0, "reception source comes from its own frame")
			s.Same(f.Sources[i], r.Source)
		}
	}
	s.Equal(-1, after.SourceIndex(before.Sources[1]), "pointers are per frame")
	s.Equal(before.Sources[1].Name, after.Sources[1].Name, "index and name carry identity")
	s.Equal(raycast.Vec2{X: 8.5, Y: 2.5}, after.Sources[1].Position)
}

func TestSimulationSuite(t *testing.T) {
	suite.Run(t, new(SimulationSuite))
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := world.DefaultConfig()
	cfg.Listener = raycast.Vec2{X: 20, Y: 1}
	_, err := world.New(cfg, nil, nil)
	assert.ErrorIs(t, err, raycast.ErrOutOfBounds)

	cfg = world.DefaultConfig()
	cfg.MaxSteps = -1
	_, err = world.New(cfg, nil, nil)
	assert.ErrorIs(t, err, propagation.ErrInvalidParams)

	cfg = world.DefaultConfig()
	cfg.Width = 0
	_, err = world.New(cfg, nil, nil)
	assert.ErrorIs(t, err, raycast.ErrInvalidSize)

	g, err := raycast.ParseGrid("..#\n...\n")
	require.NoError(t, err)
	cfg = world.DefaultConfig()
	sim, err := world.New(cfg, g, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, sim.Frame().Grid.Width())
}

func TestConcurrentEditsAndReads(t *testing.T) {
	sim, err := world.New(world.DefaultConfig(), nil, &raycast.ParallelCaster{Workers: 2, MinRays: 4})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 30; i++ {
				x := float64((i+w)%9) + 0.5
				switch w {
				case 0:
					assert.NoError(t, sim.SetListenerPosition(raycast.Vec2{X: x, Y: 1.5}))
				case 1:
					assert.NoError(t, sim.SetSourcePosition(0, raycast.Vec2{X: 8.5, Y: x}))
				default:
					assert.NoError(t, sim.ToggleCell(raycast.Position{X: 5, Y: i % 10}, i%2 == 0))
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			f := sim.Frame()
			assert.Equal(t, f.Stats.Links, len(f.Receptions))
		}
	}()
	wg.Wait()
}

func TestListenerOnBorderLine(t *testing.T) {
	g, err := raycast.ParseGrid(strings.Repeat(".....#....\n", 10))
	require.NoError(t, err)
	cfg := world.DefaultConfig()
	cfg.Sources = []raycast.Vec2{{X: 7.5, Y: 1.5}}
	sim, err := world.New(cfg, g, nil)
	require.NoError(t, err)

	for _, v := range []raycast.Vec2{{X: 0, Y: 1.5}, {X: 2.5, Y: 0}, {X: 2.5, Y: 10}} {
		require.NoError(t, sim.SetListenerPosition(v))
		assert.Empty(t, sim.Frame().Receptions, "listener %v is walled off from the source", v)
	}

	require.NoError(t, sim.SetListenerPosition(raycast.Vec2{X: 10, Y: 1.5}))
	f := sim.Frame()
	require.NotEmpty(t, f.Receptions)
	assert.InDelta(t, 2.5, f.Receptions[0].Distance, 1e-9, "same side of the wall")
}
