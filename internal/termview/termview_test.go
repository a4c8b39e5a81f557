package termview_test

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ARS/internal/termview"
	"ARS/raycast"
	"ARS/world"
)

type countingRewinder struct{ n int }

func (r *countingRewinder) Rewind() { r.n++ }

func setup(t *testing.T) (tcell.SimulationScreen, *world.Simulation, *termview.View) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(40, 12)

	sim, err := world.New(world.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	return screen, sim, termview.New(screen)
}

func runeAt(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func TestDrawFrame(t *testing.T) {
	screen, sim, view := setup(t)
	require.NoError(t, sim.ToggleCell(raycast.Position{X: 5, Y: 1}, true))
	_, err := sim.AddSource(raycast.Vec2{X: 8.5, Y: 8.5})
	require.NoError(t, err)

	view.Draw(sim.Frame(), "status line")

	assert.Equal(t, '@', runeAt(screen, 3, 1), "listener")
	assert.Equal(t, '*', runeAt(screen, 17, 8), "second source")
	assert.Equal(t, '█', runeAt(screen, 10, 1))
	assert.Equal(t, '█', runeAt(screen, 11, 1))
	assert.Equal(t, '·', runeAt(screen, 6, 1), "reflection edge towards the wall")

	var line strings.Builder
	for x := 0; x < 11; x++ {
		line.WriteRune(runeAt(screen, x, 11))
	}
	assert.Equal(t, "status line", line.String())
}

func TestWorldAt(t *testing.T) {
	screen, sim, view := setup(t)
	view.Draw(sim.Frame(), "")
	_ = screen

	p, ok := view.WorldAt(9, 5)
	require.True(t, ok)
	assert.Equal(t, raycast.Vec2{X: 4.75, Y: 5.5}, p)

	_, ok = view.WorldAt(20, 0)
	assert.False(t, ok, "right of the grid")
	_, ok = view.WorldAt(0, 10)
	assert.False(t, ok, "status area")
}

func TestControllerKeys(t *testing.T) {
	_, sim, view := setup(t)
	view.Draw(sim.Frame(), "")
	rw := &countingRewinder{}
	c := termview.NewController(sim, view, rw)

	assert.True(t, c.HandleKey(tcell.KeyRight, 0))
	assert.Equal(t, raycast.Vec2{X: 2, Y: 1.5}, sim.Frame().Listener)

	assert.True(t, c.HandleKey(tcell.KeyRune, '+'))
	assert.Equal(t, 13, sim.Frame().Params.BranchingFactor)
	c.HandleKey(tcell.KeyRune, '-')
	c.HandleKey(tcell.KeyRune, '-')
	assert.Equal(t, 11, sim.Frame().Params.BranchingFactor)

	c.HandleKey(tcell.KeyRune, 'r')
	assert.Equal(t, 1, rw.n)

	assert.False(t, c.SourceMode())
	c.HandleKey(tcell.KeyRune, 'a')
	assert.True(t, c.SourceMode())

	c.HandleKey(tcell.KeyRune, 'n')
	assert.Len(t, sim.Frame().Sources, 2)
	assert.NoError(t, c.Err)

	seq := sim.Frame().Seq
	assert.True(t, c.HandleKey(tcell.KeyCtrlL, 0))
	assert.Equal(t, seq+1, sim.Frame().Seq, "Ctrl-L rebuilds")

	require.NoError(t, sim.ToggleCell(raycast.Position{X: 4, Y: 4}, true))
	c.HandleKey(tcell.KeyRune, 'c')
	assert.False(t, sim.Frame().Grid.Occupied(raycast.Position{X: 4, Y: 4}), "c clears the walls")

	assert.False(t, c.HandleKey(tcell.KeyRune, 'q'))
	assert.False(t, c.HandleKey(tcell.KeyEscape, 0))
}

func TestControllerMouse(t *testing.T) {
	_, sim, view := setup(t)
	view.Draw(sim.Frame(), "")
	c := termview.NewController(sim, view, nil)

	c.HandleMouse(9, 5, tcell.Button1, tcell.ModNone)
	assert.Equal(t, raycast.Vec2{X: 4.75, Y: 5.5}, sim.Frame().Listener)

	c.HandleKey(tcell.KeyRune, 'a')
	c.HandleMouse(15, 2, tcell.Button1, tcell.ModNone)
	assert.Equal(t, raycast.Vec2{X: 7.75, Y: 2.5}, sim.Frame().Sources[0].Position)

	c.HandleMouse(10, 1, tcell.Button2, tcell.ModNone)
	assert.True(t, sim.Frame().Grid.Occupied(raycast.Position{X: 5, Y: 1}))
	c.HandleMouse(10, 1, tcell.Button2, tcell.ModShift)
	assert.False(t, sim.Frame().Grid.Occupied(raycast.Position{X: 5, Y: 1}))

	seq := sim.Frame().Seq
	c.HandleMouse(35, 3, tcell.Button1, tcell.ModNone)
	assert.Equal(t, seq, sim.Frame().Seq, "clicks outside the grid are ignored")

	c.HandleKey(tcell.KeyRune, 'r')
	assert.Contains(t, c.Status(sim.Frame()), "left: source")
}
