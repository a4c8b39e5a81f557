package termview

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"ARS/raycast"
	"ARS/world"
)

const (
	keyStep      = 0.5
	maxBranching = 72
)

// Rewinder restarts audio playback.
type Rewinder interface {
	Rewind()
}

// Controller turns terminal input into simulation edits. Terminals cannot
// report held keys, so 'a' toggles whether the left button moves the listener
// or the first source.
type Controller struct {
	sim    *world.Simulation
	view   *View
	audio  Rewinder
	source bool
	cursor raycast.Vec2
	// Err is the most recent edit error, shown in the status line.
	Err error
}

// NewController binds input to sim. audio may be nil.
func NewController(sim *world.Simulation, view *View, audio Rewinder) *Controller {
	return &Controller{sim: sim, view: view, audio: audio, cursor: sim.Frame().Listener}
}

// SourceMode reports whether the left button moves the first source.
func (c *Controller) SourceMode() bool { return c.source }

// HandleKey applies a key press and reports whether the program should keep
// running.
func (c *Controller) HandleKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		c.nudge(0, -keyStep)
	case tcell.KeyDown:
		c.nudge(0, keyStep)
	case tcell.KeyCtrlL:
		c.record(c.sim.Rebuild())
	case tcell.KeyLeft:
		c.nudge(-keyStep, 0)
	case tcell.KeyRight:
		c.nudge(keyStep, 0)
	case tcell.KeyRune:
		switch r {
		case 'q':
			return false
		case 'a':
			c.source = !c.source
		case 'r':
			if c.audio != nil {
				c.audio.Rewind()
			}
		case 'c':
			c.record(c.sim.ClearCells())
		case 'n':
			_, err := c.sim.AddSource(c.cursor)
			c.record(err)
		case '+', '=':
			c.branching(1)
		case '-':
			c.branching(-1)
		}
	}
	return true
}

// HandleMouse applies a mouse event at terminal position (x, y).
func (c *Controller) HandleMouse(x, y int, buttons tcell.ButtonMask, mods tcell.ModMask) {
	pos, ok := c.view.WorldAt(x, y)
	if !ok {
		return
	}
	c.cursor = pos
	switch {
	case buttons&tcell.Button1 != 0:
		if c.source {
			c.record(c.sim.SetSourcePosition(0, pos))
		} else {
			c.record(c.sim.SetListenerPosition(pos))
		}
	case buttons&tcell.Button2 != 0:
		c.record(c.sim.ToggleCell(pos.Cell(), mods&tcell.ModShift == 0))
	}
}

func (c *Controller) nudge(dx, dy float64) {
	f := c.sim.Frame()
	next := raycast.Vec2{X: f.Listener.X + dx, Y: f.Listener.Y + dy}
	if !f.Grid.Contains(next) {
		return
	}
	c.record(c.sim.SetListenerPosition(next))
}

func (c *Controller) branching(delta int) {
	b := c.sim.Frame().Params.BranchingFactor + delta
	if b < 1 || b > maxBranching {
		return
	}
	c.record(c.sim.SetBranchingFactor(b))
}

func (c *Controller) record(err error) {
	c.Err = err
}

// Status summarises the frame for the bottom line.
func (c *Controller) Status(f *world.Frame) string {
	mode := "listener"
	if c.SourceMode() {
		mode = "source"
	}
	s := fmt.Sprintf("b=%d steps=%d nodes=%d receptions=%d rebuild=%.1fms  [left: %s, a: toggle, right: wall, n: source, c: clear, r: rewind, q: quit]",
		f.Params.BranchingFactor, f.Params.MaxSteps, f.Stats.Nodes, len(f.Receptions), f.Elapsed.Seconds()*1000, mode)
	if c.Err != nil {
		s = "error: " + c.Err.Error() + "  " + s
	}
	return s
}
