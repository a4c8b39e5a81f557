package main

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"ARS/mixer"
	"ARS/world"
)

// Game connects the simulation to the window: input edits the world, Draw
// renders the latest frame and the audio player pulls from the mixer.
type Game struct {
	sim *world.Simulation
	mix *mixer.Mixer

	audioCtx    *audio.Context
	audioPlayer *audio.Player

	cell          float64
	width, height int

	lastEditErr  time.Time
	lastStatsLog time.Time
}

// newGame sizes the window for the simulation grid. mix may be nil when audio
// is disabled.
func newGame(sim *world.Simulation, mix *mixer.Mixer) *Game {
	f := sim.Frame()
	cols, rows := f.Grid.Width(), f.Grid.Height()
	cell := float64(cellPixels)
	if fit := float64(maxWindowPixels) / float64(max(cols, rows)); fit < cell {
		cell = max(fit, 2)
	}
	return &Game{
		sim:    sim,
		mix:    mix,
		cell:   cell,
		width:  int(float64(cols) * cell),
		height: int(float64(rows) * cell),
	}
}

// Update applies input and logs periodic statistics.
func (g *Game) Update() error {
	g.handleMovement()
	g.handlePointer()
	g.handleHotkeys()
	g.logStats()
	return nil
}

// reportEdit logs a failed world edit, at most once per second so a held
// mouse button cannot flood the log.
func (g *Game) reportEdit(what string, err error) {
	if err == nil {
		return
	}
	now := time.Now()
	if now.Sub(g.lastEditErr) < time.Second {
		return
	}
	g.lastEditErr = now
	log.Printf("%s: %v", what, err)
}

func (g *Game) logStats() {
	if !*debugFlag {
		return
	}
	now := time.Now()
	if now.Sub(g.lastStatsLog) < statsLogInterval {
		return
	}
	g.lastStatsLog = now
	f := g.sim.Frame()
	msg := "Tree: %d nodes, depth %d, %d receptions, rebuild %.2f ms"
	args := []any{f.Stats.Nodes, f.Stats.Depth, len(f.Receptions), f.Elapsed.Seconds() * 1000}
	if g.mix != nil {
		st := g.mix.Stats()
		msg += ", mixer %d blocks (%d admitted, %d dropped)"
		args = append(args, st.Blocks, st.Admitted, st.Dropped)
	}
	log.Printf(msg, args...)
}

// Layout reports the logical screen size used by Ebiten.
func (g *Game) Layout(_, _ int) (int, int) { return g.width, g.height }

func (g *Game) close() {
	if g.audioPlayer != nil {
		if err := g.audioPlayer.Close(); err != nil {
			log.Printf("Closing audio player: %v", err)
		}
	}
}

var _ ebiten.Game = (*Game)(nil)
