// Command ars-term runs the acoustic ray tracer in a terminal and plays the
// mixed receptions through the default audio device.
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"ARS/internal/termview"
	"ARS/mixer"
	"ARS/raycast"
	"ARS/world"
)

const (
	sampleRate    = beep.SampleRate(44100)
	speakerBuffer = 100 * time.Millisecond
	redrawEvery   = 33 * time.Millisecond
)

var (
	mapFlag       = flag.String("map", "", "load the grid from a text map file ('#' = occupied)")
	branchingFlag = flag.Int("branching", 12, "rays cast from every tree node")
	stepsFlag     = flag.Int("steps", 2, "maximum reflection depth")
	sampleFlag    = flag.String("sample", "", "WAV file played by the sources")
	muteFlag      = flag.Bool("mute", false, "disable audio output")
	logFlag       = flag.String("log", "", "append log output to this file instead of discarding it")
)

func main() {
	flag.Parse()

	cfg := world.DefaultConfig()
	cfg.BranchingFactor = *branchingFlag
	cfg.MaxSteps = *stepsFlag
	var grid *raycast.Grid
	if *mapFlag != "" {
		g, err := world.LoadMap(*mapFlag)
		if err != nil {
			log.Fatalf("Loading map: %v", err)
		}
		grid = g
	}
	sim, err := world.New(cfg, grid, raycast.NewParallelCaster())
	if err != nil {
		log.Fatalf("Building world: %v", err)
	}

	var audio termview.Rewinder
	if !*muteFlag {
		mix, err := startSpeaker(sim)
		if err != nil {
			log.Printf("Audio disabled: %v", err)
		} else {
			audio = mix
			defer speaker.Close()
		}
	}

	setupLogging()
	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Creating screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Initialising screen: %v", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	view := termview.New(screen)
	ctl := termview.NewController(sim, view, audio)
	run(screen, sim, view, ctl)
}

// setupLogging keeps log output off the terminal the UI is drawing on.
func setupLogging() {
	if *logFlag == "" {
		log.SetOutput(io.Discard)
		return
	}
	f, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("Opening log: %v", err)
	}
	log.SetOutput(f)
}

// startSpeaker loads the sample, creates a mixer fed by sim and plays it.
func startSpeaker(sim *world.Simulation) (*mixer.Mixer, error) {
	samples := mixer.Burst(int(sampleRate), 600*time.Millisecond)
	if *sampleFlag != "" {
		s, err := mixer.LoadWAV(*sampleFlag, int(sampleRate))
		if err != nil {
			return nil, err
		}
		samples = s
	}
	mix, err := mixer.New(samples, mixer.Options{DelayScale: mixer.DefaultDelayScale(int(sampleRate))})
	if err != nil {
		return nil, err
	}
	sim.Subscribe(func(f *world.Frame) { mix.SetReceptions(f.Receptions) })

	if err := speaker.Init(sampleRate, sampleRate.N(speakerBuffer)); err != nil {
		return nil, err
	}
	speaker.Play(mix)
	log.Printf("Speaker started at %d Hz, sample %v", sampleRate, sampleRate.D(mix.Frames()))
	return mix, nil
}

func run(screen tcell.Screen, sim *world.Simulation, view *termview.View, ctl *termview.Controller) {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(redrawEvery)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !ctl.HandleKey(ev.Key(), ev.Rune()) {
					return
				}
			case *tcell.EventMouse:
				x, y := ev.Position()
				ctl.HandleMouse(x, y, ev.Buttons(), ev.Modifiers())
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			f := sim.Frame()
			view.Draw(f, ctl.Status(f))
		}
	}
}
