package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	flag.Parse()

	if *cpuProfileFlag != "" || *memProfileFlag != "" {
		stop, err := startProfiling(*cpuProfileFlag, *memProfileFlag)
		if err != nil {
			log.Fatalf("Profiling: %v", err)
		}
		defer func() {
			if err := stop(); err != nil {
				log.Printf("Profiling: %v", err)
			}
		}()
	}

	caster, release, err := newCaster()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer release()

	sim, err := newSimulation(caster)
	if err != nil {
		log.Fatalf("%v", err)
	}

	g := newGame(sim, nil)
	defer g.close()
	if !*muteFlag {
		samples, err := loadSamples(*sampleFlag)
		if err != nil {
			log.Fatalf("Loading sample: %v", err)
		}
		if err := g.startAudio(samples); err != nil {
			log.Printf("Audio disabled: %v", err)
		}
	}

	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle("Acoustic Ray Sound")
	ebiten.SetTPS(int(defaultTPS))
	if err := ebiten.RunGame(g); err != nil {
		log.Printf("Game exited: %v", err)
	}
}
