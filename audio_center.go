package main

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"ARS/mixer"
	"ARS/world"
)

// startAudio creates the mixer, keeps it fed with every new frame and starts
// an Ebiten player that pulls PCM from it.
func (g *Game) startAudio(samples []float32) error {
	mix, err := mixer.New(samples, mixer.Options{DelayScale: mixer.DefaultDelayScale(audioSampleRate)})
	if err != nil {
		return fmt.Errorf("creating mixer: %w", err)
	}
	g.sim.Subscribe(func(f *world.Frame) { mix.SetReceptions(f.Receptions) })

	ctx := audio.NewContext(audioSampleRate)
	player, err := ctx.NewPlayer(mix)
	if err != nil {
		return fmt.Errorf("creating audio player: %w", err)
	}
	player.SetBufferSize(audioBufferDuration)
	player.Play()
	log.Printf("Audio started at %d Hz, sample %.2fs", audioSampleRate, float64(mix.Frames())/audioSampleRate)

	g.mix = mix
	g.audioCtx = ctx
	g.audioPlayer = player
	return nil
}
