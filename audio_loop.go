package main

import (
	"log"

	"ARS/mixer"
)

// loadSamples decodes the WAV at path at the output rate, or synthesises a
// short burst when no path is given.
func loadSamples(path string) ([]float32, error) {
	if path == "" {
		log.Printf("No -sample given, using a %v synthetic burst", burstDuration)
		return mixer.Burst(audioSampleRate, burstDuration), nil
	}
	samples, err := mixer.LoadWAV(path, audioSampleRate)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %s (%d frames)", path, len(samples)/mixer.Channels)
	return samples, nil
}
