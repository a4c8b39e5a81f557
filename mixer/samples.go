package mixer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// ErrEmptySample is returned when a decoded file holds no frames.
var ErrEmptySample = errors.New("sample has no audio data")

const (
	resampleQuality = 4
	decodeChunk     = 512
)

// LoadWAV decodes a WAV file into interleaved stereo float32 at sampleRate.
// Mono files are duplicated to both channels.
func LoadWAV(path string, sampleRate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample %s: %w", path, err)
	}
	samples, err := DecodeWAV(f, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("decode sample %s: %w", path, err)
	}
	return samples, nil
}

// DecodeWAV reads a WAV stream and resamples it to sampleRate when needed.
// The reader is closed if it implements io.Closer.
func DecodeWAV(r io.Reader, sampleRate int) ([]float32, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	target := beep.SampleRate(sampleRate)
	if format.SampleRate != target {
		src = beep.Resample(resampleQuality, format.SampleRate, target, streamer)
	}

	buf := make([][2]float64, decodeChunk)
	out := make([]float32, 0, streamer.Len()*Channels)
	for {
		n, ok := src.Stream(buf)
		for _, s := range buf[:n] {
			out = append(out, float32(s[0]), float32(s[1]))
		}
		if !ok {
			break
		}
	}
	if err := src.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmptySample
	}
	return out, nil
}

// Burst synthesises a decaying 440 Hz tone used when no sample file is given.
func Burst(sampleRate int, d time.Duration) []float32 {
	frames := int(d.Seconds() * float64(sampleRate))
	out := make([]float32, frames*Channels)
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		v := float32(0.8 * math.Exp(-6*t) * math.Sin(2*math.Pi*440*t))
		out[2*i] = v
		out[2*i+1] = v
	}
	return out
}
