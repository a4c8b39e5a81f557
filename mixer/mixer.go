// Package mixer renders the current set of receptions into stereo audio blocks.
package mixer

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"ARS/propagation"
)

const (
	Channels       = 2
	BytesPerSample = 2
	FrameBytes     = Channels * BytesPerSample
	// SpeedOfSound converts world units (one cell = one metre) to seconds.
	SpeedOfSound = 343.0
	pcm16Max     = 32767
)

// ErrInvalidDelayScale is returned for non-positive or non-finite delay scales.
var ErrInvalidDelayScale = errors.New("delay scale must be positive")

// DefaultDelayScale maps one world unit to the frames sound needs to travel it.
func DefaultDelayScale(sampleRate int) float64 {
	return float64(sampleRate) / SpeedOfSound
}

// Options configures a Mixer.
type Options struct {
	// DelayScale converts reception distance to a delay in frames.
	DelayScale float64
}

// Stats is a snapshot of the mixer counters.
type Stats struct {
	Blocks   uint64
	Cursor   int64
	Admitted int
	Dropped  int
}

// Mixer mixes delayed, attenuated copies of one sample buffer. All output
// methods (Process, Read, Stream) belong to the audio goroutine; SetReceptions,
// Rewind and Stats may be called from any goroutine.
type Mixer struct {
	samples    []float32
	length     int64
	delayScale float64

	receptions atomic.Pointer[[]propagation.Reception]
	rewind     atomic.Bool

	cursor int64
	accum  []float32

	blocks    atomic.Uint64
	cursorPub atomic.Int64
	admitted  atomic.Int64
	dropped   atomic.Int64
}

// New creates a mixer over interleaved stereo samples. The buffer is read-only
// from here on; a trailing odd sample is ignored.
func New(samples []float32, opts Options) (*Mixer, error) {
	if !(opts.DelayScale > 0) || math.IsInf(opts.DelayScale, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDelayScale, opts.DelayScale)
	}
	frames := len(samples) / Channels
	return &Mixer{
		samples:    samples[:frames*Channels],
		length:     int64(frames),
		delayScale: opts.DelayScale,
	}, nil
}

// Frames reports the length of the sample buffer in frames.
func (m *Mixer) Frames() int { return int(m.length) }

// SetReceptions replaces the reception list used from the next block on. The
// slice is copied, so the caller keeps ownership of recs.
func (m *Mixer) SetReceptions(recs []propagation.Reception) {
	snapshot := make([]propagation.Reception, len(recs))
	copy(snapshot, recs)
	m.receptions.Store(&snapshot)
}

// Rewind restarts playback at the next block boundary.
func (m *Mixer) Rewind() { m.rewind.Store(true) }

// Stats returns the counters of the most recent block.
func (m *Mixer) Stats() Stats {
	return Stats{
		Blocks:   m.blocks.Load(),
		Cursor:   m.cursorPub.Load(),
		Admitted: int(m.admitted.Load()),
		Dropped:  int(m.dropped.Load()),
	}
}

// mix renders frames stereo frames into the accumulation buffer and advances
// the cursor. The returned slice is valid until the next call.
func (m *Mixer) mix(frames int) []float32 {
	if m.rewind.Swap(false) {
		m.cursor = 0
	}
	n := frames * Channels
	if cap(m.accum) < n {
		m.accum = make([]float32, n)
	}
	acc := m.accum[:n]
	clear(acc)

	admitted, dropped := 0, 0
	if p := m.receptions.Load(); p != nil {
		recs := *p
		consumed := 0.0
		for i, r := range recs {
			if r.Distance <= 0 {
				continue
			}
			vol := math.Min(1, 1/r.Distance)
			// Receptions are ordered by distance, not volume; the cap is applied in that order.
			if consumed+vol > 1 {
				dropped = len(recs) - i
				break
			}
			consumed += vol
			admitted++
			delay := int64(math.Round(r.Distance * m.delayScale))
			m.addWindow(acc, m.cursor-delay, frames, float32(vol))
		}
	}

	for i, v := range acc {
		if v > 1 {
			acc[i] = 1
		} else if v < -1 {
			acc[i] = -1
		}
	}

	m.cursor += int64(frames)
	m.cursorPub.Store(m.cursor)
	m.admitted.Store(int64(admitted))
	m.dropped.Store(int64(dropped))
	m.blocks.Add(1)
	return acc
}

// addWindow adds frames frames of the sample buffer starting at frame start,
// scaled by vol. Parts of the window before 0 or past the end stay silent.
func (m *Mixer) addWindow(acc []float32, start int64, frames int, vol float32) {
	dst := int64(0)
	if start < 0 {
		dst = -start
		if dst >= int64(frames) {
			return
		}
		start = 0
	}
	if start >= m.length {
		return
	}
	n := min(int64(frames)-dst, m.length-start)
	src := m.samples[start*Channels : (start+n)*Channels]
	out := acc[dst*Channels : (dst+n)*Channels]
	for i, s := range src {
		out[i] += s * vol
	}
}

// Process fills out with interleaved 16-bit stereo frames and returns the
// number of frames written. It is the device callback (buffer, frame count).
func (m *Mixer) Process(out []int16) int {
	frames := len(out) / Channels
	if frames == 0 {
		return 0
	}
	for i, v := range m.mix(frames) {
		out[i] = int16(v * pcm16Max)
	}
	return frames
}

// Read implements io.Reader over little-endian 16-bit stereo PCM so the mixer
// can feed an audio player directly. It never returns io.EOF; once the sample
// buffer is exhausted it produces silence.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / FrameBytes
	if frames == 0 {
		return 0, nil
	}
	for i, v := range m.mix(frames) {
		s := int16(v * pcm16Max)
		p[2*i] = byte(s)
		p[2*i+1] = byte(s >> 8)
	}
	return frames * FrameBytes, nil
}

// Stream implements beep.Streamer.
func (m *Mixer) Stream(samples [][2]float64) (int, bool) {
	if len(samples) == 0 {
		return 0, true
	}
	acc := m.mix(len(samples))
	for i := range samples {
		samples[i][0] = float64(acc[2*i])
		samples[i][1] = float64(acc[2*i+1])
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (m *Mixer) Err() error { return nil }
