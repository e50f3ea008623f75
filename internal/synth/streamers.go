// Package synth provides the dependency-free generation strategies: procedural
// MIDI, sine-pad textures, carrier-tone vocals, and an in-process stem mixer.
// These are the guaranteed last resort of every provider chain, so nothing in
// here may shell out or touch the network.
package synth

import (
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// gain scales every sample by a constant factor.
type gain struct {
	s beep.Streamer
	g float64
}

func (g *gain) Stream(samples [][2]float64) (int, bool) {
	n, ok := g.s.Stream(samples)
	for i := range samples[:n] {
		samples[i][0] *= g.g
		samples[i][1] *= g.g
	}
	return n, ok
}

func (g *gain) Err() error { return g.s.Err() }

// Gain wraps s so its output is scaled by factor.
func Gain(s beep.Streamer, factor float64) beep.Streamer {
	return &gain{s: s, g: factor}
}

// limiter hard-clamps samples into [-1, 1]. Equal-weight stem summing can
// exceed full scale; without this the WAV encoder wraps around audibly.
type limiter struct {
	s beep.Streamer
}

func (l *limiter) Stream(samples [][2]float64) (int, bool) {
	n, ok := l.s.Stream(samples)
	for i := range samples[:n] {
		samples[i][0] = clamp(samples[i][0])
		samples[i][1] = clamp(samples[i][1])
	}
	return n, ok
}

func (l *limiter) Err() error { return l.s.Err() }

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Limit clamps s into the valid sample range.
func Limit(s beep.Streamer) beep.Streamer {
	return &limiter{s: s}
}

// fade applies linear fade-in/fade-out over the given number of samples.
type fade struct {
	s     beep.Streamer
	total int
	ramp  int
	pos   int
}

func (f *fade) Stream(samples [][2]float64) (int, bool) {
	n, ok := f.s.Stream(samples)
	for i := range samples[:n] {
		v := 1.0
		if f.pos < f.ramp {
			v = float64(f.pos) / float64(f.ramp)
		} else if left := f.total - f.pos; left < f.ramp {
			v = float64(left) / float64(f.ramp)
		}
		samples[i][0] *= v
		samples[i][1] *= v
		f.pos++
	}
	return n, ok
}

func (f *fade) Err() error { return f.s.Err() }

// encodeWAV writes the streamer to path as a 16-bit WAV file.
func encodeWAV(path string, s beep.Streamer, sr beep.SampleRate) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, s, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
