package synth

import (
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
)

// WritePad renders a warm ambient pad to path: three stacked sine partials
// (A3, E4, A4) with a half-second fade at both ends. This is the deterministic
// texture of last resort when neither the diffusion model nor ffmpeg is around.
func WritePad(path string, duration time.Duration, sampleRate int) error {
	sr := beep.SampleRate(sampleRate)

	partials := []struct {
		freq int
		vol  float64
	}{
		{220, 0.5},
		{330, 0.3},
		{440, 0.2},
	}

	var voices []beep.Streamer
	for _, p := range partials {
		tone, err := generators.SinTone(sr, p.freq)
		if err != nil {
			return fmt.Errorf("pad tone %dHz: %w", p.freq, err)
		}
		voices = append(voices, Gain(tone, p.vol))
	}

	total := sr.N(duration)
	pad := beep.Take(total, beep.Mix(voices...))
	pad = &fade{s: pad, total: total, ramp: sr.N(500 * time.Millisecond)}

	return encodeWAV(path, Limit(pad), sr)
}
