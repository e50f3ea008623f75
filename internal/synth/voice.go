package synth

import (
	"fmt"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
)

// Speech pacing for the synthetic voice: ~190 words per minute, matching
// typical TTS defaults, with a two second floor so even one-word lyrics
// produce a usable stem.
const (
	wordsPerMinute  = 190
	minVoiceSeconds = 2
)

// wordEnvelope shapes a carrier tone into word-like pulses: a short attack,
// a sustain, and a release per word, with a small gap between words.
type wordEnvelope struct {
	s       beep.Streamer
	wordLen int
	pos     int
}

func (w *wordEnvelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := w.s.Stream(samples)
	for i := range samples[:n] {
		idx := w.pos % w.wordLen
		attack := w.wordLen / 10
		release := w.wordLen / 5
		sustainEnd := w.wordLen - release

		var v float64
		switch {
		case idx < attack:
			v = 0.3 + 0.7*float64(idx)/float64(attack)
		case idx < sustainEnd:
			v = 1.0
		default:
			v = float64(w.wordLen-idx) / float64(release)
		}
		samples[i][0] *= v
		samples[i][1] *= v
		w.pos++
	}
	return n, ok
}

func (w *wordEnvelope) Err() error { return w.s.Err() }

// WriteVoice renders lyrics as a monotone synthetic voice: a 150Hz carrier
// with two harmonics, amplitude-shaped into one pulse per word. Duration is
// derived from the word count at a fixed speech rate.
func WriteVoice(path, text string, sampleRate int) error {
	sr := beep.SampleRate(sampleRate)

	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	seconds := float64(words) / wordsPerMinute * 60
	if seconds < minVoiceSeconds {
		seconds = minVoiceSeconds
	}
	duration := time.Duration(seconds * float64(time.Second))

	harmonics := []struct {
		freq int
		vol  float64
	}{
		{150, 0.6},
		{300, 0.2},
		{450, 0.1},
	}

	var voices []beep.Streamer
	for _, h := range harmonics {
		tone, err := generators.SinTone(sr, h.freq)
		if err != nil {
			return fmt.Errorf("voice tone %dHz: %w", h.freq, err)
		}
		voices = append(voices, Gain(tone, h.vol))
	}

	total := sr.N(duration)
	wordLen := total / words
	if wordLen < 1 {
		wordLen = 1
	}

	voice := beep.Take(total, &wordEnvelope{
		s:       beep.Mix(voices...),
		wordLen: wordLen,
	})

	return encodeWAV(path, Limit(voice), sr)
}
