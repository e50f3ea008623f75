package synth

import (
	"fmt"
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// mixGain matches the ffmpeg mixing graph's trailing volume=1.2 stage.
const mixGain = 1.2

// MixWAVs sums the input WAV stems equal-weight into a single stereo track at
// the target sample rate, with limiting against clipping. The mix plays until
// the longest stem ends. Inputs with a different sample rate are resampled.
func MixWAVs(outPath string, inputs []string, sampleRate int) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no input stems")
	}
	sr := beep.SampleRate(sampleRate)

	var stems []beep.Streamer
	var open []*os.File
	closeAll := func() {
		for _, f := range open {
			f.Close()
		}
	}

	for _, in := range inputs {
		f, err := os.Open(in)
		if err != nil {
			closeAll()
			return fmt.Errorf("opening stem %s: %w", in, err)
		}
		open = append(open, f)

		stream, format, err := wav.Decode(f)
		if err != nil {
			closeAll()
			return fmt.Errorf("decoding stem %s: %w", in, err)
		}

		var s beep.Streamer = stream
		if format.SampleRate != sr {
			s = beep.Resample(4, format.SampleRate, sr, stream)
		}
		stems = append(stems, s)
	}

	mixed := Limit(Gain(beep.Mix(stems...), mixGain))

	err := encodeWAV(outPath, mixed, sr)
	closeAll()
	return err
}
