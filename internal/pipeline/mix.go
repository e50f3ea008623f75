package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/musewave/api/internal/config"
	"github.com/musewave/api/internal/synth"
)

// amixFilter builds the mixdown filter graph for n input stems. Normalization
// is disabled so stem levels survive the mix; the limiter catches clipping and
// the final volume lift compensates for headroom lost to limiting.
func amixFilter(n, sampleRate int) string {
	return fmt.Sprintf("amix=inputs=%d:normalize=0,alimiter,aresample=%d,volume=1.2", n, sampleRate)
}

func mixStage(cfg *config.Config, r *Runner, gate *Gate, log *slog.Logger) StageSpec {
	tools := cfg.Tools
	sr := cfg.Pipeline.SampleRate

	ffmpegAmix := Strategy{
		Name:  "ffmpeg-amix",
		Probe: LookPathProbe(tools.FFmpeg),
		Generate: func(ctx context.Context, job *JobContext) error {
			stems := job.Stems()
			args := []string{"-y"}
			for _, stem := range stems {
				args = append(args, "-i", stem.Path)
			}
			args = append(args,
				"-filter_complex", amixFilter(len(stems), sr),
				"-ar", strconv.Itoa(sr),
				"-ac", strconv.Itoa(cfg.Pipeline.Channels),
				job.Path(ArtifactMixAudio),
			)
			_, err := r.Run(ctx, "mix stems with ffmpeg", tools.FFmpeg, args...)
			return err
		},
	}

	synthMix := Strategy{
		Name: "synth-mix",
		Generate: func(ctx context.Context, job *JobContext) error {
			stems := job.Stems()
			paths := make([]string, 0, len(stems))
			for _, stem := range stems {
				paths = append(paths, stem.Path)
			}
			return synth.MixWAVs(job.Path(ArtifactMixAudio), paths, sr)
		},
	}

	return StageSpec{
		Name:     StageMix,
		Required: true,
		After:    []StageName{StageMelodyRender, StageTexture, StageVocals},
		Pre: func(job *JobContext) error {
			if len(job.Stems()) == 0 {
				return ErrNoStems
			}
			return nil
		},
		Chain: NewChain(StageMix, ArtifactMixAudio, gate, log, ffmpegAmix, synthMix),
	}
}
