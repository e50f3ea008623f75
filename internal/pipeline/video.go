package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/musewave/api/internal/config"
	"github.com/musewave/api/internal/model"
)

// visualizerFilter maps a video style to its ffmpeg filter graph.
func visualizerFilter(style model.VideoStyle, width, height int) string {
	size := fmt.Sprintf("%dx%d", width, height)
	switch style {
	case model.VideoStyleWaveform:
		return fmt.Sprintf("showwaves=s=%s:mode=cline:colors=cyan", size)
	case model.VideoStyleVolumeter:
		return fmt.Sprintf("avectorscope=s=%s:zoom=1.5:draw=line", size)
	default:
		return fmt.Sprintf("showspectrum=s=%s:color=rainbow:legend=disabled", size)
	}
}

func videoStage(cfg *config.Config, r *Runner, gate *Gate, log *slog.Logger) StageSpec {
	tools := cfg.Tools
	p := cfg.Pipeline

	ffmpegViz := Strategy{
		Name:  "ffmpeg-viz",
		Probe: LookPathProbe(tools.FFmpeg),
		Generate: func(ctx context.Context, job *JobContext) error {
			_, err := r.Run(ctx, "render visualizer video with ffmpeg",
				tools.FFmpeg, "-y",
				"-i", job.Path(ArtifactMixAudio),
				"-filter_complex", visualizerFilter(job.Style, p.VideoWidth, p.VideoHeight),
				"-r", strconv.Itoa(p.VideoFPS),
				"-pix_fmt", "yuv420p",
				"-c:v", "libx264",
				"-preset", "medium",
				"-crf", "23",
				"-shortest",
				job.Path(ArtifactVideo),
			)
			return err
		},
	}

	return StageSpec{
		Name:     StageVideo,
		Required: true,
		Needs:    []ArtifactKind{ArtifactMixAudio},
		After:    []StageName{StageMix},
		Chain:    NewChain(StageVideo, ArtifactVideo, gate, log, ffmpegViz),
	}
}
