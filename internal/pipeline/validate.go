package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/musewave/api/internal/probe"
)

// Gate validates every produced artifact before it is accepted into the job.
//
// Two independent checks run in order. Existence plus minimum size is fatal
// to the producing attempt: failing it proves the tool did not really run.
// The format probe only yields warnings: downstream stages still consume
// best-effort input, so format drift is recorded but tolerated.
type Gate struct {
	MinSize         int64 // floor for audio/video artifacts
	MinSymbolicSize int64 // floor for symbolic (MIDI) artifacts
	SampleRate      int
	Channels        int
	Prober          *probe.Prober
	log             *slog.Logger
}

// NewGate builds a validation gate. prober may be nil to skip format probing.
func NewGate(minSize, minSymbolic int64, sampleRate, channels int, prober *probe.Prober, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		MinSize:         minSize,
		MinSymbolicSize: minSymbolic,
		SampleRate:      sampleRate,
		Channels:        channels,
		Prober:          prober,
		log:             logger,
	}
}

func (g *Gate) minFor(kind ArtifactKind) int64 {
	if kind == ArtifactMelodyMIDI {
		return g.MinSymbolicSize
	}
	return g.MinSize
}

// Check validates the file at path as an artifact of the given kind. The
// returned artifact carries decoded format info and any format warnings.
func (g *Gate) Check(ctx context.Context, path string, kind ArtifactKind) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ValidationError{Path: path, Reason: "not created"}
	}

	min := g.minFor(kind)
	if info.Size() < min {
		return nil, &ValidationError{Path: path, Size: info.Size(), Min: min}
	}

	art := &Artifact{Kind: kind, Path: path, Size: info.Size()}
	if kind == ArtifactMelodyMIDI {
		// ffprobe has nothing useful to say about SMF files.
		return art, nil
	}

	if g.Prober == nil || !g.Prober.Available() {
		g.log.Debug("format probe skipped, prober unavailable", "path", path)
		return art, nil
	}

	result, err := g.Prober.Probe(ctx, path)
	if err != nil {
		// A probe error is itself only a warning: the size check already
		// established that the tool produced output.
		art.Warnings = append(art.Warnings, fmt.Sprintf("format probe failed: %v", err))
		return art, nil
	}

	if kind == ArtifactVideo {
		return g.checkVideo(art, result)
	}
	return g.checkAudio(art, result), nil
}

func (g *Gate) checkAudio(art *Artifact, result *probe.Result) *Artifact {
	stream := result.Audio()
	if stream == nil {
		art.Warnings = append(art.Warnings, "no audio stream found")
		return art
	}
	art.Format = stream

	if stream.SampleRate != g.SampleRate {
		art.Warnings = append(art.Warnings,
			fmt.Sprintf("sample rate is %d, expected %d", stream.SampleRate, g.SampleRate))
	}
	if stream.Channels != g.Channels {
		art.Warnings = append(art.Warnings,
			fmt.Sprintf("channel count is %d, expected %d", stream.Channels, g.Channels))
	}
	for _, w := range art.Warnings {
		g.log.Warn("format mismatch", "path", art.Path, "detail", w)
	}
	return art
}

func (g *Gate) checkVideo(art *Artifact, result *probe.Result) (*Artifact, error) {
	video := result.Video()
	if video == nil {
		// A "video" without a video stream means the encoder produced
		// garbage; treat like a missing artifact.
		return nil, &ValidationError{Path: art.Path, Reason: "no video stream found"}
	}
	art.Format = video

	g.log.Info("video format",
		"path", art.Path,
		"codec", video.CodecName,
		"resolution", fmt.Sprintf("%dx%d", video.Width, video.Height),
		"frame_rate", video.FrameRate,
	)

	if audio := result.Audio(); audio != nil {
		g.log.Info("video audio track",
			"path", art.Path, "codec", audio.CodecName, "sample_rate", audio.SampleRate)
	}
	return art, nil
}
