package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/musewave/api/internal/config"
	"github.com/musewave/api/internal/synth"
)

// StageSpec declares one stage of the generation graph. Sequencing and
// fatality rules live here as data, not control flow: Needs are hard input
// dependencies, After are ordering-only dependencies, Required decides
// whether exhaustion aborts the job or degrades to skipped.
type StageSpec struct {
	Name     StageName
	Required bool
	Needs    []ArtifactKind
	After    []StageName

	// Skip short-circuits the stage before any strategy runs; a non-empty
	// reason records the stage as skipped.
	Skip func(job *JobContext) (reason string, skip bool)

	// Pre runs after gating but before the chain; an error fails the stage.
	Pre func(job *JobContext) error

	Chain *Chain
}

// pythonModuleProbe reports whether a python module is importable.
func pythonModuleProbe(r *Runner, python, module string) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := exec.LookPath(python); err != nil {
			return &DependencyError{Tool: python, Detail: "not found on PATH"}
		}
		if _, err := r.Run(ctx, "probe python module "+module, python, "-c", "import "+module); err != nil {
			return &DependencyError{Tool: module, Detail: "python module not importable"}
		}
		return nil
	}
}

func melodyStage(cfg *config.Config, r *Runner, gate *Gate, log *slog.Logger) StageSpec {
	tools := cfg.Tools

	magenta := Strategy{
		Name: "magenta",
		Probe: func(ctx context.Context) error {
			if _, err := os.Stat(tools.MagentaBundle); err != nil {
				return &DependencyError{Tool: tools.MagentaBundle, Detail: "model bundle missing"}
			}
			return pythonModuleProbe(r, tools.Python, "magenta")(ctx)
		},
		Generate: func(ctx context.Context, job *JobContext) error {
			_, err := r.Run(ctx, "generate melody with magenta",
				tools.Python, "-m", "magenta.models.melody_rnn.melody_rnn_generate",
				"--config=attention_rnn",
				"--bundle_file="+tools.MagentaBundle,
				"--output_dir", job.OutputDir,
				"--num_outputs=1",
				"--num_steps=128",
				"--temperature=1.0",
			)
			if err != nil {
				return err
			}
			// Magenta picks its own output filename inside the directory.
			return adoptGeneratedMIDI(job.OutputDir, job.Path(ArtifactMelodyMIDI))
		},
	}

	procedural := Strategy{
		Name: "procedural-midi",
		Generate: func(ctx context.Context, job *JobContext) error {
			return synth.WriteMelody(job.Path(ArtifactMelodyMIDI), "C", 120, cfg.Pipeline.MelodySeconds)
		},
	}

	return StageSpec{
		Name:     StageMelody,
		Required: true,
		Chain:    NewChain(StageMelody, ArtifactMelodyMIDI, gate, log, magenta, procedural),
	}
}

// adoptGeneratedMIDI renames the newest .mid file in dir (other than target)
// to the job's fixed melody path.
func adoptGeneratedMIDI(dir, target string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var newest string
	var newestTime time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mid") {
			continue
		}
		full := filepath.Join(dir, e.Name())
		if full == target {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = full
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return fmt.Errorf("no generated midi file found in %s", dir)
	}
	return os.Rename(newest, target)
}

func melodyRenderStage(cfg *config.Config, r *Runner, gate *Gate, log *slog.Logger) StageSpec {
	tools := cfg.Tools

	// The instrument bank is a hard resource: with no way to synthesize the
	// symbolic melody without it, there is no fallback strategy here and a
	// missing soundfont fails the stage fatally.
	fluidsynth := Strategy{
		Name: "fluidsynth",
		Probe: func(ctx context.Context) error {
			if _, err := exec.LookPath(tools.Fluidsynth); err != nil {
				return &DependencyError{Tool: tools.Fluidsynth, Detail: "not found on PATH"}
			}
			if _, err := os.Stat(tools.SoundFont); err != nil {
				return &DependencyError{Tool: tools.SoundFont, Detail: "instrument bank missing"}
			}
			return nil
		},
		Generate: func(ctx context.Context, job *JobContext) error {
			_, err := r.Run(ctx, "render melody to audio with fluidsynth",
				tools.Fluidsynth, "-ni", tools.SoundFont,
				job.Path(ArtifactMelodyMIDI),
				"-F", job.Path(ArtifactMelodyAudio),
				"-r", strconv.Itoa(cfg.Pipeline.SampleRate),
			)
			return err
		},
	}

	return StageSpec{
		Name:     StageMelodyRender,
		Required: true,
		Needs:    []ArtifactKind{ArtifactMelodyMIDI},
		After:    []StageName{StageMelody},
		Chain:    NewChain(StageMelodyRender, ArtifactMelodyAudio, gate, log, fluidsynth),
	}
}

func textureStage(cfg *config.Config, r *Runner, gate *Gate, log *slog.Logger) StageSpec {
	tools := cfg.Tools
	duration := cfg.Pipeline.TextureSeconds
	sr := cfg.Pipeline.SampleRate

	riffusion := Strategy{
		Name:  "riffusion",
		Probe: pythonModuleProbe(r, tools.Python, "riffusion"),
		Generate: func(ctx context.Context, job *JobContext) error {
			_, err := r.Run(ctx, "generate texture with riffusion",
				tools.Python, "-m", "riffusion.cli",
				"--prompt", job.Prompt,
				"--output", job.Path(ArtifactTextureAudio),
			)
			return err
		},
	}

	ffmpegPad := Strategy{
		Name:  "ffmpeg-pad",
		Probe: LookPathProbe(tools.FFmpeg),
		Generate: func(ctx context.Context, job *JobContext) error {
			sine := func(freq string) string {
				return fmt.Sprintf("sine=frequency=%s:duration=%d", freq, duration)
			}
			filter := fmt.Sprintf(
				"[0][1][2]amix=inputs=3:normalize=0,volume=0.3,asetrate=%d*0.99,aresample=%d", sr, sr)
			_, err := r.Run(ctx, "generate texture pad with ffmpeg",
				tools.FFmpeg, "-y",
				"-f", "lavfi", "-i", sine("220"),
				"-f", "lavfi", "-i", sine("329.63"),
				"-f", "lavfi", "-i", sine("440"),
				"-filter_complex", filter,
				"-ar", strconv.Itoa(sr),
				"-ac", strconv.Itoa(cfg.Pipeline.Channels),
				job.Path(ArtifactTextureAudio),
			)
			return err
		},
	}

	synthPad := Strategy{
		Name: "synth-pad",
		Generate: func(ctx context.Context, job *JobContext) error {
			return synth.WritePad(job.Path(ArtifactTextureAudio),
				time.Duration(duration)*time.Second, sr)
		},
	}

	return StageSpec{
		Name:     StageTexture,
		Required: true,
		Chain:    NewChain(StageTexture, ArtifactTextureAudio, gate, log, riffusion, ffmpegPad, synthPad),
	}
}

func vocalsStage(cfg *config.Config, r *Runner, gate *Gate, log *slog.Logger) StageSpec {
	tools := cfg.Tools

	coqui := Strategy{
		Name:  "coqui-tts",
		Probe: LookPathProbe(tools.TTS),
		Generate: func(ctx context.Context, job *JobContext) error {
			_, err := r.Run(ctx, "generate vocals with coqui tts",
				tools.TTS,
				"--text", job.Lyrics,
				"--out_path", job.Path(ArtifactVocalsAudio),
				"--speaker_idx", "p231",
				"--language_idx", job.Language,
			)
			return err
		},
	}

	synthVoice := Strategy{
		Name: "synth-voice",
		Generate: func(ctx context.Context, job *JobContext) error {
			return synth.WriteVoice(job.Path(ArtifactVocalsAudio), job.Lyrics, cfg.Pipeline.SampleRate)
		},
	}

	return StageSpec{
		Name:     StageVocals,
		Required: false,
		Skip: func(job *JobContext) (string, bool) {
			if strings.TrimSpace(job.Lyrics) == "" {
				return "no lyrics provided", true
			}
			return "", false
		},
		Chain: NewChain(StageVocals, ArtifactVocalsAudio, gate, log, coqui, synthVoice),
	}
}
