package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/musewave/api/internal/config"
	"github.com/musewave/api/internal/model"
	"github.com/musewave/api/internal/pipeline"
)

// musewave runs one generation job end to end without the API server, which
// is how the pipeline gets exercised in development and batch runs.
func main() {
	var (
		prompt    = flag.String("prompt", "", "text prompt describing the track (required)")
		lyrics    = flag.String("lyrics", "", "optional lyrics; blank skips the vocals stage")
		language  = flag.String("language", "en", "lyrics language code")
		style     = flag.String("video-style", string(model.DefaultVideoStyle), "visualizer style: spectrum, waveform or volumeter")
		jobID     = flag.String("job-id", "", "job identifier (defaults to a random id)")
		outputDir = flag.String("output-dir", "", "output directory (defaults to <output root>/<job id>)")
	)
	flag.Parse()

	if strings.TrimSpace(*prompt) == "" {
		fmt.Fprintln(os.Stderr, "error: -prompt is required")
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	id := *jobID
	if id == "" {
		id = strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}

	dir := *outputDir
	if dir == "" {
		dir = filepath.Join(cfg.Pipeline.OutputRoot, id)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job := pipeline.NewJob(id, dir, *prompt, *lyrics, *language, model.VideoStyle(*style))

	p := pipeline.New(cfg, log)
	p.Progress = func(stage pipeline.StageName, percent int, message string) {
		log.Info("progress", "job_id", id, "stage", stage, "percent", percent, "message", message)
	}

	if err := p.Run(ctx, job); err != nil {
		log.Error("generation failed", "job_id", id, "error", err)
		os.Exit(1)
	}

	fmt.Printf("job %s completed\n", id)
	fmt.Printf("  audio: %s\n", job.Path(pipeline.ArtifactMixAudio))
	fmt.Printf("  video: %s\n", job.Path(pipeline.ArtifactVideo))
	fmt.Printf("  descriptor: %s\n", job.DescriptorPath())
}
