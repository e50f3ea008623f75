package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/musewave/api/internal/config"
	"github.com/musewave/api/internal/probe"
)

// ProgressFunc receives coarse progress updates as stages finish.
type ProgressFunc func(stage StageName, percent int, message string)

// Pipeline runs the full generation graph for one job: melody, texture and
// vocals concurrently, then melody rendering, mixdown and the visualizer
// video. Stages come from the declared StageSpec graph, grouped into waves
// by their After edges; stages in the same wave run in parallel.
type Pipeline struct {
	cfg    *config.Config
	log    *slog.Logger
	stages []StageSpec
	waves  [][]int

	// Progress, when set, is called after each stage settles.
	Progress ProgressFunc
}

// New assembles the default pipeline from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := time.Duration(cfg.Pipeline.ToolTimeout) * time.Second
	runner := NewRunner(timeout, logger)
	prober := probe.New(cfg.Tools.FFprobe, timeout)
	gate := NewGate(cfg.Pipeline.MinArtifactSize, cfg.Pipeline.MinSymbolicSize,
		cfg.Pipeline.SampleRate, cfg.Pipeline.Channels, prober, logger)

	stages := []StageSpec{
		melodyStage(cfg, runner, gate, logger),
		textureStage(cfg, runner, gate, logger),
		vocalsStage(cfg, runner, gate, logger),
		melodyRenderStage(cfg, runner, gate, logger),
		mixStage(cfg, runner, gate, logger),
		videoStage(cfg, runner, gate, logger),
	}

	return &Pipeline{
		cfg:    cfg,
		log:    logger,
		stages: stages,
		waves:  planWaves(stages),
	}
}

// planWaves groups stage indices into execution levels: a stage's level is
// one past the deepest stage named in its After list.
func planWaves(stages []StageSpec) [][]int {
	levels := make(map[StageName]int, len(stages))
	byName := make(map[StageName]int, len(stages))
	for i, s := range stages {
		byName[s.Name] = i
	}

	var levelOf func(name StageName) int
	levelOf = func(name StageName) int {
		if lvl, ok := levels[name]; ok {
			return lvl
		}
		s := stages[byName[name]]
		lvl := 0
		for _, dep := range s.After {
			if _, ok := byName[dep]; !ok {
				continue
			}
			if d := levelOf(dep) + 1; d > lvl {
				lvl = d
			}
		}
		levels[name] = lvl
		return lvl
	}

	maxLevel := 0
	for _, s := range stages {
		if lvl := levelOf(s.Name); lvl > maxLevel {
			maxLevel = lvl
		}
	}

	waves := make([][]int, maxLevel+1)
	for i, s := range stages {
		lvl := levels[s.Name]
		waves[lvl] = append(waves[lvl], i)
	}
	return waves
}

// Run executes every stage for the job. It returns nil when all required
// stages produced validated output; optional stages may have degraded to
// skipped along the way. On failure the returned error is a *PipelineError
// naming the stage that aborted the job.
func (p *Pipeline) Run(ctx context.Context, job *JobContext) error {
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return &PipelineError{Stage: StageMelody, Cause: err}
	}

	log := p.log.With("job_id", job.ID)
	log.Info("pipeline started", "prompt", job.Prompt, "style", job.Style)

	total := len(p.stages)
	done := 0

	for _, wave := range p.waves {
		if err := ctx.Err(); err != nil {
			return err
		}

		errs := make([]error, len(wave))
		var wg sync.WaitGroup
		for i, idx := range wave {
			wg.Add(1)
			go func(slot, idx int) {
				defer wg.Done()
				errs[slot] = p.runStage(ctx, job, &p.stages[idx])
			}(i, idx)
		}
		wg.Wait()

		for i, idx := range wave {
			done++
			stage := p.stages[idx].Name
			if p.Progress != nil {
				msg := string(stage)
				if res := job.resultFor(stage); res != nil {
					msg += " " + string(res.Outcome)
				}
				p.Progress(stage, done*90/total, msg)
			}
			if errs[i] != nil {
				log.Error("pipeline aborted", "stage", stage, "error", errs[i])
				return errs[i]
			}
		}
	}

	if err := writeDescriptor(job); err != nil {
		return &PipelineError{Stage: StageVideo, Cause: err}
	}
	if p.Progress != nil {
		p.Progress(StageVideo, 100, "completed")
	}

	log.Info("pipeline completed", "stages", len(job.Results()))
	return nil
}

// runStage settles one stage: it records exactly one StageResult and, on
// success, registers the produced artifact. A non-nil return aborts the job.
func (p *Pipeline) runStage(ctx context.Context, job *JobContext, spec *StageSpec) error {
	log := p.log.With("job_id", job.ID, "stage", spec.Name)

	if spec.Skip != nil {
		if reason, skip := spec.Skip(job); skip {
			log.Info("stage skipped", "reason", reason)
			job.addResult(StageResult{Stage: spec.Name, Outcome: OutcomeSkipped, Error: reason})
			return nil
		}
	}

	for _, kind := range spec.Needs {
		if job.Artifact(kind) == nil {
			err := &MissingInputError{Stage: spec.Name, Artifact: kind}
			return p.settleFailure(job, spec, log, err)
		}
	}

	if spec.Pre != nil {
		if err := spec.Pre(job); err != nil {
			return p.settleFailure(job, spec, log, err)
		}
	}

	art, err := spec.Chain.Run(ctx, job)
	if err != nil {
		if ctx.Err() != nil {
			job.addResult(StageResult{Stage: spec.Name, Outcome: OutcomeFailed, Error: ctx.Err().Error()})
			return ctx.Err()
		}
		return p.settleFailure(job, spec, log, err)
	}

	outcome := OutcomeFallback
	if spec.Chain.primary(art.Engine) {
		outcome = OutcomePrimary
	}
	job.addArtifact(art)
	job.addResult(StageResult{
		Stage:    spec.Name,
		Outcome:  outcome,
		Engine:   art.Engine,
		Warnings: art.Warnings,
	})
	return nil
}

// settleFailure records the stage result and decides fatality: required
// stages abort the job, optional ones degrade to skipped.
func (p *Pipeline) settleFailure(job *JobContext, spec *StageSpec, log *slog.Logger, err error) error {
	if !spec.Required {
		log.Warn("optional stage degraded to skipped", "error", err)
		job.addResult(StageResult{Stage: spec.Name, Outcome: OutcomeSkipped, Error: err.Error()})
		return nil
	}
	log.Error("required stage failed", "error", err)
	job.addResult(StageResult{Stage: spec.Name, Outcome: OutcomeFailed, Error: err.Error()})
	return &PipelineError{Stage: spec.Name, Cause: err}
}
