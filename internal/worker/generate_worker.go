package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/musewave/api/internal/config"
	"github.com/musewave/api/internal/model"
	"github.com/musewave/api/internal/pipeline"
	"github.com/musewave/api/internal/service"
	"github.com/musewave/api/internal/websocket"
)

// GenerateWorker processes generation jobs
type GenerateWorker struct {
	cfg             *config.Config
	generateService *service.GenerateService
	hub             *websocket.Hub
	log             *slog.Logger
}

// NewGenerateWorker creates a new generation worker
func NewGenerateWorker(cfg *config.Config, generateService *service.GenerateService, hub *websocket.Hub, logger *slog.Logger) *GenerateWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateWorker{
		cfg:             cfg,
		generateService: generateService,
		hub:             hub,
		log:             logger,
	}
}

// ProcessTask handles generation task processing
func (w *GenerateWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log := w.log.With("job_id", jobID)
	log.Info("starting generation job")

	var payload model.GenerateJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal generate payload: %w", err)
	}

	if w.generateService.IsCanceled(ctx, jobID) {
		log.Info("job canceled before start")
		return nil
	}

	// The job context ties cooperative cancellation from the client record
	// to every subprocess the pipeline spawns.
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outputDir := filepath.Join(w.cfg.Pipeline.OutputRoot, jobID)
	job := pipeline.NewJob(jobID, outputDir,
		payload.Prompt, payload.Lyrics, payload.Language,
		payload.VideoStyle)

	p := pipeline.New(w.cfg, w.log)
	p.Progress = func(stage pipeline.StageName, percent int, message string) {
		if w.generateService.IsCanceled(ctx, jobID) {
			cancel()
			return
		}
		w.updateProgress(ctx, jobID, percent, message)
	}

	if err := p.Run(jobCtx, job); err != nil {
		if jobCtx.Err() != nil && w.generateService.IsCanceled(ctx, jobID) {
			log.Info("generation job canceled")
			return nil
		}
		w.failJob(ctx, jobID, err.Error())
		return err
	}

	result := w.buildResult(jobID, &payload, job)

	if err := w.generateService.CompleteJob(ctx, jobID, result); err != nil {
		w.failJob(ctx, jobID, "Failed to save result")
		return err
	}

	w.hub.BroadcastComplete(jobID, result)
	log.Info("generation job completed")
	return nil
}

func (w *GenerateWorker) buildResult(jobID string, payload *model.GenerateJobPayload, job *pipeline.JobContext) *model.GenerateResultResponse {
	stages := make([]model.StageSummary, 0, len(job.Results()))
	for _, r := range job.Results() {
		stages = append(stages, model.StageSummary{
			Stage:    string(r.Stage),
			Outcome:  string(r.Outcome),
			Engine:   r.Engine,
			Error:    r.Error,
			Warnings: r.Warnings,
		})
	}

	return &model.GenerateResultResponse{
		JobID:     jobID,
		Prompt:    payload.Prompt,
		Lyrics:    payload.Lyrics,
		Language:  payload.Language,
		Style:     job.Style,
		AudioURL:  fmt.Sprintf("/assets/%s/mix.wav", jobID),
		VideoURL:  fmt.Sprintf("/assets/%s/final.mp4", jobID),
		Stages:    stages,
		CreatedAt: time.Now(),
	}
}

func (w *GenerateWorker) updateProgress(ctx context.Context, jobID string, progress int, step string) {
	if err := w.generateService.UpdateJobProgress(ctx, jobID, progress, step); err != nil {
		w.log.Warn("failed to update progress", "job_id", jobID, "error", err)
	}
	w.hub.BroadcastProgress(jobID, progress, model.JobStatusRunning, step)
}

func (w *GenerateWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.generateService.FailJob(ctx, jobID, errMsg); err != nil {
		w.log.Warn("failed to mark job as failed", "job_id", jobID, "error", err)
	}
	w.hub.BroadcastError(jobID, "GENERATION_FAILED", errMsg)
}
