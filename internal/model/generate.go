package model

import "time"

// GenerateStartRequest starts a new media generation job
type GenerateStartRequest struct {
	Prompt     string     `json:"prompt" validate:"required,min=3,max=500"`
	Lyrics     string     `json:"lyrics" validate:"max=5000"`
	Language   string     `json:"language" validate:"omitempty,max=32"`
	VideoStyle VideoStyle `json:"videoStyle" validate:"omitempty,oneof=spectrum waveform volumeter"`
}

// GenerateStartResponse is returned after a job is queued
type GenerateStartResponse struct {
	JobID             string    `json:"jobId"`
	Status            JobStatus `json:"status"`
	EstimatedDuration int       `json:"estimatedDuration"` // seconds
	CreatedAt         time.Time `json:"createdAt"`
}

// GenerateStatusResponse reports job progress
type GenerateStatusResponse struct {
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RetryCount  int        `json:"retryCount"`
}

// StageSummary is the per-stage outcome included in a job result
type StageSummary struct {
	Stage    string   `json:"stage"`
	Outcome  string   `json:"outcome"`
	Engine   string   `json:"engine,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// GenerateResultResponse is the result of a completed generation job.
// URLs are relative to the asset root; the API gateway turns them absolute.
type GenerateResultResponse struct {
	JobID     string         `json:"jobId"`
	Prompt    string         `json:"prompt"`
	Lyrics    string         `json:"lyrics,omitempty"`
	Language  string         `json:"language"`
	Style     VideoStyle     `json:"videoStyle"`
	AudioURL  string         `json:"audioUrl"`
	VideoURL  string         `json:"videoUrl"`
	Stages    []StageSummary `json:"stages"`
	CreatedAt time.Time      `json:"createdAt"`
}

// GenerateCancelResponse acknowledges a cancel request
type GenerateCancelResponse struct {
	Success bool      `json:"success"`
	JobID   string    `json:"jobId"`
	Status  JobStatus `json:"status"`
}
