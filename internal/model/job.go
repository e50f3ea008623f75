package model

import "time"

// Job represents a background generation job in the system
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Payload     []byte     `json:"-"` // Stored as JSON
	Result      []byte     `json:"-"` // Stored as JSON
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RetryCount  int        `json:"retryCount"`
}

// Job types
const (
	JobTypeGenerate = "generate"
)

// GenerateJobPayload contains the data for a media generation job
type GenerateJobPayload struct {
	Prompt     string     `json:"prompt"`
	Lyrics     string     `json:"lyrics,omitempty"`
	Language   string     `json:"language"`
	VideoStyle VideoStyle `json:"videoStyle"`
}
