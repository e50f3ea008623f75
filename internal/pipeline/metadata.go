package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/musewave/api/internal/model"
)

// Descriptor is the machine-readable job summary written next to the
// artifacts. File entries are names relative to the job directory so the
// descriptor stays valid when the directory is moved or served statically.
type Descriptor struct {
	JobID     string            `json:"job_id"`
	Prompt    string            `json:"prompt"`
	Lyrics    string            `json:"lyrics,omitempty"`
	Language  string            `json:"language,omitempty"`
	Style     model.VideoStyle  `json:"style"`
	Files     map[string]string `json:"files"`
	Stages    []StageResult     `json:"stages"`
	CreatedAt time.Time         `json:"created_at"`
}

func writeDescriptor(job *JobContext) error {
	files := make(map[string]string)
	for kind, name := range artifactFiles {
		if job.Artifact(kind) != nil {
			files[string(kind)] = name
		}
	}

	desc := Descriptor{
		JobID:     job.ID,
		Prompt:    job.Prompt,
		Lyrics:    job.Lyrics,
		Language:  job.Language,
		Style:     job.Style,
		Files:     files,
		Stages:    job.Results(),
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job descriptor: %w", err)
	}
	if err := os.WriteFile(job.DescriptorPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write job descriptor: %w", err)
	}
	return nil
}
