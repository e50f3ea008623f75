package pipeline

import (
	"path/filepath"
	"sync"

	"github.com/musewave/api/internal/model"
	"github.com/musewave/api/internal/probe"
)

// ArtifactKind names the fixed outputs a job can produce.
type ArtifactKind string

const (
	ArtifactMelodyMIDI   ArtifactKind = "melody-midi"
	ArtifactMelodyAudio  ArtifactKind = "melody-audio"
	ArtifactTextureAudio ArtifactKind = "texture-audio"
	ArtifactVocalsAudio  ArtifactKind = "vocals-audio"
	ArtifactMixAudio     ArtifactKind = "mix-audio"
	ArtifactVideo        ArtifactKind = "video"
)

// artifactFiles are the stable per-job filenames. Only the parent directory
// differs between jobs, so collaborators can locate outputs from the job id.
var artifactFiles = map[ArtifactKind]string{
	ArtifactMelodyMIDI:   "melody.mid",
	ArtifactMelodyAudio:  "melody.wav",
	ArtifactTextureAudio: "texture.wav",
	ArtifactVocalsAudio:  "vocals.wav",
	ArtifactMixAudio:     "mix.wav",
	ArtifactVideo:        "final.mp4",
}

const descriptorFile = "metadata.json"

// Artifact is a validated output accepted into the job record.
type Artifact struct {
	Kind     ArtifactKind      `json:"kind"`
	Path     string            `json:"path"`
	Size     int64             `json:"size"`
	Engine   string            `json:"engine"`
	Format   *probe.StreamInfo `json:"format,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// StageName identifies one pipeline stage.
type StageName string

const (
	StageMelody       StageName = "melody"
	StageMelodyRender StageName = "melody_render"
	StageTexture      StageName = "texture"
	StageVocals       StageName = "vocals"
	StageMix          StageName = "mix"
	StageVideo        StageName = "video"
)

// Outcome classifies how a stage ended.
type Outcome string

const (
	OutcomePrimary  Outcome = "ok_primary"
	OutcomeFallback Outcome = "ok_fallback"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// StageResult records one stage's outcome for diagnostics.
type StageResult struct {
	Stage    StageName `json:"stage"`
	Outcome  Outcome   `json:"outcome"`
	Engine   string    `json:"engine,omitempty"`
	Error    string    `json:"error,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}

// JobContext carries identifiers, output locations, and accumulated per-stage
// results through the pipeline. Stages within a wave run concurrently, so all
// mutation goes through the mutex. Once the pipeline returns, the context is
// no longer written to.
type JobContext struct {
	ID        string
	OutputDir string

	Prompt   string
	Lyrics   string
	Language string
	Style    model.VideoStyle

	mu        sync.Mutex
	artifacts map[ArtifactKind]*Artifact
	results   []StageResult
}

// NewJob creates a job context rooted at outputDir.
func NewJob(id, outputDir, prompt, lyrics, language string, style model.VideoStyle) *JobContext {
	if !style.IsValid() {
		style = model.DefaultVideoStyle
	}
	return &JobContext{
		ID:        id,
		OutputDir: outputDir,
		Prompt:    prompt,
		Lyrics:    lyrics,
		Language:  language,
		Style:     style,
		artifacts: make(map[ArtifactKind]*Artifact),
	}
}

// Path returns the fixed output path for an artifact kind under this job.
func (j *JobContext) Path(kind ArtifactKind) string {
	return filepath.Join(j.OutputDir, artifactFiles[kind])
}

// DescriptorPath returns the path of the JSON job descriptor.
func (j *JobContext) DescriptorPath() string {
	return filepath.Join(j.OutputDir, descriptorFile)
}

// Artifact returns the accepted artifact of the given kind, or nil.
func (j *JobContext) Artifact(kind ArtifactKind) *Artifact {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.artifacts[kind]
}

func (j *JobContext) addArtifact(a *Artifact) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.artifacts[a.Kind] = a
}

func (j *JobContext) addResult(r StageResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = append(j.results, r)
}

// Results returns a copy of the accumulated stage results.
func (j *JobContext) Results() []StageResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]StageResult, len(j.results))
	copy(out, j.results)
	return out
}

func (j *JobContext) resultFor(stage StageName) *StageResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.results {
		if j.results[i].Stage == stage {
			return &j.results[i]
		}
	}
	return nil
}

// stemOrder fixes the mixer input ordering.
var stemOrder = []ArtifactKind{ArtifactTextureAudio, ArtifactMelodyAudio, ArtifactVocalsAudio}

// Stems returns the audio stems present in the job, in mixer input order.
func (j *JobContext) Stems() []*Artifact {
	j.mu.Lock()
	defer j.mu.Unlock()
	var stems []*Artifact
	for _, kind := range stemOrder {
		if a, ok := j.artifacts[kind]; ok {
			stems = append(stems, a)
		}
	}
	return stems
}
