package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoStems is returned when the mixer is invoked with zero audio inputs.
var ErrNoStems = errors.New("no audio stems available to mix")

// DependencyError marks a strategy whose required tool or resource is absent.
// It triggers fallback to the next strategy, never a job abort by itself.
type DependencyError struct {
	Tool   string
	Detail string
}

func (e *DependencyError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("dependency missing: %s", e.Tool)
	}
	return fmt.Sprintf("dependency missing: %s (%s)", e.Tool, e.Detail)
}

// GenerationError reports an external generator that ran and exited non-zero.
type GenerationError struct {
	Desc     string
	ExitCode int
	Stderr   string
	cause    error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s: exit code %d", e.Desc, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.cause }

// ValidationError reports an artifact that is missing or undersized. Unlike
// format warnings, this is fatal to the producing attempt.
type ValidationError struct {
	Path   string
	Size   int64
	Min    int64
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid artifact %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid artifact %s: %d bytes, need at least %d", e.Path, e.Size, e.Min)
}

// MissingInputError reports a stage whose prerequisite artifact is absent.
type MissingInputError struct {
	Stage    StageName
	Artifact ArtifactKind
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("stage %s: required input %s not present", e.Stage, e.Artifact)
}

// Attempt records one failed strategy inside a chain.
type Attempt struct {
	Strategy string
	Err      error
}

// ChainExhaustedError reports a provider chain whose every strategy failed.
type ChainExhaustedError struct {
	Stage    StageName
	Attempts []Attempt
}

func (e *ChainExhaustedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Strategy, a.Err)
	}
	return fmt.Sprintf("stage %s: all providers failed [%s]", e.Stage, strings.Join(parts, "; "))
}

// PipelineError is the failed-job result: the stage that aborted the run plus
// its cause. The job context still carries all accumulated stage results.
type PipelineError struct {
	Stage StageName
	Cause error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at stage %s: %v", e.Stage, e.Cause)
}

func (e *PipelineError) Unwrap() error { return e.Cause }
