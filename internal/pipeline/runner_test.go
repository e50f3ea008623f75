package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunnerCapturesStdout(t *testing.T) {
	r := NewRunner(0, testLogger())

	out, err := r.Run(context.Background(), "echo test", "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Errorf("stdout = %q, want hello", out)
	}
}

func TestRunnerNonZeroExit(t *testing.T) {
	r := NewRunner(0, testLogger())

	_, err := r.Run(context.Background(), "failing tool", "sh", "-c", "echo broken >&2; exit 3")

	var gerr *GenerationError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *GenerationError, got %v", err)
	}
	if gerr.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", gerr.ExitCode)
	}
	if !strings.Contains(gerr.Stderr, "broken") {
		t.Errorf("stderr = %q, want to contain broken", gerr.Stderr)
	}
}

func TestRunnerTimeout(t *testing.T) {
	r := NewRunner(100*time.Millisecond, testLogger())

	start := time.Now()
	_, err := r.Run(context.Background(), "slow tool", "sh", "-c", "sleep 5")
	elapsed := time.Since(start)

	var gerr *GenerationError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *GenerationError, got %v", err)
	}
	if !strings.Contains(gerr.Stderr, context.DeadlineExceeded.Error()) {
		t.Errorf("stderr = %q, want deadline detail", gerr.Stderr)
	}
	if elapsed > 3*time.Second {
		t.Errorf("runner waited %v, timeout did not take effect", elapsed)
	}
}

func TestRunnerMissingBinary(t *testing.T) {
	r := NewRunner(0, testLogger())

	_, err := r.Run(context.Background(), "missing tool", "definitely-not-a-real-binary-9f2c")
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}

func TestLookPathProbe(t *testing.T) {
	if err := LookPathProbe("sh")(context.Background()); err != nil {
		t.Errorf("sh should be on PATH, got %v", err)
	}

	err := LookPathProbe("definitely-not-a-real-binary-9f2c")(context.Background())
	var dep *DependencyError
	if !errors.As(err, &dep) {
		t.Fatalf("expected *DependencyError, got %v", err)
	}
	if dep.Tool != "definitely-not-a-real-binary-9f2c" {
		t.Errorf("tool = %q", dep.Tool)
	}
}
