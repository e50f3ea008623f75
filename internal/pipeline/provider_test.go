package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/musewave/api/internal/model"
)

func testJob(t *testing.T, lyrics string) *JobContext {
	t.Helper()
	return NewJob("test1234", t.TempDir(), "ambient piano at dusk", lyrics, "en", model.VideoStyleSpectrum)
}

// writerStrategy returns a strategy that writes size bytes to the chain's
// output artifact.
func writerStrategy(name string, kind ArtifactKind, size int) Strategy {
	return Strategy{
		Name: name,
		Generate: func(ctx context.Context, job *JobContext) error {
			f, err := os.Create(job.Path(kind))
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = f.Write(make([]byte, size))
			return err
		},
	}
}

func failingStrategy(name string) Strategy {
	return Strategy{
		Name: name,
		Generate: func(ctx context.Context, job *JobContext) error {
			return &GenerationError{Desc: name, ExitCode: 1, Stderr: "boom"}
		},
	}
}

func unavailableStrategy(name string) Strategy {
	return Strategy{
		Name: name,
		Probe: func(ctx context.Context) error {
			return &DependencyError{Tool: name, Detail: "not installed"}
		},
		Generate: func(ctx context.Context, job *JobContext) error {
			panic("generate must not run when the probe fails")
		},
	}
}

func TestChainPrimarySucceeds(t *testing.T) {
	job := testJob(t, "")
	chain := NewChain(StageTexture, ArtifactTextureAudio, testGate(), testLogger(),
		writerStrategy("primary", ArtifactTextureAudio, 12000),
		failingStrategy("fallback"),
	)

	art, err := chain.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Engine != "primary" {
		t.Errorf("engine = %q, want %q", art.Engine, "primary")
	}
	if !chain.primary(art.Engine) {
		t.Error("expected artifact to come from the primary strategy")
	}
}

func TestChainFallsThroughToDependencyFreeTail(t *testing.T) {
	job := testJob(t, "")
	chain := NewChain(StageTexture, ArtifactTextureAudio, testGate(), testLogger(),
		unavailableStrategy("external-model"),
		failingStrategy("external-tool"),
		writerStrategy("in-process", ArtifactTextureAudio, 12000),
	)

	art, err := chain.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Engine != "in-process" {
		t.Errorf("engine = %q, want %q", art.Engine, "in-process")
	}
	if chain.primary(art.Engine) {
		t.Error("expected a fallback engine")
	}
}

func TestChainExhaustionListsEveryAttempt(t *testing.T) {
	job := testJob(t, "")
	chain := NewChain(StageVocals, ArtifactVocalsAudio, testGate(), testLogger(),
		unavailableStrategy("coqui-tts"),
		failingStrategy("synth-voice"),
	)

	_, err := chain.Run(context.Background(), job)

	var exhausted *ChainExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *ChainExhaustedError, got %v", err)
	}
	if len(exhausted.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(exhausted.Attempts))
	}
	var dep *DependencyError
	if !errors.As(exhausted.Attempts[0].Err, &dep) {
		t.Errorf("first attempt error = %v, want *DependencyError", exhausted.Attempts[0].Err)
	}
}

func TestChainCleansUpRejectedOutput(t *testing.T) {
	job := testJob(t, "")

	// The first strategy writes a file too small to pass the gate. It must
	// not survive to masquerade as the second strategy's output.
	undersized := writerStrategy("undersized", ArtifactTextureAudio, 500)
	chain := NewChain(StageTexture, ArtifactTextureAudio, testGate(), testLogger(),
		undersized,
		failingStrategy("also-failing"),
	)

	_, err := chain.Run(context.Background(), job)
	if err == nil {
		t.Fatal("expected chain exhaustion")
	}
	if _, statErr := os.Stat(job.Path(ArtifactTextureAudio)); !os.IsNotExist(statErr) {
		t.Error("rejected output file was left behind")
	}
}

func TestChainStopsOnCanceledContext(t *testing.T) {
	job := testJob(t, "")
	chain := NewChain(StageTexture, ArtifactTextureAudio, testGate(), testLogger(),
		writerStrategy("primary", ArtifactTextureAudio, 12000),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Run(ctx, job)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
