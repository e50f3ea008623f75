package pipeline

import (
	"context"
	"log/slog"
	"os"
)

// Strategy is one interchangeable generator for a stage. Probe decides
// whether the strategy's dependency is available; a nil Probe means always
// available. Generate writes the stage's output file and returns an error on
// failure. Strategies share no state: a failed attempt must leave nothing
// behind for the next one.
type Strategy struct {
	Name     string
	Probe    func(ctx context.Context) error
	Generate func(ctx context.Context, job *JobContext) error
}

// Chain tries an ordered list of strategies and returns the first output
// that passes the validation gate. The last strategy in every chain built
// here is a dependency-free in-process synthesis, so a required stage can
// always produce some valid output short of total environment failure.
type Chain struct {
	Stage      StageName
	Output     ArtifactKind
	Strategies []Strategy
	gate       *Gate
	log        *slog.Logger
}

// NewChain assembles a provider chain for one stage.
func NewChain(stage StageName, output ArtifactKind, gate *Gate, logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		Stage:      stage,
		Output:     output,
		Strategies: strategies,
		gate:       gate,
		log:        logger,
	}
}

// Run attempts each strategy in order and returns the first validated
// artifact, annotated with the engine that produced it. If every strategy is
// exhausted it returns a *ChainExhaustedError listing all attempts.
func (c *Chain) Run(ctx context.Context, job *JobContext) (*Artifact, error) {
	outPath := job.Path(c.Output)
	var attempts []Attempt

	for i, s := range c.Strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log := c.log.With("job_id", job.ID, "stage", c.Stage, "engine", s.Name)

		if s.Probe != nil {
			if err := s.Probe(ctx); err != nil {
				log.Info("strategy unavailable", "error", err)
				attempts = append(attempts, Attempt{Strategy: s.Name, Err: err})
				continue
			}
		}

		// A previous attempt may have left a partial file; the contract is
		// that every attempt starts from absence.
		_ = os.Remove(outPath)

		if err := s.Generate(ctx, job); err != nil {
			log.Warn("strategy failed", "error", err)
			attempts = append(attempts, Attempt{Strategy: s.Name, Err: err})
			_ = os.Remove(outPath)
			continue
		}

		art, err := c.gate.Check(ctx, outPath, c.Output)
		if err != nil {
			log.Warn("output rejected by validation gate", "error", err)
			attempts = append(attempts, Attempt{Strategy: s.Name, Err: err})
			_ = os.Remove(outPath)
			continue
		}

		art.Engine = s.Name
		if i == 0 {
			log.Info("stage output accepted", "size", art.Size)
		} else {
			log.Info("stage output accepted via fallback", "size", art.Size, "attempt", i+1)
		}
		return art, nil
	}

	return nil, &ChainExhaustedError{Stage: c.Stage, Attempts: attempts}
}

// primary reports whether engine names the chain's first strategy.
func (c *Chain) primary(engine string) bool {
	return len(c.Strategies) > 0 && c.Strategies[0].Name == engine
}
