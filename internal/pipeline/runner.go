package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Runner executes one external command to completion with a per-invocation
// timeout, capturing stdout and stderr separately. A non-zero exit is always
// a failure; retry policy belongs to the caller.
type Runner struct {
	Timeout time.Duration
	log     *slog.Logger
}

// NewRunner creates a process runner. A zero timeout disables the deadline.
func NewRunner(timeout time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Timeout: timeout, log: logger}
}

// Run invokes name with args and returns captured stdout on success. On a
// non-zero exit it returns a *GenerationError carrying the exit code and
// stderr. The runner itself never touches the filesystem; whatever files
// appear are the external program's doing.
func (r *Runner) Run(ctx context.Context, desc, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	r.log.Debug("running external command", "desc", desc, "cmd", name)

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	stderrText := stderr.String()
	if ctxErr := ctx.Err(); ctxErr != nil {
		stderrText = fmt.Sprintf("%v: %s", ctxErr, stderrText)
	}

	return nil, &GenerationError{
		Desc:     desc,
		ExitCode: exitCode,
		Stderr:   stderrText,
		cause:    err,
	}
}

// LookPathProbe returns a dependency probe that checks bin is on PATH.
func LookPathProbe(bin string) func(context.Context) error {
	return func(context.Context) error {
		if _, err := exec.LookPath(bin); err != nil {
			return &DependencyError{Tool: bin, Detail: "not found on PATH"}
		}
		return nil
	}
}
