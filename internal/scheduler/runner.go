package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// Runner generates one report.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

// ExecRunner runs report generation as a child process that inherits the
// scheduler's stdout and stderr.
type ExecRunner struct {
	Command []string
	Stdout  io.Writer
	Stderr  io.Writer
	log     zerolog.Logger
}

// NewExecRunner creates a runner for command. An empty command re-invokes
// the current executable with "run" followed by extraArgs.
func NewExecRunner(command []string, extraArgs []string, log zerolog.Logger) (*ExecRunner, error) {
	if len(command) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		command = append([]string{exe, "run"}, extraArgs...)
	}
	return &ExecRunner{
		Command: command,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		log:     log.With().Str("component", "runner").Logger(),
	}, nil
}

func (r *ExecRunner) Run(ctx context.Context) error {
	started := time.Now()
	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	r.log.Info().Strs("command", r.Command).Msg("running report generation")
	err := cmd.Run()
	elapsed := time.Since(started)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		r.log.Info().Dur("elapsed", elapsed).Msg("report generation completed")
		return nil
	case errors.As(err, &exitErr):
		r.log.Error().Int("status", exitErr.ExitCode()).Dur("elapsed", elapsed).Msg("report generation failed")
		return fmt.Errorf("report generation exited with status %d", exitErr.ExitCode())
	default:
		r.log.Error().Err(err).Msg("report generation could not start")
		return fmt.Errorf("start report generation: %w", err)
	}
}
