// Package runner executes external commands with bounded retries.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/spachava753/benchbuild/internal/models"
	"github.com/spachava753/benchbuild/internal/retry"
)

// stderrTailSize bounds how much stderr is kept for error reporting.
const stderrTailSize = 4096

// Command is an external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string   // working directory; empty means the current one
	Env  []string // extra KEY=VALUE pairs appended to the parent environment
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, s := range append([]string{c.Name}, c.Args...) {
		if s == "" || strings.ContainsAny(s, " \t\"'") {
			s = fmt.Sprintf("%q", s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// ExecFunc runs cmd once and returns its exit code. A non-nil error with
// exit code -1 means the process could not be started.
type ExecFunc func(ctx context.Context, cmd Command, stdout, stderr io.Writer) (int, error)

// Runner runs commands, retrying failures according to a retry.Policy.
type Runner struct {
	exec   ExecFunc
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecFunc replaces process spawning. Used primarily for testing.
func WithExecFunc(fn ExecFunc) Option {
	return func(r *Runner) {
		r.exec = fn
	}
}

// WithOutput sets where child stdout and stderr are streamed.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithLogger sets the logger used for command lines and retries.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New creates a new Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{
		exec:   ExecProcess,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes cmd until it exits zero or the policy's attempts are used up.
// It returns the number of attempts made. On exhaustion the error is a
// *models.CommandError describing the last attempt.
func (r *Runner) Run(ctx context.Context, cmd Command, policy retry.Policy) (int, error) {
	line := cmd.String()

	var (
		lastCode   int
		lastStderr string
	)
	attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		r.logger.Info("running command", "cmd", line, "attempt", attempt, "max_attempts", policy.MaxAttempts)

		tail := newTailBuffer(stderrTailSize)
		code, err := r.exec(ctx, cmd, r.stdout, io.MultiWriter(r.stderr, tail))
		lastCode = code
		lastStderr = tail.String()
		if err == nil && code != 0 {
			err = fmt.Errorf("exit status %d", code)
		}
		if err != nil {
			r.logger.Warn("command failed", "cmd", line, "attempt", attempt, "exit_code", code, "error", err)
		}
		return err
	})
	if err == nil {
		return attempts, nil
	}

	if attempts == 0 {
		// invalid policy, nothing ran
		return 0, fmt.Errorf("running %s: %w", line, err)
	}
	return attempts, &models.CommandError{
		Command:  line,
		Attempts: attempts,
		ExitCode: lastCode,
		Stderr:   lastStderr,
		Err:      err,
	}
}

// ExecProcess is the default ExecFunc: it spawns cmd as a child process and
// waits for it to exit.
func ExecProcess(ctx context.Context, cmd Command, stdout, stderr io.Writer) (int, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdout = stdout
	c.Stderr = stderr

	err := c.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("starting %s: %w", cmd.Name, err)
}
