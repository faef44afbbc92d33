package docker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// DefaultRestartCommand restarts the docker service on CI hosts.
var DefaultRestartCommand = []string{"sudo", "service", "docker", "restart"}

// commandFunc runs name with args and returns its stdout.
type commandFunc func(ctx context.Context, name string, args ...string) (string, error)

// Runtime implements environment.Runtime on top of the docker CLI.
type Runtime struct {
	binary         string
	restartCommand []string
	run            commandFunc
}

// NewRuntime creates a docker runtime. An empty restartCommand means
// DefaultRestartCommand.
func NewRuntime(restartCommand []string) *Runtime {
	if len(restartCommand) == 0 {
		restartCommand = DefaultRestartCommand
	}
	return &Runtime{
		binary:         "docker",
		restartCommand: restartCommand,
		run:            runCommand,
	}
}

// Name returns the runtime name.
func (r *Runtime) Name() string {
	return "docker"
}

// ListRunningContainers returns the IDs of running containers.
func (r *Runtime) ListRunningContainers(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, "listing running containers", "ps", "-q")
}

// KillContainers kills the given containers.
func (r *Runtime) KillContainers(ctx context.Context, ids []string) error {
	return r.withIDs(ctx, "killing containers", ids, "kill")
}

// RestartDaemon restarts the docker service.
func (r *Runtime) RestartDaemon(ctx context.Context) error {
	if _, err := r.run(ctx, r.restartCommand[0], r.restartCommand[1:]...); err != nil {
		return fmt.Errorf("restarting docker: %w", err)
	}
	return nil
}

// ListAllContainers returns the IDs of all containers.
func (r *Runtime) ListAllContainers(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, "listing containers", "ps", "-a", "-q")
}

// RemoveContainers force-removes the given containers.
func (r *Runtime) RemoveContainers(ctx context.Context, ids []string) error {
	return r.withIDs(ctx, "removing containers", ids, "rm", "-f")
}

// ListImages returns the IDs of all images.
func (r *Runtime) ListImages(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, "listing images", "images", "-a", "-q")
}

// RemoveImages force-removes the given images.
func (r *Runtime) RemoveImages(ctx context.Context, ids []string) error {
	return r.withIDs(ctx, "removing images", ids, "rmi", "-f")
}

// PruneBuildCache removes the builder cache.
func (r *Runtime) PruneBuildCache(ctx context.Context) error {
	if _, err := r.run(ctx, r.binary, "builder", "prune", "-f"); err != nil {
		return fmt.Errorf("pruning build cache: %w", err)
	}
	return nil
}

func (r *Runtime) listIDs(ctx context.Context, what string, args ...string) ([]string, error) {
	out, err := r.run(ctx, r.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return strings.Fields(out), nil
}

func (r *Runtime) withIDs(ctx context.Context, what string, ids []string, args ...string) error {
	if len(ids) == 0 {
		return nil
	}
	full := append(append([]string{}, args...), ids...)
	if _, err := r.run(ctx, r.binary, full...); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// runCommand executes a runtime CLI call, capturing stdout and stderr.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	slog.Debug("executing runtime command", "cmd", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
