package environment

import (
	"context"
)

// Runtime is the subset of a container runtime CLI that reclamation needs.
type Runtime interface {
	// Name returns the runtime name (e.g., "docker").
	Name() string

	// ListRunningContainers returns the IDs of running containers.
	ListRunningContainers(ctx context.Context) ([]string, error)

	// KillContainers sends SIGKILL to the given containers.
	KillContainers(ctx context.Context, ids []string) error

	// RestartDaemon restarts the runtime's daemon service.
	RestartDaemon(ctx context.Context) error

	// ListAllContainers returns the IDs of all containers, running or stopped.
	ListAllContainers(ctx context.Context) ([]string, error)

	// RemoveContainers force-removes the given containers.
	RemoveContainers(ctx context.Context, ids []string) error

	// ListImages returns the IDs of all images, including intermediates.
	ListImages(ctx context.Context) ([]string, error)

	// RemoveImages force-removes the given images.
	RemoveImages(ctx context.Context, ids []string) error

	// PruneBuildCache removes all build cache.
	PruneBuildCache(ctx context.Context) error
}
