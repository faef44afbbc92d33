package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spachava753/benchbuild/internal/catalog"
	"github.com/spachava753/benchbuild/internal/changes"
	"github.com/spachava753/benchbuild/internal/config"
	"github.com/spachava753/benchbuild/internal/environment"
	"github.com/spachava753/benchbuild/internal/environment/docker"
	"github.com/spachava753/benchbuild/internal/metrics"
	"github.com/spachava753/benchbuild/internal/models"
	"github.com/spachava753/benchbuild/internal/runner"
	"github.com/spachava753/benchbuild/internal/selection"
)

// NewFromConfig wires the default collaborators: the benchmarks directory
// catalog, git change detection, a process runner and docker reclamation.
func NewFromConfig(cfg models.BuildConfig, recorder metrics.Recorder, logger *slog.Logger) (*BuildOrchestrator, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	var rt environment.Runtime
	switch cfg.Reclaim.Runtime {
	case "docker":
		rt = docker.NewRuntime(cfg.Reclaim.RestartCommand)
	default:
		return nil, fmt.Errorf("unsupported container runtime: %s", cfg.Reclaim.Runtime)
	}

	resolver := selection.NewResolver(
		catalog.NewDirSource(config.BenchmarksPath(cfg)),
		changes.NewGitSource(cfg.WorkDir, cfg.Changes.Upstream, cfg.Changes.SharedFuzzerPaths),
	)

	return NewBuildOrchestrator(cfg,
		resolver,
		runner.New(runner.WithLogger(logger)),
		environment.NewReclaimer(rt, cfg.Reclaim.RestartDelay(), logger),
		WithRecorder(recorder),
		WithLogger(logger),
	)
}

// RunFromConfig builds the pairs for buildType and fuzzer with the default
// collaborators.
func RunFromConfig(ctx context.Context, cfg models.BuildConfig, buildType, fuzzer string, recorder metrics.Recorder) (*models.BuildResult, error) {
	orchestrator, err := NewFromConfig(cfg, recorder, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}
	return orchestrator.Build(ctx, buildType, fuzzer)
}
