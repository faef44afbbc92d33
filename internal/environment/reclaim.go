package environment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spachava753/benchbuild/internal/models"
	"github.com/spachava753/benchbuild/internal/retry"
)

// DefaultRestartDelay is how long to wait for the daemon after a restart.
const DefaultRestartDelay = 5 * time.Second

// ReclaimReport summarizes one reclamation pass.
type ReclaimReport struct {
	KilledContainers  int
	RemovedContainers int
	RemovedImages     int
	Warnings          []models.ReclamationWarning
}

// bestEffortStep may fail without stopping reclamation.
type bestEffortStep func(ctx context.Context, report *ReclaimReport) *models.ReclamationWarning

// fatalStep aborts reclamation and the enclosing build run when it fails.
type fatalStep func(ctx context.Context) error

// Reclaimer frees container runtime disk usage between builds.
type Reclaimer struct {
	runtime      Runtime
	restartDelay time.Duration
	logger       *slog.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewReclaimer creates a reclaimer over rt. A negative restartDelay means
// DefaultRestartDelay.
func NewReclaimer(rt Runtime, restartDelay time.Duration, logger *slog.Logger) *Reclaimer {
	if restartDelay < 0 {
		restartDelay = DefaultRestartDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reclaimer{
		runtime:      rt,
		restartDelay: restartDelay,
		logger:       logger,
		sleep:        retry.Sleep,
	}
}

// Reclaim kills running containers, restarts the daemon, then removes all
// containers, images and build cache. Only a failed daemon restart is
// returned as an error; every other failure is recorded as a warning.
func (r *Reclaimer) Reclaim(ctx context.Context) (ReclaimReport, error) {
	var report ReclaimReport
	start := time.Now()
	r.logger.Debug("reclaiming container resources", "runtime", r.runtime.Name())

	r.bestEffort(ctx, &report, r.killRunning)

	if err := r.fatal(ctx, r.restartDaemon); err != nil {
		return report, err
	}

	r.bestEffort(ctx, &report, r.removeContainers)
	r.bestEffort(ctx, &report, r.removeImages)
	r.bestEffort(ctx, &report, r.pruneBuildCache)

	r.logger.Info("reclaimed container resources",
		"killed_containers", report.KilledContainers,
		"removed_containers", report.RemovedContainers,
		"removed_images", report.RemovedImages,
		"warnings", len(report.Warnings),
		"duration", time.Since(start).Round(time.Millisecond))
	return report, nil
}

func (r *Reclaimer) bestEffort(ctx context.Context, report *ReclaimReport, step bestEffortStep) {
	if w := step(ctx, report); w != nil {
		r.logger.Warn("reclamation step failed", "step", w.Step, "error", w.Err)
		report.Warnings = append(report.Warnings, *w)
	}
}

func (r *Reclaimer) fatal(ctx context.Context, step fatalStep) error {
	return step(ctx)
}

func (r *Reclaimer) killRunning(ctx context.Context, report *ReclaimReport) *models.ReclamationWarning {
	ids, err := r.runtime.ListRunningContainers(ctx)
	if err != nil {
		return &models.ReclamationWarning{Step: "list running containers", Err: err}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.runtime.KillContainers(ctx, ids); err != nil {
		return &models.ReclamationWarning{Step: "kill containers", Err: err}
	}
	report.KilledContainers = len(ids)
	return nil
}

func (r *Reclaimer) restartDaemon(ctx context.Context) error {
	r.logger.Info("restarting container daemon", "runtime", r.runtime.Name())
	if err := r.runtime.RestartDaemon(ctx); err != nil {
		return &models.DaemonRestartError{Err: err}
	}
	if err := r.sleep(ctx, r.restartDelay); err != nil {
		return &models.DaemonRestartError{Err: fmt.Errorf("waiting for daemon: %w", err)}
	}
	return nil
}

func (r *Reclaimer) removeContainers(ctx context.Context, report *ReclaimReport) *models.ReclamationWarning {
	ids, err := r.runtime.ListAllContainers(ctx)
	if err != nil {
		return &models.ReclamationWarning{Step: "list containers", Err: err}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.runtime.RemoveContainers(ctx, ids); err != nil {
		return &models.ReclamationWarning{Step: "remove containers", Err: err}
	}
	report.RemovedContainers = len(ids)
	return nil
}

func (r *Reclaimer) removeImages(ctx context.Context, report *ReclaimReport) *models.ReclamationWarning {
	ids, err := r.runtime.ListImages(ctx)
	if err != nil {
		return &models.ReclamationWarning{Step: "list images", Err: err}
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	if err := r.runtime.RemoveImages(ctx, ids); err != nil {
		return &models.ReclamationWarning{Step: "remove images", Err: err}
	}
	report.RemovedImages = len(ids)
	return nil
}

func (r *Reclaimer) pruneBuildCache(ctx context.Context, _ *ReclaimReport) *models.ReclamationWarning {
	if err := r.runtime.PruneBuildCache(ctx); err != nil {
		return &models.ReclamationWarning{Step: "prune build cache", Err: err}
	}
	return nil
}

// dedupe drops repeated IDs, keeping first occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
