package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spachava753/benchbuild/internal/environment"
	"github.com/spachava753/benchbuild/internal/metrics"
	"github.com/spachava753/benchbuild/internal/models"
	"github.com/spachava753/benchbuild/internal/retry"
	"github.com/spachava753/benchbuild/internal/runner"
)

// CoverageFuzzer is the pseudo-fuzzer whose builds produce coverage binaries.
const CoverageFuzzer = "coverage"

// PairResolver computes the pairs a request must build.
type PairResolver interface {
	Resolve(ctx context.Context, req models.BuildRequest) ([]models.BuildPair, error)
}

// CommandRunner runs a command under a retry policy and reports the attempts made.
type CommandRunner interface {
	Run(ctx context.Context, cmd runner.Command, policy retry.Policy) (int, error)
}

// ResourceReclaimer frees container runtime resources between builds.
type ResourceReclaimer interface {
	Reclaim(ctx context.Context) (environment.ReclaimReport, error)
}

// BuildOrchestrator builds the selected pairs one at a time, reclaiming
// container resources after each.
type BuildOrchestrator struct {
	cfg       models.BuildConfig
	resolver  PairResolver
	runner    CommandRunner
	reclaimer ResourceReclaimer
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// Option configures a BuildOrchestrator.
type Option func(*BuildOrchestrator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *BuildOrchestrator) {
		o.recorder = r
	}
}

// WithLogger sets the base logger; each run adds its run_id.
func WithLogger(l *slog.Logger) Option {
	return func(o *BuildOrchestrator) {
		o.logger = l
	}
}

// NewBuildOrchestrator creates a new build orchestrator.
func NewBuildOrchestrator(cfg models.BuildConfig, resolver PairResolver, cmdRunner CommandRunner, reclaimer ResourceReclaimer, opts ...Option) (*BuildOrchestrator, error) {
	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}
	if cfg.Make.Command == "" {
		return nil, &models.ConfigurationError{Field: "make.command", Message: "must not be empty"}
	}

	o := &BuildOrchestrator{
		cfg:       cfg,
		resolver:  resolver,
		runner:    cmdRunner,
		reclaimer: reclaimer,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// MakeTarget returns the make target that builds and smoke-tests a pair.
func MakeTarget(fuzzer, benchmark string) string {
	if fuzzer == CoverageFuzzer {
		return "build-coverage-" + benchmark
	}
	return fmt.Sprintf("test-run-%s-%s", fuzzer, benchmark)
}

// Build resolves the pairs for buildType and fuzzer and builds them in order.
// It stops at the first pair whose build fails after all retries, or at the
// first failed daemon restart; the returned result then has Success false and
// the error describes the failure. An empty selection succeeds.
func (o *BuildOrchestrator) Build(ctx context.Context, buildType, fuzzer string) (*models.BuildResult, error) {
	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID)

	req := models.BuildRequest{
		Type:     models.BuildType(buildType),
		Fuzzer:   fuzzer,
		ForceAll: o.cfg.IsAlwaysBuild(fuzzer),
	}
	result := &models.BuildResult{
		RunID:     runID,
		BuildType: req.Type,
		Fuzzer:    fuzzer,
		ForceAll:  req.ForceAll,
		StartedAt: time.Now(),
	}
	defer func() {
		result.EndedAt = time.Now()
		o.recorder.IncRunOutcome(buildType, result.Success)
	}()

	pairs, err := o.resolver.Resolve(ctx, req)
	if err != nil {
		return result, fmt.Errorf("resolving build pairs: %w", err)
	}
	result.Pairs = pairs
	o.recorder.SetSelectedPairs(buildType, fuzzer, len(pairs))

	if len(pairs) == 0 {
		logger.Info("no benchmarks to build", "build_type", buildType, "fuzzer", fuzzer)
		result.Success = true
		return result, nil
	}

	logger.Info("building fuzzer-benchmark pairs",
		"build_type", buildType,
		"fuzzer", fuzzer,
		"force_all", req.ForceAll,
		"pairs", pairStrings(pairs))

	policy := retry.FromConfig(o.cfg.Retry)
	for _, pair := range pairs {
		pr, buildErr := o.buildPair(ctx, logger, pair, policy)
		result.Results = append(result.Results, pr)

		warnings, reclaimErr := o.reclaim(ctx, logger)
		result.ReclaimWarnings += warnings

		if buildErr != nil || reclaimErr != nil {
			return result, errors.Join(buildErr, reclaimErr)
		}
	}

	result.Success = true
	logger.Info("all pairs built", "pairs", len(pairs), "duration", time.Since(result.StartedAt).Round(time.Second))
	return result, nil
}

func (o *BuildOrchestrator) buildPair(ctx context.Context, logger *slog.Logger, pair models.BuildPair, policy retry.Policy) (models.PairResult, error) {
	target := MakeTarget(pair.Fuzzer, pair.Benchmark)
	pr := models.PairResult{Pair: pair, Target: target}

	logger.Info("building pair", "fuzzer", pair.Fuzzer, "benchmark", pair.Benchmark, "target", target)
	start := time.Now()
	attempts, err := o.runner.Run(ctx, o.makeCommand(target), policy)
	d := time.Since(start)

	pr.Attempts = attempts
	pr.DurationSec = d.Seconds()
	o.recorder.ObservePairBuild(pair.Fuzzer, pair.Benchmark, d, attempts, err == nil)
	if err != nil {
		pr.Error = err.Error()
		logger.Error("pair build failed", "pair", pair.String(), "attempts", attempts, "error", err)
		return pr, fmt.Errorf("building %s: %w", pair, err)
	}
	return pr, nil
}

// reclaim runs after every pair, even a failed one, so the host is left clean.
func (o *BuildOrchestrator) reclaim(ctx context.Context, logger *slog.Logger) (int, error) {
	start := time.Now()
	report, err := o.reclaimer.Reclaim(ctx)
	o.recorder.ObserveReclaim(time.Since(start), len(report.Warnings), err == nil)
	if err != nil {
		logger.Error("reclaiming container resources failed", "error", err)
		return len(report.Warnings), err
	}
	return len(report.Warnings), nil
}

func (o *BuildOrchestrator) makeCommand(target string) runner.Command {
	args := append(append([]string{}, o.cfg.Make.Args...), target)
	return runner.Command{
		Name: o.cfg.Make.Command,
		Args: args,
		Dir:  o.cfg.WorkDir,
	}
}

func pairStrings(pairs []models.BuildPair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.String()
	}
	return out
}
