// Package cli implements the benchbuild command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spachava753/benchbuild/internal/config"
	"github.com/spachava753/benchbuild/internal/executor"
	"github.com/spachava753/benchbuild/internal/log"
	"github.com/spachava753/benchbuild/internal/metrics"
	"github.com/spachava753/benchbuild/internal/models"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

const usageLine = "benchbuild [flags] <build_type> <fuzzer>"

// BuildFunc runs a build with a loaded configuration.
type BuildFunc func(ctx context.Context, cfg models.BuildConfig, buildType, fuzzer string, recorder metrics.Recorder) (*models.BuildResult, error)

type flags struct {
	configPath  string
	logLevel    string
	logFormat   string
	metricsFile string
}

// App holds the streams and build function the root command uses.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Build  BuildFunc
}

// NewApp returns an App wired to the process streams and the real orchestrator.
func NewApp() *App {
	return &App{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Build:  executor.RunFromConfig,
	}
}

// exactTwoArgs rejects any other argument count with a UsageError.
func exactTwoArgs(_ *cobra.Command, args []string) error {
	if len(args) != 2 {
		return &models.UsageError{Usage: usageLine, Got: len(args)}
	}
	return nil
}

// NewRootCmd builds the root command.
func (a *App) NewRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   usageLine,
		Short: "Build and smoke-test the fuzzer/benchmark pairs affected by a change",
		Long: `benchbuild selects the benchmarks a CI run must rebuild for a fuzzer,
runs "make RUNNING_ON_CI=yes -j <target>" for each pair with retries, and
reclaims container runtime disk space after every build.

Build types: oss-fuzz, standard, bug.`,
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		Args:          exactTwoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), f, args[0], args[1])
		},
	}
	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)

	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (.yaml, .yml or .toml)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	return cmd
}

func (a *App) run(ctx context.Context, f flags, buildType, fuzzer string) error {
	cfg := config.DefaultBuildConfig()
	if f.configPath != "" {
		loaded, err := config.LoadBuildConfig(f.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	// flags override the config file
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		cfg.LogFormat = f.logFormat
	}
	if f.metricsFile != "" {
		cfg.MetricsFile = f.metricsFile
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := log.Init(cfg.LogLevel, cfg.LogFormat, a.Stderr)
	if err != nil {
		return &models.ConfigurationError{Field: "log_level", Message: err.Error()}
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if cfg.MetricsFile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	result, buildErr := a.Build(ctx, cfg, buildType, fuzzer, recorder)
	if result != nil {
		printSummary(a.Stdout, result)
	}
	if prom != nil {
		if err := prom.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
	if buildErr != nil {
		return buildErr
	}
	if result == nil || !result.Success {
		return errors.New("build failed")
	}
	return nil
}

func printSummary(w io.Writer, r *models.BuildResult) {
	fmt.Fprintf(w, "\nRun: %s\n", r.RunID)
	fmt.Fprintf(w, "Build type: %s\n", r.BuildType)
	fmt.Fprintf(w, "Fuzzer: %s\n", r.Fuzzer)
	fmt.Fprintf(w, "Selected pairs: %d\n", len(r.Pairs))
	fmt.Fprintf(w, "Built: %d\n", r.Built())
	for _, pr := range r.Results {
		status := "ok"
		if pr.Error != "" {
			status = "FAILED"
		}
		fmt.Fprintf(w, "  %-6s %s (attempts: %d, %.1fs)\n", status, pr.Target, pr.Attempts, pr.DurationSec)
	}
	if r.ReclaimWarnings > 0 {
		fmt.Fprintf(w, "Reclaim warnings: %d\n", r.ReclaimWarnings)
	}
	if !r.EndedAt.IsZero() {
		fmt.Fprintf(w, "Duration: %.2fs\n", r.EndedAt.Sub(r.StartedAt).Seconds())
	}
	if r.Success {
		fmt.Fprintln(w, "Status: success")
	} else {
		fmt.Fprintln(w, "Status: failed")
	}
}

// Execute runs the root command with args and returns the process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	cmd := a.NewRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var usageErr *models.UsageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(a.Stderr, "Error: %v\n\n", err)
			fmt.Fprint(a.Stderr, cmd.UsageString())
			return 1
		}
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
