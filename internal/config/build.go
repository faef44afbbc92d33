package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/benchbuild/internal/models"
)

// Defaults for a CI run.
const (
	DefaultAlwaysBuildFuzzer = "afl"
	DefaultMaxAttempts       = 3
	DefaultRetryDelaySec     = 60.0
	DefaultRestartDelaySec   = 5.0
	DefaultUpstream          = "origin/master"
	DefaultRuntime           = "docker"
)

// DefaultBuildConfig returns a BuildConfig with default values.
func DefaultBuildConfig() models.BuildConfig {
	return models.BuildConfig{
		AlwaysBuildFuzzer: DefaultAlwaysBuildFuzzer,
		WorkDir:           ".",
		BenchmarksDir:     "benchmarks",
		Retry: models.RetryConfig{
			MaxAttempts: DefaultMaxAttempts,
			DelaySec:    DefaultRetryDelaySec,
		},
		Make: models.MakeConfig{
			Command: "make",
			Args:    []string{"RUNNING_ON_CI=yes", "-j"},
		},
		Changes: models.ChangesConfig{
			Upstream: DefaultUpstream,
		},
		Reclaim: models.ReclaimConfig{
			Runtime:         DefaultRuntime,
			RestartCommand:  []string{"sudo", "service", "docker", "restart"},
			RestartDelaySec: DefaultRestartDelaySec,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadBuildConfig loads a YAML (.yaml, .yml) or TOML (.toml) config file on
// top of the defaults.
func LoadBuildConfig(path string) (models.BuildConfig, error) {
	cfg := DefaultBuildConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading build config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing build config: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parsing build config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, &models.ConfigurationError{
				Field:   undecoded[0].String(),
				Message: "unknown configuration key",
			}
		}
	default:
		return cfg, &models.ConfigurationError{
			Field:   "config",
			Message: fmt.Sprintf("unsupported config file extension %q (want .yaml, .yml or .toml)", ext),
		}
	}

	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyDefaults fills fields a config file left empty.
func applyDefaults(cfg *models.BuildConfig) {
	def := DefaultBuildConfig()
	if cfg.WorkDir == "" {
		cfg.WorkDir = def.WorkDir
	}
	if cfg.BenchmarksDir == "" {
		cfg.BenchmarksDir = def.BenchmarksDir
	}
	if cfg.Make.Command == "" {
		cfg.Make = def.Make
	}
	if cfg.Changes.Upstream == "" {
		cfg.Changes.Upstream = def.Changes.Upstream
	}
	if cfg.Reclaim.Runtime == "" {
		cfg.Reclaim.Runtime = def.Reclaim.Runtime
	}
	if len(cfg.Reclaim.RestartCommand) == 0 {
		cfg.Reclaim.RestartCommand = def.Reclaim.RestartCommand
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = def.LogFormat
	}
}

// Validate checks invariants that would make a run meaningless.
func Validate(cfg models.BuildConfig) error {
	if err := cfg.Retry.Validate(); err != nil {
		return err
	}
	if cfg.Reclaim.RestartDelaySec < 0 {
		return &models.ConfigurationError{Field: "reclaim.restart_delay_sec", Message: "must be >= 0"}
	}
	if cfg.Reclaim.Runtime != DefaultRuntime {
		return &models.ConfigurationError{
			Field:   "reclaim.runtime",
			Message: fmt.Sprintf("unsupported container runtime %q", cfg.Reclaim.Runtime),
		}
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return &models.ConfigurationError{Field: "log_format", Message: fmt.Sprintf("unsupported log format %q", cfg.LogFormat)}
	}
	return nil
}

// BenchmarksPath returns the benchmarks directory resolved against WorkDir.
func BenchmarksPath(cfg models.BuildConfig) string {
	if filepath.IsAbs(cfg.BenchmarksDir) {
		return cfg.BenchmarksDir
	}
	return filepath.Join(cfg.WorkDir, cfg.BenchmarksDir)
}
