package models

import (
	"fmt"
	"time"
)

// BuildConfig is the configuration passed into the orchestrator at construction.
type BuildConfig struct {
	// AlwaysBuildFuzzer names the fuzzer whose builds cover the whole catalog.
	AlwaysBuildFuzzer string        `yaml:"always_build_fuzzer" toml:"always_build_fuzzer" json:"always_build_fuzzer"`
	WorkDir           string        `yaml:"work_dir" toml:"work_dir" json:"work_dir"`
	BenchmarksDir     string        `yaml:"benchmarks_dir" toml:"benchmarks_dir" json:"benchmarks_dir"`
	Retry             RetryConfig   `yaml:"retry" toml:"retry" json:"retry"`
	Make              MakeConfig    `yaml:"make" toml:"make" json:"make"`
	Changes           ChangesConfig `yaml:"changes" toml:"changes" json:"changes"`
	Reclaim           ReclaimConfig `yaml:"reclaim" toml:"reclaim" json:"reclaim"`
	LogLevel          string        `yaml:"log_level,omitempty" toml:"log_level" json:"log_level,omitempty"`
	LogFormat         string        `yaml:"log_format,omitempty" toml:"log_format" json:"log_format,omitempty"`
	MetricsFile       string        `yaml:"metrics_file,omitempty" toml:"metrics_file" json:"metrics_file,omitempty"`
}

// IsAlwaysBuild reports whether fuzzer forces a full-catalog rebuild.
func (c BuildConfig) IsAlwaysBuild(fuzzer string) bool {
	return c.AlwaysBuildFuzzer != "" && fuzzer == c.AlwaysBuildFuzzer
}

// RetryConfig bounds how often a failing build command is re-run.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts" toml:"max_attempts" json:"max_attempts"`
	DelaySec    float64 `yaml:"delay_sec" toml:"delay_sec" json:"delay_sec"`
}

// Delay returns the pause between attempts.
func (r RetryConfig) Delay() time.Duration {
	return time.Duration(r.DelaySec * float64(time.Second))
}

// Validate enforces max attempts >= 1 and delay >= 0.
func (r RetryConfig) Validate() error {
	if r.MaxAttempts < 1 {
		return &ConfigurationError{Field: "retry.max_attempts", Message: fmt.Sprintf("must be >= 1, got %d", r.MaxAttempts)}
	}
	if r.DelaySec < 0 {
		return &ConfigurationError{Field: "retry.delay_sec", Message: fmt.Sprintf("must be >= 0, got %g", r.DelaySec)}
	}
	return nil
}

// MakeConfig describes the underlying build system invocation.
type MakeConfig struct {
	Command string   `yaml:"command" toml:"command" json:"command"`
	Args    []string `yaml:"args" toml:"args" json:"args"`
}

// ChangesConfig controls change detection.
type ChangesConfig struct {
	// Upstream is the revision the current branch is diffed against.
	Upstream string `yaml:"upstream" toml:"upstream" json:"upstream"`
	// SharedFuzzerPaths are path prefixes whose changes affect every fuzzer.
	SharedFuzzerPaths []string `yaml:"shared_fuzzer_paths,omitempty" toml:"shared_fuzzer_paths" json:"shared_fuzzer_paths,omitempty"`
}

// ReclaimConfig controls container runtime reclamation between builds.
type ReclaimConfig struct {
	Runtime         string   `yaml:"runtime" toml:"runtime" json:"runtime"`
	RestartCommand  []string `yaml:"restart_command" toml:"restart_command" json:"restart_command"`
	RestartDelaySec float64  `yaml:"restart_delay_sec" toml:"restart_delay_sec" json:"restart_delay_sec"`
}

// RestartDelay returns the pause after a daemon restart.
func (r ReclaimConfig) RestartDelay() time.Duration {
	return time.Duration(r.RestartDelaySec * float64(time.Second))
}
