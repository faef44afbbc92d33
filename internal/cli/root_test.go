package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spachava753/benchbuild/internal/metrics"
	"github.com/spachava753/benchbuild/internal/models"
)

type buildCall struct {
	cfg       models.BuildConfig
	buildType string
	fuzzer    string
	recorder  metrics.Recorder
}

func newTestApp(result *models.BuildResult, err error) (*App, *[]buildCall, *bytes.Buffer, *bytes.Buffer) {
	var calls []buildCall
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	app := &App{
		Stdout: stdout,
		Stderr: stderr,
		Build: func(_ context.Context, cfg models.BuildConfig, buildType, fuzzer string, rec metrics.Recorder) (*models.BuildResult, error) {
			calls = append(calls, buildCall{cfg: cfg, buildType: buildType, fuzzer: fuzzer, recorder: rec})
			if rec != nil {
				rec.IncRunOutcome(buildType, err == nil)
			}
			return result, err
		},
	}
	return app, &calls, stdout, stderr
}

func TestExecuteWrongArgCount(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"none", nil},
		{"one", []string{"bug"}},
		{"three", []string{"bug", "afl", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, calls, _, stderr := newTestApp(&models.BuildResult{Success: true}, nil)

			code := app.Execute(context.Background(), tt.args)

			assert.Equal(t, 1, code)
			assert.Empty(t, *calls, "no build is attempted")
			assert.Contains(t, stderr.String(), "usage: benchbuild")
			assert.Contains(t, stderr.String(), "Usage:")
		})
	}
}

func TestExecuteSuccess(t *testing.T) {
	result := &models.BuildResult{
		RunID:     "run-1",
		BuildType: models.BuildTypeBug,
		Fuzzer:    "afl",
		Pairs:     []models.BuildPair{{Fuzzer: "afl", Benchmark: "b1"}},
		Results:   []models.PairResult{{Pair: models.BuildPair{Fuzzer: "afl", Benchmark: "b1"}, Target: "test-run-afl-b1", Attempts: 1}},
		Success:   true,
	}
	app, calls, stdout, _ := newTestApp(result, nil)

	code := app.Execute(context.Background(), []string{"bug", "afl"})

	assert.Equal(t, 0, code)
	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "bug", call.buildType)
	assert.Equal(t, "afl", call.fuzzer)
	assert.Equal(t, "afl", call.cfg.AlwaysBuildFuzzer)
	assert.Equal(t, 3, call.cfg.Retry.MaxAttempts)
	assert.IsType(t, metrics.NoopRecorder{}, call.recorder)

	out := stdout.String()
	assert.Contains(t, out, "test-run-afl-b1")
	assert.Contains(t, out, "Status: success")
}

func TestExecuteBuildFailure(t *testing.T) {
	result := &models.BuildResult{BuildType: models.BuildTypeBug, Fuzzer: "afl"}
	buildErr := &models.CommandError{Command: "make test-run-afl-b1", Attempts: 3, ExitCode: 2, Err: errors.New("exit status 2")}
	app, _, stdout, stderr := newTestApp(result, buildErr)

	code := app.Execute(context.Background(), []string{"bug", "afl"})

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Status: failed")
	assert.Contains(t, stderr.String(), "failed after 3 attempt(s)")
}

func TestExecuteInvalidBuildType(t *testing.T) {
	buildErr := &models.ConfigurationError{Field: "build_type", Message: `invalid build type "nightly"`}
	app, _, _, stderr := newTestApp(nil, buildErr)

	code := app.Execute(context.Background(), []string{"nightly", "afl"})

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "build_type")
}

func TestExecuteConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "benchbuild.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
always_build_fuzzer: libfuzzer
work_dir: /src/fuzzbench
retry:
  max_attempts: 5
  delay_sec: 1
log_level: debug
`), 0o644))
	metricsPath := filepath.Join(dir, "benchbuild.prom")

	app, calls, _, _ := newTestApp(&models.BuildResult{Success: true}, nil)
	code := app.Execute(context.Background(), []string{
		"--config", cfgPath,
		"--log-level", "warn",
		"--log-format", "json",
		"--metrics-file", metricsPath,
		"standard", "libfuzzer",
	})

	require.Equal(t, 0, code)
	require.Len(t, *calls, 1)
	cfg := (*calls)[0].cfg
	assert.Equal(t, "libfuzzer", cfg.AlwaysBuildFuzzer)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.IsType(t, &metrics.PrometheusRecorder{}, (*calls)[0].recorder)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "benchbuild_run_outcomes_total")
}

func TestExecuteBadConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "benchbuild.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("retry:\n  max_attempts: 0\n  delay_sec: -1\n"), 0o644))

	app, calls, _, stderr := newTestApp(&models.BuildResult{Success: true}, nil)
	code := app.Execute(context.Background(), []string{"--config", cfgPath, "bug", "afl"})

	assert.Equal(t, 1, code)
	assert.Empty(t, *calls)
	assert.Contains(t, stderr.String(), "configuration error")
}

func TestExecuteBadLogFormat(t *testing.T) {
	app, calls, _, _ := newTestApp(&models.BuildResult{Success: true}, nil)
	code := app.Execute(context.Background(), []string{"--log-format", "xml", "bug", "afl"})

	assert.Equal(t, 1, code)
	assert.Empty(t, *calls)
}
