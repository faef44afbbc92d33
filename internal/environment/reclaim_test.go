package environment

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spachava753/benchbuild/internal/models"
)

// fakeRuntime records calls and returns configured results.
type fakeRuntime struct {
	running    []string
	all        []string
	images     []string
	listErr    error
	killErr    error
	restartErr error
	rmErr      error
	rmiErr     error
	pruneErr   error

	calls []string
	ids   map[string][]string
}

func (f *fakeRuntime) record(call string, ids []string) {
	f.calls = append(f.calls, call)
	if f.ids == nil {
		f.ids = map[string][]string{}
	}
	if ids != nil {
		f.ids[call] = ids
	}
}

func (f *fakeRuntime) Name() string { return "fake" }

func (f *fakeRuntime) ListRunningContainers(context.Context) ([]string, error) {
	f.record("ps", nil)
	return f.running, f.listErr
}

func (f *fakeRuntime) KillContainers(_ context.Context, ids []string) error {
	f.record("kill", ids)
	return f.killErr
}

func (f *fakeRuntime) RestartDaemon(context.Context) error {
	f.record("restart", nil)
	return f.restartErr
}

func (f *fakeRuntime) ListAllContainers(context.Context) ([]string, error) {
	f.record("ps -a", nil)
	return f.all, nil
}

func (f *fakeRuntime) RemoveContainers(_ context.Context, ids []string) error {
	f.record("rm", ids)
	return f.rmErr
}

func (f *fakeRuntime) ListImages(context.Context) ([]string, error) {
	f.record("images", nil)
	return f.images, nil
}

func (f *fakeRuntime) RemoveImages(_ context.Context, ids []string) error {
	f.record("rmi", ids)
	return f.rmiErr
}

func (f *fakeRuntime) PruneBuildCache(context.Context) error {
	f.record("prune", nil)
	return f.pruneErr
}

func newTestReclaimer(rt Runtime, logs *bytes.Buffer) (*Reclaimer, *[]time.Duration) {
	r := NewReclaimer(rt, 5*time.Second, slog.New(slog.NewTextHandler(logs, nil)))
	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, &slept
}

func TestReclaimFullPass(t *testing.T) {
	var logs bytes.Buffer
	rt := &fakeRuntime{
		running: []string{"c1"},
		all:     []string{"c1", "c2"},
		images:  []string{"i1", "i2", "i1"},
	}
	r, slept := newTestReclaimer(rt, &logs)

	report, err := r.Reclaim(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ps", "kill", "restart", "ps -a", "rm", "images", "rmi", "prune"}, rt.calls)
	assert.Equal(t, []string{"c1"}, rt.ids["kill"])
	assert.Equal(t, []string{"c1", "c2"}, rt.ids["rm"])
	assert.Equal(t, []string{"i1", "i2"}, rt.ids["rmi"], "image IDs are deduplicated")
	assert.Equal(t, []time.Duration{5 * time.Second}, *slept)
	assert.Equal(t, 1, report.KilledContainers)
	assert.Equal(t, 2, report.RemovedContainers)
	assert.Equal(t, 2, report.RemovedImages)
	assert.Empty(t, report.Warnings)
}

func TestReclaimNothingToClean(t *testing.T) {
	var logs bytes.Buffer
	rt := &fakeRuntime{}
	r, _ := newTestReclaimer(rt, &logs)

	report, err := r.Reclaim(context.Background())
	require.NoError(t, err)

	// no kill, rm or rmi when the lists are empty
	assert.Equal(t, []string{"ps", "restart", "ps -a", "images", "prune"}, rt.calls)
	assert.Empty(t, report.Warnings)
}

func TestReclaimBestEffortFailuresAreWarnings(t *testing.T) {
	var logs bytes.Buffer
	rt := &fakeRuntime{
		running:  []string{"c1"},
		all:      []string{"c1"},
		images:   []string{"i1"},
		killErr:  errors.New("container c1 is not running"),
		rmErr:    errors.New("no such container"),
		rmiErr:   errors.New("image is being used"),
		pruneErr: errors.New("prune failed"),
	}
	r, _ := newTestReclaimer(rt, &logs)

	report, err := r.Reclaim(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Warnings, 4)
	steps := make([]string, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		steps = append(steps, w.Step)
		assert.Equal(t, models.ErrReclamationWarning, w.Type())
	}
	assert.Equal(t, []string{"kill containers", "remove containers", "remove images", "prune build cache"}, steps)
	assert.Contains(t, logs.String(), "reclamation step failed")
}

func TestReclaimListFailureIsWarning(t *testing.T) {
	var logs bytes.Buffer
	rt := &fakeRuntime{listErr: errors.New("cannot connect to daemon")}
	r, _ := newTestReclaimer(rt, &logs)

	report, err := r.Reclaim(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "list running containers", report.Warnings[0].Step)
}

func TestReclaimDaemonRestartFailureIsFatal(t *testing.T) {
	var logs bytes.Buffer
	restartErr := errors.New("Job for docker.service failed")
	rt := &fakeRuntime{
		all:        []string{"c1"},
		restartErr: restartErr,
	}
	r, slept := newTestReclaimer(rt, &logs)

	_, err := r.Reclaim(context.Background())

	var drErr *models.DaemonRestartError
	require.ErrorAs(t, err, &drErr)
	assert.ErrorIs(t, err, restartErr)
	assert.Equal(t, []string{"ps", "restart"}, rt.calls, "nothing runs after a failed restart")
	assert.Empty(t, *slept)
}

func TestReclaimCancelledDuringRestartDelay(t *testing.T) {
	var logs bytes.Buffer
	r := NewReclaimer(&fakeRuntime{}, time.Hour, slog.New(slog.NewTextHandler(&logs, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Reclaim(ctx)
	var drErr *models.DaemonRestartError
	require.ErrorAs(t, err, &drErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewReclaimerDefaults(t *testing.T) {
	r := NewReclaimer(&fakeRuntime{}, -1, nil)
	assert.Equal(t, DefaultRestartDelay, r.restartDelay)
	assert.NotNil(t, r.logger)
}
