// Package metrics records build run metrics.
package metrics

import "time"

// Outcome labels for pair builds and runs.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Recorder defines observability hooks for build runs.
type Recorder interface {
	ObservePairBuild(fuzzer, benchmark string, d time.Duration, attempts int, success bool)
	ObserveReclaim(d time.Duration, warnings int, success bool)
	IncRunOutcome(buildType string, success bool)
	SetSelectedPairs(buildType, fuzzer string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePairBuild(string, string, time.Duration, int, bool) {}
func (NoopRecorder) ObserveReclaim(time.Duration, int, bool)                   {}
func (NoopRecorder) IncRunOutcome(string, bool)                                {}
func (NoopRecorder) SetSelectedPairs(string, string, int)                      {}

func outcome(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailed
}
