package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	pairDuration    *prom.HistogramVec
	pairAttempts    *prom.CounterVec
	pairResults     *prom.CounterVec
	reclaimDuration prom.Histogram
	reclaimWarnings prom.Counter
	reclaimResults  *prom.CounterVec
	runOutcome      *prom.CounterVec
	selectedPairs   *prom.GaugeVec
}

// buildBuckets covers builds from seconds to a couple of hours.
var buildBuckets = prom.ExponentialBuckets(15, 2, 10)

// NewPrometheusRecorder constructs and registers metrics on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		pairDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "benchbuild",
			Name:      "pair_build_duration_seconds",
			Help:      "Duration of fuzzer/benchmark pair builds including retries",
			Buckets:   buildBuckets,
		}, []string{"fuzzer", "result"}),
		pairAttempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "benchbuild",
			Name:      "pair_build_attempts_total",
			Help:      "Build command attempts, including retries",
		}, []string{"fuzzer"}),
		pairResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "benchbuild",
			Name:      "pair_build_results_total",
			Help:      "Pair build results by outcome",
		}, []string{"fuzzer", "benchmark", "result"}),
		reclaimDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "benchbuild",
			Name:      "reclaim_duration_seconds",
			Help:      "Duration of container resource reclamation",
			Buckets:   prom.DefBuckets,
		}),
		reclaimWarnings: prom.NewCounter(prom.CounterOpts{
			Namespace: "benchbuild",
			Name:      "reclaim_warnings_total",
			Help:      "Best-effort reclamation steps that failed",
		}),
		reclaimResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "benchbuild",
			Name:      "reclaim_results_total",
			Help:      "Reclamation passes by outcome",
		}, []string{"result"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "benchbuild",
			Name:      "run_outcomes_total",
			Help:      "Build runs by final status",
		}, []string{"build_type", "result"}),
		selectedPairs: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "benchbuild",
			Name:      "selected_pairs",
			Help:      "Number of pairs selected for the last run",
		}, []string{"build_type", "fuzzer"}),
	}
	reg.MustRegister(pr.pairDuration, pr.pairAttempts, pr.pairResults,
		pr.reclaimDuration, pr.reclaimWarnings, pr.reclaimResults,
		pr.runOutcome, pr.selectedPairs)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObservePairBuild(fuzzer, benchmark string, d time.Duration, attempts int, success bool) {
	p.pairDuration.WithLabelValues(fuzzer, outcome(success)).Observe(d.Seconds())
	p.pairAttempts.WithLabelValues(fuzzer).Add(float64(attempts))
	p.pairResults.WithLabelValues(fuzzer, benchmark, outcome(success)).Inc()
}

func (p *PrometheusRecorder) ObserveReclaim(d time.Duration, warnings int, success bool) {
	p.reclaimDuration.Observe(d.Seconds())
	p.reclaimWarnings.Add(float64(warnings))
	p.reclaimResults.WithLabelValues(outcome(success)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(buildType string, success bool) {
	p.runOutcome.WithLabelValues(buildType, outcome(success)).Inc()
}

func (p *PrometheusRecorder) SetSelectedPairs(buildType, fuzzer string, n int) {
	p.selectedPairs.WithLabelValues(buildType, fuzzer).Set(float64(n))
}

// WriteTextfile writes all metrics in the text exposition format to path,
// for pickup by a node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
