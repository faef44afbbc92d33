package models

import (
	"fmt"
	"time"
)

// BuildType selects which benchmark catalog a build draws from.
type BuildType string

const (
	BuildTypeOSSFuzz  BuildType = "oss-fuzz"
	BuildTypeStandard BuildType = "standard"
	BuildTypeBug      BuildType = "bug"
)

// BuildTypes lists every recognized build type.
var BuildTypes = []BuildType{BuildTypeOSSFuzz, BuildTypeStandard, BuildTypeBug}

// ParseBuildType validates s as one of the recognized build types.
func ParseBuildType(s string) (BuildType, error) {
	for _, bt := range BuildTypes {
		if string(bt) == s {
			return bt, nil
		}
	}
	return "", &ConfigurationError{
		Field:   "build_type",
		Message: fmt.Sprintf("invalid build type %q: must be one of oss-fuzz, standard, bug", s),
	}
}

// BuildPair is one fuzzer/benchmark combination to build and smoke-test.
type BuildPair struct {
	Fuzzer    string `json:"fuzzer"`
	Benchmark string `json:"benchmark"`
}

func (p BuildPair) String() string {
	return p.Fuzzer + "/" + p.Benchmark
}

// BuildRequest describes a single orchestration run.
type BuildRequest struct {
	Type   BuildType
	Fuzzer string
	// ForceAll builds every catalog benchmark regardless of detected changes.
	ForceAll bool
}

// PairResult records the outcome of building one pair.
type PairResult struct {
	Pair        BuildPair `json:"pair"`
	Target      string    `json:"target"`
	Attempts    int       `json:"attempts"`
	DurationSec float64   `json:"duration_sec"`
	Error       string    `json:"error,omitempty"`
}

// BuildResult summarizes an orchestration run.
type BuildResult struct {
	RunID           string       `json:"run_id"`
	BuildType       BuildType    `json:"build_type"`
	Fuzzer          string       `json:"fuzzer"`
	ForceAll        bool         `json:"force_all"`
	Pairs           []BuildPair  `json:"pairs"`
	Results         []PairResult `json:"results"`
	Success         bool         `json:"success"`
	ReclaimWarnings int          `json:"reclaim_warnings"`
	StartedAt       time.Time    `json:"started_at"`
	EndedAt         time.Time    `json:"ended_at"`
}

// Built returns the number of pairs that built successfully.
func (r *BuildResult) Built() int {
	n := 0
	for _, pr := range r.Results {
		if pr.Error == "" {
			n++
		}
	}
	return n
}
