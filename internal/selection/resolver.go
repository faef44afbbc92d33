// Package selection decides which fuzzer/benchmark pairs a CI run must build.
package selection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spachava753/benchbuild/internal/catalog"
	"github.com/spachava753/benchbuild/internal/changes"
	"github.com/spachava753/benchbuild/internal/models"
	"github.com/spachava753/benchbuild/internal/util/sets"
)

// SelectPairs returns the pairs to build for fuzzer, sorted by benchmark.
//
// When forceAll is set, or the fuzzer itself changed, every catalog benchmark
// is paired with the fuzzer: a harness change can affect any benchmark.
// Otherwise only catalog benchmarks that changed are built.
func SelectPairs(fuzzer string, forceAll bool, catalogBenchmarks []string, cs *models.ChangeSet) []models.BuildPair {
	selected := sets.New(catalogBenchmarks...)
	if !forceAll && !cs.HasFuzzer(fuzzer) {
		var changed sets.Set[string]
		if cs != nil {
			changed = cs.Benchmarks
		}
		selected = selected.Intersect(changed)
	}

	benchmarks := sets.Sorted(selected)
	pairs := make([]models.BuildPair, 0, len(benchmarks))
	for _, b := range benchmarks {
		pairs = append(pairs, models.BuildPair{Fuzzer: fuzzer, Benchmark: b})
	}
	return pairs
}

// Resolver resolves build requests against the benchmark catalog and the
// change set of the current branch.
type Resolver struct {
	catalog catalog.Source
	changes changes.Source

	once      sync.Once
	changeSet *models.ChangeSet
	changeErr error
}

// NewResolver creates a new Resolver.
func NewResolver(cat catalog.Source, cs changes.Source) *Resolver {
	return &Resolver{catalog: cat, changes: cs}
}

// Resolve returns the ordered pairs to build for req. The build type is
// validated before either data source is consulted, and the change set is
// only computed when req.ForceAll is false.
func (r *Resolver) Resolve(ctx context.Context, req models.BuildRequest) ([]models.BuildPair, error) {
	bt, err := models.ParseBuildType(string(req.Type))
	if err != nil {
		return nil, err
	}

	benchmarks, err := r.catalog.Benchmarks(ctx, bt)
	if err != nil {
		return nil, fmt.Errorf("loading %s benchmarks: %w", bt, err)
	}

	var cs *models.ChangeSet
	if !req.ForceAll {
		cs, err = r.changeSetOnce(ctx)
		if err != nil {
			return nil, fmt.Errorf("detecting changes: %w", err)
		}
		if cs.HasFuzzer(req.Fuzzer) {
			slog.Info("fuzzer changed, building all benchmarks", "fuzzer", req.Fuzzer, "build_type", bt)
		}
	}

	pairs := SelectPairs(req.Fuzzer, req.ForceAll, benchmarks, cs)
	slog.Debug("resolved build pairs",
		"build_type", bt,
		"fuzzer", req.Fuzzer,
		"force_all", req.ForceAll,
		"catalog", len(benchmarks),
		"pairs", len(pairs))
	return pairs, nil
}

func (r *Resolver) changeSetOnce(ctx context.Context) (*models.ChangeSet, error) {
	r.once.Do(func() {
		r.changeSet, r.changeErr = r.changes.ChangeSet(ctx)
	})
	return r.changeSet, r.changeErr
}
