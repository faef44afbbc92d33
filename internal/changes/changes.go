// Package changes derives the change set of the current branch: which files,
// fuzzers and benchmarks differ from the upstream branch.
package changes

import (
	"context"
	"path"
	"slices"
	"strings"

	"github.com/spachava753/benchbuild/internal/models"
	"github.com/spachava753/benchbuild/internal/util/sets"
)

const (
	fuzzersDir    = "fuzzers"
	benchmarksDir = "benchmarks"
)

// Source produces the change set for the current invocation.
type Source interface {
	ChangeSet(ctx context.Context) (*models.ChangeSet, error)
}

// Static is a Source returning a fixed change set.
type Static struct {
	Changes *models.ChangeSet
}

// ChangeSet returns the fixed change set.
func (s Static) ChangeSet(context.Context) (*models.ChangeSet, error) {
	return s.Changes, nil
}

// Classify maps changed repository paths to changed fuzzers and benchmarks.
// A file under fuzzers/<name>/ marks that fuzzer changed, a file under
// benchmarks/<name>/ marks that benchmark changed. A file under any of
// sharedPrefixes marks every fuzzer in knownFuzzers changed.
func Classify(files, knownFuzzers, sharedPrefixes []string) *models.ChangeSet {
	cs := &models.ChangeSet{
		Fuzzers:    sets.New[string](),
		Benchmarks: sets.New[string](),
	}

	seen := sets.New[string]()
	for _, f := range files {
		f = path.Clean(strings.TrimPrefix(f, "./"))
		if f == "." || seen.Has(f) {
			continue
		}
		seen.Add(f)
		cs.Files = append(cs.Files, f)

		if name, ok := topLevelEntry(f, fuzzersDir); ok {
			cs.Fuzzers.Add(name)
		}
		if name, ok := topLevelEntry(f, benchmarksDir); ok {
			cs.Benchmarks.Add(name)
		}
		if isShared(f, sharedPrefixes) {
			for _, fz := range knownFuzzers {
				cs.Fuzzers.Add(fz)
			}
		}
	}
	slices.Sort(cs.Files)
	return cs
}

// topLevelEntry returns <name> for paths of the form <dir>/<name>/<rest>.
func topLevelEntry(p, dir string) (string, bool) {
	parts := strings.SplitN(p, "/", 3)
	if len(parts) < 3 || parts[0] != dir || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func isShared(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSuffix(path.Clean(prefix), "/")
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}
