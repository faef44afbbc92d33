package models

import "github.com/spachava753/benchbuild/internal/util/sets"

// ChangeSet is a read-only view over the files changed on the current branch.
type ChangeSet struct {
	Files      []string
	Fuzzers    sets.Set[string]
	Benchmarks sets.Set[string]
}

// HasFuzzer reports whether the named fuzzer was touched. Safe on nil.
func (c *ChangeSet) HasFuzzer(name string) bool {
	return c != nil && c.Fuzzers.Has(name)
}

// HasBenchmark reports whether the named benchmark was touched. Safe on nil.
func (c *ChangeSet) HasBenchmark(name string) bool {
	return c != nil && c.Benchmarks.Has(name)
}

// IsEmpty returns true if no files changed.
func (c *ChangeSet) IsEmpty() bool {
	return c == nil || len(c.Files) == 0
}
