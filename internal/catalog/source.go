package catalog

import (
	"context"
	"sync"

	"github.com/spachava753/benchbuild/internal/models"
)

// DirSource loads the catalog from a directory on first use.
type DirSource struct {
	dir    string
	loader *Loader

	once    sync.Once
	catalog *Catalog
	err     error
}

// NewDirSource creates a Source backed by a benchmarks directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir, loader: NewLoader()}
}

// Benchmarks returns the sorted benchmark names for bt.
func (s *DirSource) Benchmarks(ctx context.Context, bt models.BuildType) ([]string, error) {
	s.once.Do(func() {
		s.catalog, s.err = s.loader.LoadFromDir(ctx, s.dir)
	})
	if s.err != nil {
		return nil, s.err
	}
	return s.catalog.Benchmarks(ctx, bt)
}
