// Package catalog reads benchmark metadata and groups benchmarks by build type.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/benchbuild/internal/models"
)

// MetadataFile is the per-benchmark metadata file name.
const MetadataFile = "benchmark.yaml"

const (
	kindCode = "code"
	kindBug  = "bug"
)

// Benchmark is the subset of benchmark.yaml the catalog needs.
type Benchmark struct {
	Name               string   `yaml:"-"`
	Type               string   `yaml:"type"`
	Project            string   `yaml:"project"`
	FuzzTarget         string   `yaml:"fuzz_target"`
	Commit             string   `yaml:"commit"`
	UnsupportedFuzzers []string `yaml:"unsupported_fuzzers"`
}

// Kind returns "bug" or "code"; a missing type means code.
func (b Benchmark) Kind() string {
	if b.Type == "" {
		return kindCode
	}
	return b.Type
}

// IsOSSFuzz reports whether the benchmark is built from an OSS-Fuzz project.
func (b Benchmark) IsOSSFuzz() bool {
	return b.Project != ""
}

// BuildType returns the catalog the benchmark belongs to.
func (b Benchmark) BuildType() models.BuildType {
	switch {
	case b.Kind() == kindBug:
		return models.BuildTypeBug
	case b.IsOSSFuzz():
		return models.BuildTypeOSSFuzz
	default:
		return models.BuildTypeStandard
	}
}

// Source returns the benchmark names for a build type.
type Source interface {
	Benchmarks(ctx context.Context, bt models.BuildType) ([]string, error)
}

// Catalog is an in-memory set of benchmarks.
type Catalog struct {
	benchmarks map[string]Benchmark
}

// New builds a catalog from already-parsed benchmarks.
func New(benchmarks ...Benchmark) *Catalog {
	c := &Catalog{benchmarks: make(map[string]Benchmark, len(benchmarks))}
	for _, b := range benchmarks {
		c.benchmarks[b.Name] = b
	}
	return c
}

// Benchmarks returns the sorted names of the benchmarks of the given type.
func (c *Catalog) Benchmarks(_ context.Context, bt models.BuildType) ([]string, error) {
	if _, err := models.ParseBuildType(string(bt)); err != nil {
		return nil, err
	}
	var names []string
	for name, b := range c.benchmarks {
		if b.BuildType() == bt {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Get returns the named benchmark.
func (c *Catalog) Get(name string) (Benchmark, bool) {
	b, ok := c.benchmarks[name]
	return b, ok
}

// Len returns the number of benchmarks in the catalog.
func (c *Catalog) Len() int {
	return len(c.benchmarks)
}

// Loader loads catalogs from a benchmarks directory.
type Loader struct{}

// NewLoader creates a new catalog loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFromDir reads <dir>/<name>/benchmark.yaml for every subdirectory.
// Subdirectories without a metadata file are skipped.
func (l *Loader) LoadFromDir(ctx context.Context, dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading benchmarks directory: %w", err)
	}

	var (
		mu         sync.Mutex
		benchmarks []Benchmark
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := LoadBenchmark(filepath.Join(dir, name))
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("skipping directory without benchmark metadata", "dir", name)
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading benchmark %s: %w", name, err)
			}
			mu.Lock()
			benchmarks = append(benchmarks, b)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("loaded benchmark catalog", "dir", dir, "benchmarks", len(benchmarks))
	return New(benchmarks...), nil
}

// LoadBenchmark parses the metadata file in a benchmark directory.
// The benchmark is named after the directory.
func LoadBenchmark(benchmarkDir string) (Benchmark, error) {
	b := Benchmark{Name: filepath.Base(benchmarkDir)}

	data, err := os.ReadFile(filepath.Join(benchmarkDir, MetadataFile))
	if err != nil {
		return b, err
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parsing %s: %w", MetadataFile, err)
	}

	switch b.Kind() {
	case kindCode, kindBug:
	default:
		return b, fmt.Errorf("invalid benchmark type %q", b.Type)
	}
	return b, nil
}
