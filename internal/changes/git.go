package changes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/spachava753/benchbuild/internal/models"
)

// DefaultUpstream is the revision the current branch is compared against.
const DefaultUpstream = "origin/master"

// GitSource computes the change set from the commits on HEAD that are not on
// the upstream revision, i.e. the diff between their merge base and HEAD.
type GitSource struct {
	repoPath          string
	upstream          string
	sharedFuzzerPaths []string
}

// NewGitSource creates a Source for the repository containing repoPath.
func NewGitSource(repoPath, upstream string, sharedFuzzerPaths []string) *GitSource {
	if upstream == "" {
		upstream = DefaultUpstream
	}
	return &GitSource{
		repoPath:          repoPath,
		upstream:          upstream,
		sharedFuzzerPaths: sharedFuzzerPaths,
	}
}

// ChangeSet diffs HEAD against its merge base with the upstream revision.
func (s *GitSource) ChangeSet(ctx context.Context) (*models.ChangeSet, error) {
	repo, err := git.PlainOpenWithOptions(s.repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("get HEAD commit: %w", err)
	}

	upstreamHash, err := repo.ResolveRevision(plumbing.Revision(s.upstream))
	if err != nil {
		return nil, fmt.Errorf("resolve upstream %s: %w", s.upstream, err)
	}
	upstreamCommit, err := repo.CommitObject(*upstreamHash)
	if err != nil {
		return nil, fmt.Errorf("get upstream commit: %w", err)
	}

	bases, err := headCommit.MergeBase(upstreamCommit)
	if err != nil {
		return nil, fmt.Errorf("merge base of HEAD and %s: %w", s.upstream, err)
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("HEAD and %s share no history", s.upstream)
	}

	baseTree, err := bases[0].Tree()
	if err != nil {
		return nil, fmt.Errorf("get merge base tree: %w", err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get HEAD tree: %w", err)
	}

	diff, err := baseTree.DiffContext(ctx, headTree)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	var files []string
	for _, change := range diff {
		if change.From.Name != "" {
			files = append(files, change.From.Name)
		}
		if change.To.Name != "" && change.To.Name != change.From.Name {
			files = append(files, change.To.Name)
		}
	}

	var known []string
	if len(s.sharedFuzzerPaths) > 0 {
		known = fuzzerNames(headTree)
	}

	cs := Classify(files, known, s.sharedFuzzerPaths)
	slog.Debug("computed change set",
		"upstream", s.upstream,
		"merge_base", bases[0].Hash.String()[:12],
		"files", len(cs.Files),
		"fuzzers", cs.Fuzzers.Len(),
		"benchmarks", cs.Benchmarks.Len())
	return cs, nil
}

// fuzzerNames lists the directories under fuzzers/ in tree.
func fuzzerNames(tree *object.Tree) []string {
	sub, err := tree.Tree(fuzzersDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range sub.Entries {
		if e.Mode == filemode.Dir {
			names = append(names, e.Name)
		}
	}
	return names
}
