// Package gitx wraps go-git with the repository queries monorel needs:
// commit-range resolution with path filters, release-tag series discovery,
// and tag creation. All history access goes through go-git; the git binary
// is never invoked.
package gitx

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository is an open git repository, the entry point for history and tag
// queries.
type Repository struct {
	repo *git.Repository
}

// Open opens the repository containing path, traversing parent directories
// to find the repository root. An empty path means the current working
// directory.
func Open(path string) (*Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	return &Repository{repo: repo}, nil
}

// FromRepository wraps an already-open go-git repository. Useful when the
// repository lives in non-filesystem storage.
func FromRepository(repo *git.Repository) *Repository {
	return &Repository{repo: repo}
}

// IsRepository reports whether path is inside a git repository.
func IsRepository(path string) bool {
	_, err := Open(path)
	return err == nil
}

// Root returns the absolute path of the repository worktree root.
func (r *Repository) Root() (string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// History returns the commit-range query interface for this repository.
func (r *Repository) History() *History {
	return &History{r: r}
}

// Series returns the release-tag series for one package. pkg is the display
// name used in error messages, prefix the tag prefix the series matches.
func (r *Repository) Series(pkg, prefix string) *TagSeries {
	return &TagSeries{r: r, pkg: pkg, prefix: prefix}
}

// ResolveSha resolves a revision (branch, tag, sha, HEAD) to a full commit
// hash, peeling annotated tags down to the commit they point at.
func (r *Repository) ResolveSha(rev string) (string, error) {
	hash, err := r.resolveCommit(rev)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// resolveCommit resolves a revision to the hash of a commit object.
func (r *Repository) resolveCommit(rev string) (plumbing.Hash, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	return r.peelToCommit(*hash)
}

// peelToCommit follows annotated tag objects (possibly nested) until a
// commit is reached.
func (r *Repository) peelToCommit(hash plumbing.Hash) (plumbing.Hash, error) {
	for {
		if _, err := r.repo.CommitObject(hash); err == nil {
			return hash, nil
		}
		tag, err := r.repo.TagObject(hash)
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("object %s is not a commit or tag", hash)
		}
		hash = tag.Target
	}
}

// commitObject loads the commit for a resolved hash.
func (r *Repository) commitObject(hash plumbing.Hash) (*object.Commit, error) {
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", hash, err)
	}
	return commit, nil
}
