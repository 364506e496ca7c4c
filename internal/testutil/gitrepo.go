// Package testutil provides shared test fixtures for monorel tests.
package testutil

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

// GitRepo builds deterministic in-memory git repositories: no git binary,
// a fixed author identity, a clock advancing one minute per event, and
// merge topology fabricated through explicit parent hashes.
type GitRepo struct {
	// Repo is the underlying go-git repository (memory storage + memfs).
	Repo *git.Repository
	// FS is the billy worktree filesystem backing the repository.
	FS billy.Filesystem

	t     *testing.T
	wt    *git.Worktree
	clock time.Time
}

// NewGitRepo initializes an empty in-memory repository with a configured
// committer identity, so annotated tags can be created without global git
// config.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()

	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	require.NoError(t, err)

	cfg, err := repo.Config()
	require.NoError(t, err)
	cfg.User.Name = "Dev"
	cfg.User.Email = "dev@example.com"
	require.NoError(t, repo.SetConfig(cfg))

	wt, err := repo.Worktree()
	require.NoError(t, err)

	return &GitRepo{
		Repo:  repo,
		FS:    fs,
		t:     t,
		wt:    wt,
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Commit stages the given files and commits them one clock tick later.
// Passing no files produces an empty commit.
func (g *GitRepo) Commit(message string, files map[string]string) string {
	g.t.Helper()

	for path, content := range files {
		require.NoError(g.t, util.WriteFile(g.FS, path, []byte(content), 0o644))
		_, err := g.wt.Add(path)
		require.NoError(g.t, err)
	}

	g.clock = g.clock.Add(time.Minute)
	sig := &object.Signature{Name: "Dev", Email: "dev@example.com", When: g.clock}
	hash, err := g.wt.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	require.NoError(g.t, err)
	return hash.String()
}

// Merge fabricates a merge commit with the given parent hashes, mainline
// first. The current worktree state becomes the merge snapshot.
func (g *GitRepo) Merge(message string, parents ...string) string {
	g.t.Helper()

	parentHashes := make([]plumbing.Hash, 0, len(parents))
	for _, p := range parents {
		parentHashes = append(parentHashes, plumbing.NewHash(p))
	}

	g.clock = g.clock.Add(time.Minute)
	sig := &object.Signature{Name: "Dev", Email: "dev@example.com", When: g.clock}
	hash, err := g.wt.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           parentHashes,
		AllowEmptyCommits: true,
	})
	require.NoError(g.t, err)
	return hash.String()
}

// Tag creates a lightweight tag on the given commit.
func (g *GitRepo) Tag(name, sha string) {
	g.t.Helper()
	_, err := g.Repo.CreateTag(name, plumbing.NewHash(sha), nil)
	require.NoError(g.t, err)
}

// AnnotatedTag creates an annotated tag on the given commit, dated one
// clock tick after the previous event.
func (g *GitRepo) AnnotatedTag(name, sha, message string) {
	g.t.Helper()
	g.clock = g.clock.Add(time.Minute)
	_, err := g.Repo.CreateTag(name, plumbing.NewHash(sha), &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Dev", Email: "dev@example.com", When: g.clock},
		Message: message,
	})
	require.NoError(g.t, err)
}

// Clock returns the fixture's current timestamp.
func (g *GitRepo) Clock() time.Time {
	return g.clock
}
