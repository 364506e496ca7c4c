package gitx

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/carraways/monorel/internal/commits"
	"github.com/carraways/monorel/internal/logging"
)

// History answers commit-range queries against one repository.
type History struct {
	r *Repository
}

// rangeQuery collects the options applied to a single range query.
type rangeQuery struct {
	includePaths []string
	excludePaths []string
	mergesOnly   bool
}

// RangeOption narrows a commit-range query.
type RangeOption func(*rangeQuery)

// WithPaths keeps only commits touching at least one file under the given
// repository-relative directories.
func WithPaths(paths ...string) RangeOption {
	return func(q *rangeQuery) {
		q.includePaths = append(q.includePaths, paths...)
	}
}

// WithoutPaths drops commits whose only touched files sit under the given
// repository-relative directories. Combined with WithPaths this separates a
// package's own history from the rest of the monorepo.
func WithoutPaths(paths ...string) RangeOption {
	return func(q *rangeQuery) {
		q.excludePaths = append(q.excludePaths, paths...)
	}
}

// MergesOnly keeps only merge commits.
func MergesOnly() RangeOption {
	return func(q *rangeQuery) {
		q.mergesOnly = true
	}
}

// CommitsInRange returns the classified commits reachable from `to` but not
// from `from`, newest first. An empty `from` means the whole history of `to`;
// an empty `to` means HEAD.
//
// Query failure is not an error here: bad refs, empty history, or a cancelled
// context degrade to an empty slice with a warning. Callers that need the
// distinction must validate their refs beforehand.
func (h *History) CommitsInRange(ctx context.Context, from, to string, opts ...RangeOption) []commits.Record {
	var q rangeQuery
	for _, opt := range opts {
		opt(&q)
	}

	raws, err := h.rawCommitsInRange(ctx, from, to, &q)
	if err != nil {
		logging.Warn("commit range query failed, treating range as empty",
			"from", from, "to", to, "error", err)
		return nil
	}

	recs := make([]commits.Record, 0, len(raws))
	for _, raw := range raws {
		recs = append(recs, commits.Classify(raw))
	}
	return recs
}

// rawCommitsInRange walks ancestors(to) − ancestors(from) and returns raw
// commits sorted newest first.
func (h *History) rawCommitsInRange(ctx context.Context, from, to string, q *rangeQuery) ([]commits.Raw, error) {
	if to == "" {
		to = "HEAD"
	}

	toHash, err := h.r.resolveCommit(to)
	if err != nil {
		return nil, err
	}

	exclude := map[plumbing.Hash]bool{}
	if from != "" {
		fromHash, err := h.r.resolveCommit(from)
		if err != nil {
			return nil, err
		}
		exclude, err = h.ancestorSet(ctx, fromHash)
		if err != nil {
			return nil, err
		}
	}

	iter, err := h.r.repo.Log(&git.LogOptions{From: toHash})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var raws []commits.Raw
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if exclude[c.Hash] {
			return nil
		}
		if q.mergesOnly && c.NumParents() < 2 {
			return nil
		}
		if len(q.includePaths) > 0 || len(q.excludePaths) > 0 {
			touches, err := h.commitTouches(c, q)
			if err != nil {
				return err
			}
			if !touches {
				return nil
			}
		}
		raws = append(raws, rawFromCommit(c))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Newest first; the walk order is already close but not guaranteed.
	sort.SliceStable(raws, func(i, j int) bool {
		return raws[i].Date.After(raws[j].Date)
	})

	for i := range raws {
		if len(raws[i].Parents) < 2 {
			continue
		}
		subsumed, err := h.subsumedByMerge(ctx, raws[i].Parents)
		if err != nil {
			return nil, err
		}
		raws[i].Subsumed = subsumed
	}

	return raws, nil
}

// FirstCommit returns the hash of the repository's root commit. When history
// has multiple roots the oldest one wins.
func (h *History) FirstCommit() (string, error) {
	head, err := h.r.resolveCommit("HEAD")
	if err != nil {
		return "", err
	}

	iter, err := h.r.repo.Log(&git.LogOptions{From: head})
	if err != nil {
		return "", err
	}
	defer iter.Close()

	var first *object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if c.NumParents() != 0 {
			return nil
		}
		if first == nil || c.Committer.When.Before(first.Committer.When) {
			first = c
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if first == nil {
		return "", fmt.Errorf("repository has no root commit")
	}
	return first.Hash.String(), nil
}

// ancestorSet returns every commit reachable from start, start included.
func (h *History) ancestorSet(ctx context.Context, start plumbing.Hash) (map[plumbing.Hash]bool, error) {
	iter, err := h.r.repo.Log(&git.LogOptions{From: start})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	set := map[plumbing.Hash]bool{}
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		set[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// subsumedByMerge lists the commits a merge subsumes: everything reachable
// from the side parents but not from the first (mainline) parent.
func (h *History) subsumedByMerge(ctx context.Context, parents []string) ([]string, error) {
	mainline, err := h.ancestorSet(ctx, plumbing.NewHash(parents[0]))
	if err != nil {
		return nil, err
	}

	var subsumed []string
	for _, side := range parents[1:] {
		iter, err := h.r.repo.Log(&git.LogOptions{From: plumbing.NewHash(side)})
		if err != nil {
			return nil, err
		}
		err = iter.ForEach(func(c *object.Commit) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if mainline[c.Hash] {
				return nil
			}
			mainline[c.Hash] = true
			subsumed = append(subsumed, c.Hash.String())
			return nil
		})
		iter.Close()
		if err != nil {
			return nil, err
		}
	}
	return subsumed, nil
}

// commitTouches reports whether the commit changes at least one file passing
// the query's path filters. Changes are computed against the first parent,
// so a merge commit counts everything its side branch brought in.
func (h *History) commitTouches(c *object.Commit, q *rangeQuery) (bool, error) {
	paths, err := changedPaths(c)
	if err != nil {
		return false, err
	}
	for _, path := range paths {
		if pathMatches(path, q.includePaths, q.excludePaths) {
			return true, nil
		}
	}
	return false, nil
}

// changedPaths lists the files a commit changes relative to its first parent.
// A root commit changes its entire tree.
func changedPaths(c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	if c.NumParents() == 0 {
		var paths []string
		err := tree.Files().ForEach(func(f *object.File) error {
			paths = append(paths, f.Name)
			return nil
		})
		return paths, err
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(changes))
	for _, change := range changes {
		name := change.To.Name
		if name == "" {
			name = change.From.Name
		}
		paths = append(paths, name)
	}
	return paths, nil
}

// pathMatches applies include/exclude directory filters to one file path.
func pathMatches(path string, include, exclude []string) bool {
	if underAny(path, exclude) {
		return false
	}
	if len(include) == 0 {
		return true
	}
	return underAny(path, include)
}

// underAny reports whether path equals or sits below any of the given
// repository-relative directories.
func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" || dir == "." {
			return true
		}
		if path == dir || strings.HasPrefix(path, dir+"/") {
			return true
		}
	}
	return false
}

func rawFromCommit(c *object.Commit) commits.Raw {
	subject, body := splitMessage(c.Message)
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return commits.Raw{
		Hash:    c.Hash.String(),
		Date:    c.Author.When,
		Subject: subject,
		Body:    body,
		Parents: parents,
	}
}

// splitMessage separates a commit message into subject and body.
func splitMessage(message string) (string, string) {
	subject, body, found := strings.Cut(message, "\n")
	subject = strings.TrimSpace(subject)
	if !found {
		return subject, ""
	}
	return subject, strings.TrimSpace(body)
}
