package changelog

import (
	"context"
	"sort"
	"time"

	"github.com/carraways/monorel/internal/commits"
	"github.com/carraways/monorel/internal/errors"
	"github.com/carraways/monorel/internal/gitx"
	"github.com/carraways/monorel/internal/version"
)

// Order is the sort direction applied to each section's commits.
type Order string

const (
	// OrderDescending puts the newest commit first (default).
	OrderDescending Order = "desc"
	// OrderAscending puts the oldest commit first.
	OrderAscending Order = "asc"
)

// Valid reports whether the order is a known value.
func (o Order) Valid() bool {
	return o == OrderDescending || o == OrderAscending
}

// Config holds the changelog settings loaded from the config hierarchy
// (env > project > user > defaults).
type Config struct {
	// File is the changelog file name, resolved under each package directory.
	File string `koanf:"file" validate:"required"`
	// Versioned labels pending sections with the computed target version;
	// false labels them with the unreleased marker.
	Versioned bool `koanf:"versioned"`
	// CommitOrder is the per-section commit sort direction.
	CommitOrder Order `koanf:"commit_order"`
}

// Options configures an Aggregator.
type Options struct {
	// Versioned labels the pending section with the computed target version;
	// when false the section is labeled with the unreleased marker instead.
	Versioned bool
	// Order is the per-section commit sort direction; empty means descending.
	Order Order
	// Paths restricts history to commits touching these directories.
	Paths []string
	// ExcludePaths drops commits that only touch these directories.
	ExcludePaths []string
}

// Aggregator builds a changelog document for one package: one section per
// historical release tag in range plus, when a bump is warranted, a pending
// section covering everything since the latest tag. The document is built
// once by CalculateRange and then rendered or merged; rendering before
// calculating is a usage error.
type Aggregator struct {
	history     *gitx.History
	series      *gitx.TagSeries
	diskVersion string
	engine      Engine
	opts        Options

	doc      *Document
	decision *version.Decision
}

// NewAggregator wires an aggregator for one package. diskVersion is the
// manifest version on disk; engine renders and parses the persisted form.
func NewAggregator(history *gitx.History, series *gitx.TagSeries, diskVersion string, engine Engine, opts Options) *Aggregator {
	if opts.Order == "" {
		opts.Order = OrderDescending
	}
	return &Aggregator{
		history:     history,
		series:      series,
		diskVersion: diskVersion,
		engine:      engine,
		opts:        opts,
	}
}

// CalculateRange computes the version decision and populates the internal
// document for the commit range (from, to]. Historical sections come from
// the series tags inside the range, sliced predecessor..tag; the pending
// section (if the decision warrants one) covers latest-tag..to. With no
// tags yet, the whole history lands under the computed first version.
//
// The returned decision is the one later consumed by bump and release;
// a disk version ahead of the tag series aborts with an integrity error.
func (a *Aggregator) CalculateRange(ctx context.Context, from, to string) (version.Decision, error) {
	tagVersion, err := a.series.BaseVersion()
	if err != nil {
		return version.Decision{}, err
	}
	base, hasBase, err := a.series.Base()
	if err != nil {
		return version.Decision{}, err
	}
	baseRef := ""
	if hasBase {
		baseRef = base.Name
	}

	sinceBase := a.history.CommitsInRange(ctx, baseRef, to, a.rangeOpts()...)
	decision, err := version.Calculate(a.diskVersion, tagVersion, sinceBase)
	if err != nil {
		return version.Decision{}, err
	}

	doc := NewDocument()

	if decision.ShouldBump {
		label := decision.TargetVersion
		if !a.opts.Versioned {
			label = UnreleasedLabel
		}
		arranged := arrangeCommits(sinceBase, a.opts.Order)
		doc.Append(Section{Label: label, Date: newestDate(arranged), Commits: arranged})
	}

	pairs, err := a.series.TagsInRange(ctx, from, to)
	if err != nil {
		return version.Decision{}, err
	}
	// Newest release first in the document timeline.
	for i := len(pairs) - 1; i >= 0; i-- {
		pair := pairs[i]
		prevRef := ""
		if pair.Previous != nil {
			prevRef = pair.Previous.Name
		}
		recs := a.history.CommitsInRange(ctx, prevRef, pair.Tag.Name, a.rangeOpts()...)
		doc.Append(Section{
			Label:   pair.Tag.Version,
			Date:    pair.Tag.Date,
			Commits: arrangeCommits(recs, a.opts.Order),
		})
	}

	a.doc = doc
	a.decision = &decision
	return decision, nil
}

// GenerateChangelog renders the calculated document through the engine.
func (a *Aggregator) GenerateChangelog() (string, error) {
	if err := a.renderable(); err != nil {
		return "", err
	}
	return a.engine.GenerateContent(a.doc)
}

// GenerateMergedChangelog parses the previously persisted changelog and
// merges the calculated document into it: same-label sections are replaced
// in place by the fresh ones, old-only sections keep their positions, and
// new labels are prepended. The merged text is returned; nothing is written.
func (a *Aggregator) GenerateMergedChangelog(previous string) (string, error) {
	if err := a.renderable(); err != nil {
		return "", err
	}
	old, err := a.engine.ParseVersions(previous)
	if err != nil {
		return "", err
	}
	return a.engine.GenerateContent(Merge(old, a.doc))
}

// Document returns the calculated document, nil before CalculateRange.
func (a *Aggregator) Document() *Document {
	return a.doc
}

// Decision returns the decision computed by CalculateRange.
func (a *Aggregator) Decision() (version.Decision, bool) {
	if a.decision == nil {
		return version.Decision{}, false
	}
	return *a.decision, true
}

func (a *Aggregator) renderable() error {
	if a.engine == nil {
		return errors.EngineUnset()
	}
	if a.doc == nil {
		return errors.RenderBeforeCalculate()
	}
	return nil
}

func (a *Aggregator) rangeOpts() []gitx.RangeOption {
	var opts []gitx.RangeOption
	if len(a.opts.Paths) > 0 {
		opts = append(opts, gitx.WithPaths(a.opts.Paths...))
	}
	if len(a.opts.ExcludePaths) > 0 {
		opts = append(opts, gitx.WithoutPaths(a.opts.ExcludePaths...))
	}
	return opts
}

// arrangeCommits applies the section ordering rule: merge commits first,
// then the standalone commits not already represented by a merge's subsumed
// manifest, the whole list then sorted by commit date. A commit listed in
// any merge's manifest never appears standalone in the same section.
func arrangeCommits(recs []commits.Record, order Order) []commits.Record {
	var merges, rest []commits.Record
	for _, rec := range recs {
		if rec.Merge {
			merges = append(merges, rec)
		} else {
			rest = append(rest, rec)
		}
	}

	subsumed := map[string]bool{}
	for _, m := range merges {
		for _, h := range m.Subsumed {
			subsumed[h] = true
		}
	}

	combined := make([]commits.Record, 0, len(recs))
	combined = append(combined, merges...)
	for _, rec := range rest {
		if !subsumed[rec.Hash] {
			combined = append(combined, rec)
		}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		if order == OrderAscending {
			return combined[i].Date.Before(combined[j].Date)
		}
		return combined[i].Date.After(combined[j].Date)
	})
	return combined
}

// newestDate returns the latest commit date in the list.
func newestDate(recs []commits.Record) time.Time {
	var newest time.Time
	for _, rec := range recs {
		if rec.Date.After(newest) {
			newest = rec.Date
		}
	}
	return newest
}
