package gitx

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/carraways/monorel/internal/errors"
	"github.com/carraways/monorel/internal/version"
)

// releaseTagRe is the canonical release-tag grammar: an optional hyphenated
// package prefix, a literal v, and exactly three numeric components. Anything
// else — plain semver, pre-release suffixes, empty strings — is rejected
// outright rather than partially matched.
var releaseTagRe = regexp.MustCompile(`^(.+-)?v\d+\.\d+\.\d+$`)

// DetectTagPrefix extracts the series prefix from a tag name. The root
// series uses the bare prefix "v" ("v1.2.3"); a named package's prefix is
// "<name>-v" ("api-v1.2.3"). ok is false for any non-conforming name.
func DetectTagPrefix(tag string) (string, bool) {
	m := releaseTagRe.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	return m[1] + "v", true
}

// ReleaseTag is one release boundary in a package's tag series.
type ReleaseTag struct {
	// Name is the full tag name, e.g. "api-v1.2.3".
	Name string
	// Version is the semantic version encoded in the name, e.g. "1.2.3".
	Version string
	// Prefix is the series prefix the name matched, e.g. "api-v".
	Prefix string
	// Hash is the commit the tag points at, annotated tags peeled.
	Hash string
	// Date is when the release was tagged (tagger date for annotated tags,
	// committer date for lightweight ones).
	Date time.Time
}

// ParseReleaseTag parses a tag name into its static fields. Hash and Date
// stay zero; they come from repository resolution.
func ParseReleaseTag(name string) (ReleaseTag, bool) {
	prefix, ok := DetectTagPrefix(name)
	if !ok {
		return ReleaseTag{}, false
	}
	return ReleaseTag{
		Name:    name,
		Version: name[len(prefix):],
		Prefix:  prefix,
	}, true
}

// TagPair couples a release tag with its immediate predecessor in the same
// series. Previous is nil for the series' first release. The pair bounds the
// commit slice belonging to Tag's release.
type TagPair struct {
	Tag      ReleaseTag
	Previous *ReleaseTag
}

// TagSeries is the ordered set of release tags sharing one package's prefix.
type TagSeries struct {
	r      *Repository
	pkg    string
	prefix string
}

// Prefix returns the series' tag prefix.
func (s *TagSeries) Prefix() string {
	return s.prefix
}

// Tags returns every release tag in the series, sorted by version ascending.
// A series tag whose commit cannot be resolved is a fatal lookup error: it
// signals repository corruption, not a skippable entry.
func (s *TagSeries) Tags() ([]ReleaseTag, error) {
	iter, err := s.r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var tags []ReleaseTag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		tag, ok := ParseReleaseTag(name)
		if !ok || tag.Prefix != s.prefix {
			return nil
		}
		resolved, err := s.resolveTag(tag, ref.Hash())
		if err != nil {
			return errors.NewLookupError(name, s.pkg, err)
		}
		tags = append(tags, resolved)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortTags(tags)
	return tags, nil
}

// Base returns the series' latest release tag. ok is false when the series
// has no tags yet.
func (s *TagSeries) Base() (ReleaseTag, bool, error) {
	tags, err := s.Tags()
	if err != nil {
		return ReleaseTag{}, false, err
	}
	if len(tags) == 0 {
		return ReleaseTag{}, false, nil
	}
	return tags[len(tags)-1], true, nil
}

// BaseSha returns the commit of the latest release tag, or the repository's
// first commit when the series has no tags yet (first-time versioning).
func (s *TagSeries) BaseSha() (string, error) {
	base, ok, err := s.Base()
	if err != nil {
		return "", err
	}
	if !ok {
		return s.r.History().FirstCommit()
	}
	return base.Hash, nil
}

// BaseVersion returns the version implied by the latest release tag, or
// "0.0.0" when the series has no tags yet.
func (s *TagSeries) BaseVersion() (string, error) {
	base, ok, err := s.Base()
	if err != nil {
		return "", err
	}
	if !ok {
		return "0.0.0", nil
	}
	return base.Version, nil
}

// TagsInRange returns the series tags whose commits fall within (from, to],
// ascending by version, each paired with its immediate predecessor in the
// series. The predecessor may itself sit outside the range; it only bounds
// the commit slice.
func (s *TagSeries) TagsInRange(ctx context.Context, from, to string) ([]TagPair, error) {
	tags, err := s.Tags()
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}

	inRange := map[string]bool{}
	for _, rec := range s.r.History().CommitsInRange(ctx, from, to) {
		inRange[rec.Hash] = true
	}

	var pairs []TagPair
	for i, tag := range tags {
		if !inRange[tag.Hash] {
			continue
		}
		pair := TagPair{Tag: tag}
		if i > 0 {
			prev := tags[i-1]
			pair.Previous = &prev
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// Lookup resolves a single tag name to its release data. The name must
// belong to this series; a missing or unresolvable tag is a fatal lookup
// error naming the tag and the package.
func (s *TagSeries) Lookup(name string) (ReleaseTag, error) {
	tag, ok := ParseReleaseTag(name)
	if !ok || tag.Prefix != s.prefix {
		return ReleaseTag{}, errors.NewLookupError(name, s.pkg,
			fmt.Errorf("name does not match series prefix %q", s.prefix))
	}

	ref, err := s.r.repo.Tag(name)
	if err != nil {
		return ReleaseTag{}, errors.NewLookupError(name, s.pkg, err)
	}

	resolved, err := s.resolveTag(tag, ref.Hash())
	if err != nil {
		return ReleaseTag{}, errors.NewLookupError(name, s.pkg, err)
	}
	return resolved, nil
}

// Create tags a commit as a release in this series and returns the created
// tag name (prefix + version). A non-empty message produces an annotated
// tag; an empty one a lightweight tag. rev defaults to HEAD.
func (s *TagSeries) Create(ver, rev, message string) (string, error) {
	if rev == "" {
		rev = "HEAD"
	}
	hash, err := s.r.resolveCommit(rev)
	if err != nil {
		return "", err
	}

	name := s.prefix + ver
	var opts *git.CreateTagOptions
	if message != "" {
		opts = &git.CreateTagOptions{Message: message}
	}
	if _, err := s.r.repo.CreateTag(name, hash, opts); err != nil {
		return "", fmt.Errorf("creating tag %s: %w", name, err)
	}
	return name, nil
}

// resolveTag fills a parsed tag's Hash and Date from the repository. The ref
// hash is either the commit itself (lightweight) or a tag object (annotated).
func (s *TagSeries) resolveTag(tag ReleaseTag, refHash plumbing.Hash) (ReleaseTag, error) {
	if obj, err := s.r.repo.TagObject(refHash); err == nil {
		commitHash, err := s.r.peelToCommit(obj.Target)
		if err != nil {
			return ReleaseTag{}, err
		}
		tag.Hash = commitHash.String()
		tag.Date = obj.Tagger.When
		return tag, nil
	}

	commit, err := s.r.commitObject(refHash)
	if err != nil {
		return ReleaseTag{}, err
	}
	tag.Hash = commit.Hash.String()
	tag.Date = commit.Committer.When
	return tag, nil
}

// sortTags orders tags by version ascending.
func sortTags(tags []ReleaseTag) {
	sort.Slice(tags, func(i, j int) bool {
		return version.Compare(tags[i].Version, tags[j].Version) < 0
	})
}
