package commits

import "time"

// TypeUnclassified is the commit type assigned when a subject does not match
// the conventional-commit grammar. The raw subject is preserved as the
// record's description.
const TypeUnclassified = "unclassified"

// Conventional commit types that affect version bumps. Every other type
// (docs, style, test, chore, ...) carries no bump severity on its own.
var (
	featureTypes = map[string]bool{"feat": true}
	fixTypes     = map[string]bool{"fix": true, "perf": true, "revert": true}
)

// Raw is one commit as read from the repository, before classification.
// Subsumed is pre-filled by the range resolver for merge commits (the commits
// between the merge's parents), which keeps Classify pure.
type Raw struct {
	Hash     string
	Date     time.Time
	Subject  string
	Body     string
	Parents  []string
	Subsumed []string
}

// Record is a classified commit.
type Record struct {
	Hash        string
	Date        time.Time
	Subject     string
	Body        string
	Type        string
	Scopes      []string
	Description string
	Breaking    bool
	Merge       bool
	Dependency  bool
	// Subsumed lists the hashes of the commits a merge commit represents.
	// Empty for non-merge commits.
	Subsumed []string
}

// AddsFeature reports whether the commit's type warrants a minor bump.
func (r Record) AddsFeature() bool {
	return featureTypes[r.Type]
}

// AddsFix reports whether the commit's type warrants a patch bump.
func (r Record) AddsFix() bool {
	return fixTypes[r.Type]
}

// ShortHash returns the first 8 characters of the commit hash, or the whole
// hash when shorter.
func (r Record) ShortHash() string {
	if len(r.Hash) > 8 {
		return r.Hash[:8]
	}
	return r.Hash
}
