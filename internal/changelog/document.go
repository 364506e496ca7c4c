// Package changelog buckets classified commits into versioned sections,
// renders them through a template engine, and merges fresh sections into a
// previously persisted document. Section order is the release timeline,
// newest first, and survives merging untouched.
package changelog

import (
	"time"

	"github.com/carraways/monorel/internal/commits"
)

// UnreleasedLabel is the section label used for pending changes when
// version labeling is disabled.
const UnreleasedLabel = "unreleased"

// Section is one release's worth of changelog entries: a version label (or
// the unreleased marker) with an ordered commit list.
type Section struct {
	// Label is a semantic version string, or UnreleasedLabel.
	Label string
	// Date is the release date: the tag date for historical sections, the
	// newest commit's date for a pending section.
	Date time.Time
	// Commits is the section's entry list in its final rendered order.
	Commits []commits.Record
}

// Document is an order-preserving mapping from version label to section.
// The label order is the document's release timeline; replacing a section
// never moves it.
type Document struct {
	labels []string
	store  []Section
	index  map[string]int
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{index: map[string]int{}}
}

// Append adds a section at the end of the timeline, or replaces an existing
// section with the same label in place.
func (d *Document) Append(s Section) {
	if i, ok := d.index[s.Label]; ok {
		d.store[i] = s
		return
	}
	d.index[s.Label] = len(d.store)
	d.labels = append(d.labels, s.Label)
	d.store = append(d.store, s)
}

// Prepend adds a section at the front of the timeline, or replaces an
// existing section with the same label in place.
func (d *Document) Prepend(s Section) {
	if i, ok := d.index[s.Label]; ok {
		d.store[i] = s
		return
	}
	d.labels = append([]string{s.Label}, d.labels...)
	d.store = append([]Section{s}, d.store...)
	d.reindex()
}

// Get returns the section for a label.
func (d *Document) Get(label string) (Section, bool) {
	i, ok := d.index[label]
	if !ok {
		return Section{}, false
	}
	return d.store[i], true
}

// Has reports whether the document contains a section for label.
func (d *Document) Has(label string) bool {
	_, ok := d.index[label]
	return ok
}

// Labels returns the label timeline in document order.
func (d *Document) Labels() []string {
	out := make([]string, len(d.labels))
	copy(out, d.labels)
	return out
}

// Sections returns the sections in document order.
func (d *Document) Sections() []Section {
	out := make([]Section, len(d.store))
	copy(out, d.store)
	return out
}

// Len returns the number of sections.
func (d *Document) Len() int {
	return len(d.store)
}

func (d *Document) reindex() {
	for i, label := range d.labels {
		d.index[label] = i
	}
}

// Merge combines a freshly computed document with a previously persisted
// one. For labels present in both, the fresh section wins but keeps the old
// position; labels only in the old document are preserved where they were;
// labels only in the fresh document are prepended, keeping the fresh
// document's own order. The inputs are not modified, and merging the result
// with the same fresh document again is a no-op.
func Merge(old, fresh *Document) *Document {
	merged := NewDocument()
	for _, s := range fresh.Sections() {
		if !old.Has(s.Label) {
			merged.Append(s)
		}
	}
	for _, s := range old.Sections() {
		if replacement, ok := fresh.Get(s.Label); ok {
			merged.Append(replacement)
		} else {
			merged.Append(s)
		}
	}
	return merged
}
