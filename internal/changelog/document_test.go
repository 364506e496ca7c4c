package changelog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carraways/monorel/internal/commits"
)

func section(label string, subjects ...string) Section {
	s := Section{Label: label, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	for i, subject := range subjects {
		s.Commits = append(s.Commits, commits.Classify(commits.Raw{
			Hash:    fmt.Sprintf("%040d", i),
			Subject: subject,
		}))
	}
	return s
}

func TestDocument_AppendPreservesOrder(t *testing.T) {
	doc := NewDocument()
	doc.Append(section("1.1.0"))
	doc.Append(section("1.0.0"))
	doc.Append(section("0.9.0"))

	assert.Equal(t, []string{"1.1.0", "1.0.0", "0.9.0"}, doc.Labels())
	assert.Equal(t, 3, doc.Len())
}

func TestDocument_AppendReplacesInPlace(t *testing.T) {
	doc := NewDocument()
	doc.Append(section("1.1.0", "feat: old entry"))
	doc.Append(section("1.0.0"))

	doc.Append(section("1.1.0", "feat: new entry", "fix: another"))

	assert.Equal(t, []string{"1.1.0", "1.0.0"}, doc.Labels())
	replaced, ok := doc.Get("1.1.0")
	require.True(t, ok)
	assert.Len(t, replaced.Commits, 2)
	assert.Equal(t, "feat: new entry", replaced.Commits[0].Subject)
}

func TestDocument_Prepend(t *testing.T) {
	doc := NewDocument()
	doc.Append(section("1.0.0"))
	doc.Prepend(section("1.1.0"))

	assert.Equal(t, []string{"1.1.0", "1.0.0"}, doc.Labels())

	// Prepending an existing label replaces without moving it.
	doc.Prepend(section("1.0.0", "fix: replaced"))
	assert.Equal(t, []string{"1.1.0", "1.0.0"}, doc.Labels())
	got, ok := doc.Get("1.0.0")
	require.True(t, ok)
	assert.Len(t, got.Commits, 1)
}

func TestDocument_Get(t *testing.T) {
	doc := NewDocument()
	doc.Append(section("1.0.0", "feat: thing"))

	got, ok := doc.Get("1.0.0")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", got.Label)

	_, ok = doc.Get("9.9.9")
	assert.False(t, ok)
	assert.True(t, doc.Has("1.0.0"))
	assert.False(t, doc.Has("9.9.9"))
}

func TestMerge_FreshOverridesOldInPlace(t *testing.T) {
	old := NewDocument()
	old.Append(section("1.0.0", "feat: stale entry"))
	old.Append(section("0.9.0", "fix: ancient"))

	fresh := NewDocument()
	fresh.Append(section("1.0.0", "feat: corrected entry", "fix: extra"))

	merged := Merge(old, fresh)

	assert.Equal(t, []string{"1.0.0", "0.9.0"}, merged.Labels())
	got, ok := merged.Get("1.0.0")
	require.True(t, ok)
	assert.Len(t, got.Commits, 2)
	assert.Equal(t, "feat: corrected entry", got.Commits[0].Subject)
}

func TestMerge_NewLabelsPrependedInFreshOrder(t *testing.T) {
	old := NewDocument()
	old.Append(section("1.0.0"))
	old.Append(section("0.9.0"))

	fresh := NewDocument()
	fresh.Append(section("1.2.0"))
	fresh.Append(section("1.1.0"))
	fresh.Append(section("1.0.0", "feat: override"))

	merged := Merge(old, fresh)

	assert.Equal(t, []string{"1.2.0", "1.1.0", "1.0.0", "0.9.0"}, merged.Labels())
}

func TestMerge_OldOnlySectionsSurvive(t *testing.T) {
	old := NewDocument()
	old.Append(section("1.0.0", "feat: kept verbatim"))

	fresh := NewDocument()
	fresh.Append(section("1.1.0", "feat: brand new"))

	merged := Merge(old, fresh)

	assert.Equal(t, []string{"1.1.0", "1.0.0"}, merged.Labels())
	kept, ok := merged.Get("1.0.0")
	require.True(t, ok)
	assert.Equal(t, "feat: kept verbatim", kept.Commits[0].Subject)
}

func TestMerge_Idempotent(t *testing.T) {
	old := NewDocument()
	old.Append(section("1.0.0", "feat: one"))
	old.Append(section("0.9.0", "fix: two"))

	fresh := NewDocument()
	fresh.Append(section("1.1.0", "feat: three"))
	fresh.Append(section("1.0.0", "feat: replaced"))

	once := Merge(old, fresh)
	twice := Merge(once, fresh)

	assert.Equal(t, once.Labels(), twice.Labels())
	for _, label := range once.Labels() {
		a, _ := once.Get(label)
		b, _ := twice.Get(label)
		assert.Equal(t, a, b, "section %s changed on re-merge", label)
	}
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	old := NewDocument()
	old.Append(section("1.0.0"))
	fresh := NewDocument()
	fresh.Append(section("1.1.0"))

	_ = Merge(old, fresh)

	assert.Equal(t, []string{"1.0.0"}, old.Labels())
	assert.Equal(t, []string{"1.1.0"}, fresh.Labels())
}
