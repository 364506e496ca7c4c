package commits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubject(t *testing.T) {
	tests := map[string]struct {
		subject  string
		ok       bool
		expected Conventional
	}{
		"plain type": {
			subject: "feat: add widget endpoint",
			ok:      true,
			expected: Conventional{
				Type:        "feat",
				Description: "add widget endpoint",
			},
		},
		"type with scope": {
			subject: "fix(api): reject empty payloads",
			ok:      true,
			expected: Conventional{
				Type:        "fix",
				Scopes:      []string{"api"},
				Description: "reject empty payloads",
			},
		},
		"multiple scopes": {
			subject: "refactor(api, core): share request parsing",
			ok:      true,
			expected: Conventional{
				Type:        "refactor",
				Scopes:      []string{"api", "core"},
				Description: "share request parsing",
			},
		},
		"breaking marker": {
			subject: "feat(api)!: drop v1 endpoints",
			ok:      true,
			expected: Conventional{
				Type:        "feat",
				Scopes:      []string{"api"},
				Breaking:    true,
				Description: "drop v1 endpoints",
			},
		},
		"breaking marker without scope": {
			subject: "refactor!: rename public interfaces",
			ok:      true,
			expected: Conventional{
				Type:        "refactor",
				Breaking:    true,
				Description: "rename public interfaces",
			},
		},
		"uppercase type is normalized": {
			subject: "Fix: typo in README",
			ok:      true,
			expected: Conventional{
				Type:        "fix",
				Description: "typo in README",
			},
		},
		"no colon": {
			subject: "update readme",
			ok:      false,
		},
		"colon without space": {
			subject: "feat:squeezed together",
			ok:      false,
		},
		"colon inside sentence": {
			subject: "do this: then that",
			ok:      false,
		},
		"empty subject": {
			subject: "",
			ok:      false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			conv, ok := ParseSubject(tt.subject)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, conv)
			}
		})
	}
}

func TestClassify_Conventional(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := Classify(Raw{
		Hash:    "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2",
		Date:    when,
		Subject: "feat(core): add tag series lookup",
		Parents: []string{"1111111111111111111111111111111111111111"},
	})

	assert.Equal(t, "feat", rec.Type)
	assert.Equal(t, []string{"core"}, rec.Scopes)
	assert.Equal(t, "add tag series lookup", rec.Description)
	assert.Equal(t, when, rec.Date)
	assert.False(t, rec.Breaking)
	assert.False(t, rec.Merge)
	assert.False(t, rec.Dependency)
	assert.True(t, rec.AddsFeature())
	assert.False(t, rec.AddsFix())
	assert.Equal(t, "a1b2c3d4", rec.ShortHash())
}

func TestClassify_MalformedSubjectNeverFails(t *testing.T) {
	rec := Classify(Raw{
		Hash:    "deadbeef",
		Subject: "hotfix for the thing",
	})

	assert.Equal(t, TypeUnclassified, rec.Type)
	assert.Equal(t, "hotfix for the thing", rec.Description)
	assert.Empty(t, rec.Scopes)
	assert.False(t, rec.Breaking)
	assert.False(t, rec.AddsFeature())
	assert.False(t, rec.AddsFix())
}

func TestClassify_BreakingFooter(t *testing.T) {
	tests := map[string]struct {
		subject  string
		body     string
		breaking bool
	}{
		"footer with space": {
			subject:  "fix(api): tighten validation",
			body:     "Long explanation.\n\nBREAKING CHANGE: empty payloads are now rejected",
			breaking: true,
		},
		"footer with dash": {
			subject:  "chore: rework internals",
			body:     "BREAKING-CHANGE: config keys renamed",
			breaking: true,
		},
		"mention mid-line does not count": {
			subject:  "docs: explain BREAKING CHANGE footers",
			body:     "This documents how a BREAKING CHANGE: footer works.",
			breaking: false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := Classify(Raw{Hash: "abc", Subject: tt.subject, Body: tt.body})
			assert.Equal(t, tt.breaking, rec.Breaking)
		})
	}
}

func TestClassify_MergeDetection(t *testing.T) {
	tests := map[string]struct {
		raw     Raw
		isMerge bool
	}{
		"two parents": {
			raw: Raw{
				Hash:    "abc",
				Subject: "feat: landed via squash",
				Parents: []string{"p1", "p2"},
			},
			isMerge: true,
		},
		"pull request subject": {
			raw: Raw{
				Hash:    "abc",
				Subject: "Merge pull request #42 from org/feature-branch",
				Parents: []string{"p1"},
			},
			isMerge: true,
		},
		"branch merge subject": {
			raw: Raw{
				Hash:    "abc",
				Subject: "Merge branch 'develop' into main",
				Parents: []string{"p1"},
			},
			isMerge: true,
		},
		"single parent conventional commit": {
			raw: Raw{
				Hash:    "abc",
				Subject: "fix: off-by-one in pagination",
				Parents: []string{"p1"},
			},
			isMerge: false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := Classify(tt.raw)
			assert.Equal(t, tt.isMerge, rec.Merge)
		})
	}
}

func TestClassify_MergeManifestCarriedThrough(t *testing.T) {
	rec := Classify(Raw{
		Hash:     "abc",
		Subject:  "Merge pull request #7 from org/fix-pagination",
		Parents:  []string{"p1", "p2"},
		Subsumed: []string{"c1", "c2"},
	})

	require.True(t, rec.Merge)
	assert.Equal(t, []string{"c1", "c2"}, rec.Subsumed)
}

func TestClassify_DependencyDetection(t *testing.T) {
	tests := map[string]struct {
		subject    string
		dependency bool
	}{
		"deps scope":            {subject: "chore(deps): bump lodash from 4.17.20 to 4.17.21", dependency: true},
		"dependencies scope":    {subject: "build(dependencies): update toolchain", dependency: true},
		"deps type":             {subject: "deps: refresh lockfile", dependency: true},
		"bare dependabot style": {subject: "Bump golang.org/x/net from 0.38.0 to 0.39.0", dependency: true},
		"ordinary feature":      {subject: "feat(api): add pagination", dependency: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := Classify(Raw{Hash: "abc", Subject: tt.subject})
			assert.Equal(t, tt.dependency, rec.Dependency, "subject: %s", tt.subject)
		})
	}
}
