// Package commits classifies raw git commits against the conventional-commit
// grammar. Classification is pure: the same raw commit always yields the same
// record, and malformed subjects degrade to an "unclassified" record instead
// of failing.
package commits

import (
	"regexp"
	"strings"
)

var (
	// type(scope1,scope2)!: description — the scope and breaking marker are
	// optional, the colon must be followed by a space.
	subjectRe = regexp.MustCompile(`^([A-Za-z]+)(?:\(([^)]*)\))?(!)?: (.+)$`)

	// Merge commit subjects produced by git and the common forge UIs.
	mergeSubjectRe = regexp.MustCompile(`^Merge (pull request #\d+|branch |remote-tracking branch )`)

	// Dependabot/renovate style dependency update subjects.
	dependencyBumpRe = regexp.MustCompile(`(?i)^bump .+ from .+ to .+$`)

	breakingFooterRe = regexp.MustCompile(`(?m)^BREAKING[- ]CHANGE:`)
)

// Conventional holds the parsed parts of a conventional-commit subject.
type Conventional struct {
	Type        string
	Scopes      []string
	Breaking    bool
	Description string
}

// ParseSubject parses a commit subject against the conventional-commit
// grammar. It returns ok=false for subjects that do not match; callers treat
// those as unclassified. The same parser backs both commit classification and
// changelog re-parsing, so rendered entries round-trip through one grammar.
func ParseSubject(subject string) (Conventional, bool) {
	m := subjectRe.FindStringSubmatch(subject)
	if m == nil {
		return Conventional{}, false
	}

	c := Conventional{
		Type:        strings.ToLower(m[1]),
		Breaking:    m[3] == "!",
		Description: m[4],
	}
	if m[2] != "" {
		for _, scope := range strings.Split(m[2], ",") {
			scope = strings.TrimSpace(scope)
			if scope != "" {
				c.Scopes = append(c.Scopes, scope)
			}
		}
	}
	return c, true
}

// Classify turns a raw commit into a classified record.
// The operation has no side effects and never fails: subjects outside the
// grammar yield a record with type "unclassified" and the raw subject
// preserved as the description.
func Classify(raw Raw) Record {
	rec := Record{
		Hash:     raw.Hash,
		Date:     raw.Date,
		Subject:  raw.Subject,
		Body:     raw.Body,
		Subsumed: raw.Subsumed,
	}

	if conv, ok := ParseSubject(raw.Subject); ok {
		rec.Type = conv.Type
		rec.Scopes = conv.Scopes
		rec.Description = conv.Description
		rec.Breaking = conv.Breaking
	} else {
		rec.Type = TypeUnclassified
		rec.Description = raw.Subject
	}

	if breakingFooterRe.MatchString(raw.Body) {
		rec.Breaking = true
	}

	rec.Merge = len(raw.Parents) >= 2 || mergeSubjectRe.MatchString(raw.Subject)
	rec.Dependency = isDependency(rec)

	return rec
}

// isDependency detects dependency-update commits: a deps scope or type, or a
// dependabot-style bump subject.
func isDependency(rec Record) bool {
	if rec.Type == "deps" {
		return true
	}
	for _, scope := range rec.Scopes {
		switch strings.ToLower(scope) {
		case "deps", "dependencies":
			return true
		}
	}
	return dependencyBumpRe.MatchString(rec.Description)
}
