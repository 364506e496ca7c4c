package changelog

import (
	"regexp"
	"strings"
	"time"

	"github.com/carraways/monorel/internal/commits"
)

const (
	markdownTitle = "# Changelog"
	dateLayout    = "2006-01-02"
)

var (
	// sectionHeaderRe matches "## [1.2.0] - 2024-03-01"; the date part is
	// optional so hand-written sections still parse.
	sectionHeaderRe = regexp.MustCompile(`^## \[([^\]]+)\](?: - (\d{4}-\d{2}-\d{2}))?\s*$`)
	// entryRe matches "- abcdef12 feat(api): add watch mode".
	entryRe = regexp.MustCompile(`^- ([0-9a-f]{7,40}) (.+)$`)
)

// MarkdownEngine renders documents as Keep-a-Changelog-flavored markdown:
// one "## [label] - date" header per section, one "- <sha> <subject>" line
// per commit. Parsing runs each entry's subject back through the commit
// grammar, so rendered entries round-trip losslessly.
type MarkdownEngine struct{}

// NewMarkdownEngine returns the markdown template engine.
func NewMarkdownEngine() *MarkdownEngine {
	return &MarkdownEngine{}
}

// GenerateContent renders the document. Sections appear in document order;
// a section with no commits still gets its header so the release boundary
// stays visible.
func (e *MarkdownEngine) GenerateContent(doc *Document) (string, error) {
	var b strings.Builder
	b.WriteString(markdownTitle)
	b.WriteString("\n")

	for _, section := range doc.Sections() {
		b.WriteString("\n")
		b.WriteString(sectionHeader(section))
		b.WriteString("\n")
		if len(section.Commits) == 0 {
			continue
		}
		b.WriteString("\n")
		for _, rec := range section.Commits {
			b.WriteString("- ")
			b.WriteString(rec.ShortHash())
			b.WriteString(" ")
			b.WriteString(rec.Subject)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// ParseVersions parses persisted markdown back into a document. Lines that
// are neither section headers nor entries are skipped, so titles, prose and
// blank lines survive without breaking the parse.
func (e *MarkdownEngine) ParseVersions(content string) (*Document, error) {
	doc := NewDocument()
	var current *Section

	for _, line := range strings.Split(content, "\n") {
		if m := sectionHeaderRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				doc.Append(*current)
			}
			current = &Section{Label: parseLabel(m[1])}
			if m[2] != "" {
				date, err := time.Parse(dateLayout, m[2])
				if err == nil {
					current.Date = date
				}
			}
			continue
		}
		if current == nil {
			continue
		}
		if m := entryRe.FindStringSubmatch(line); m != nil {
			raw := commits.Raw{Hash: m[1], Subject: m[2], Date: current.Date}
			current.Commits = append(current.Commits, commits.Classify(raw))
		}
	}
	if current != nil {
		doc.Append(*current)
	}
	return doc, nil
}

func sectionHeader(s Section) string {
	label := s.Label
	if label == UnreleasedLabel {
		return "## [Unreleased]"
	}
	if s.Date.IsZero() {
		return "## [" + label + "]"
	}
	return "## [" + label + "] - " + s.Date.Format(dateLayout)
}

func parseLabel(label string) string {
	if strings.EqualFold(label, "Unreleased") {
		return UnreleasedLabel
	}
	return label
}
