package changelog

// Engine is the template collaborator the aggregator renders through. The
// two operations form a round trip: ParseVersions(GenerateContent(doc))
// yields an equivalent document for any document the engine itself produced.
type Engine interface {
	// GenerateContent renders a document to its persisted text form.
	GenerateContent(doc *Document) (string, error)
	// ParseVersions parses persisted text back into a document, preserving
	// section order.
	ParseVersions(content string) (*Document, error)
}
