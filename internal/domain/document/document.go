package document

import "github.com/kailas-cloud/projectrag/internal/domain/record"

// Document is a projected record ready for embedding (immutable value object).
type Document struct {
	text string
	kind record.Kind
	id   int64
}

// New creates a Document.
func New(kind record.Kind, id int64, text string) Document {
	return Document{text: text, kind: kind, id: id}
}

// Text returns the natural-language snippet.
func (d Document) Text() string { return d.text }

// Type returns the kind of record the document was projected from.
func (d Document) Type() record.Kind { return d.kind }

// ID returns the source record identifier.
func (d Document) ID() int64 { return d.id }
