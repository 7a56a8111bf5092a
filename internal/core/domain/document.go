package domain

import "time"

// Document represents one parsed source file from a corpus.
// It is created at ingestion time and immutable thereafter;
// re-ingesting a file produces a fresh record.
type Document struct {
	// Path is the absolute location of the source file and the
	// document's identity. One record exists per source file.
	Path string

	// RelativePath is the path within the corpus directory.
	// It is attached to every indexed chunk as a filter attribute.
	RelativePath string

	// ExtractedText is the plain text produced by the parse step.
	// Empty when extraction failed.
	ExtractedText string

	// ErrorInfo describes a parse failure. When set, the document
	// is recorded but excluded from chunking and indexing.
	ErrorInfo string

	// Metadata contains parser-provided key-value pairs.
	Metadata map[string]any

	// State is the document's position in the processing lifecycle.
	State DocumentState

	// ProcessedAt is when the parse step ran.
	ProcessedAt time.Time
}

// Failed reports whether text extraction failed for this document.
func (d *Document) Failed() bool {
	return d.ErrorInfo != ""
}

// Chunk is a bounded-size segment of a document's text. Every chunk
// after the first shares up to the configured overlap with the tail
// of its predecessor.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// SourcePath links back to the owning Document. A back-reference,
	// not ownership: the index keeps its own copy once indexed.
	SourcePath string

	// RelativePath mirrors the document's corpus-relative path.
	RelativePath string

	// Text is the chunk content, at most the configured chunk size.
	Text string

	// SequenceIndex is the 0-based position within the document's
	// chunk sequence. Used for overlap reconstruction and tie-breaking.
	SequenceIndex int

	// CreatedAt is when the chunk was produced.
	CreatedAt time.Time
}
