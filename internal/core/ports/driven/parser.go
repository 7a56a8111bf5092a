package driven

import "context"

// ParseResult is the output of the document-parse collaborator.
// A per-document parse failure is reported through ErrorInfo, not the
// function error: the document is still recorded, with its error.
type ParseResult struct {
	// Text is the extracted plain text. Empty when ErrorInfo is set.
	Text string

	// ErrorInfo describes why extraction failed, when it did.
	ErrorInfo string

	// Metadata contains parser-specific key-value pairs
	// (page count, content type, ...).
	Metadata map[string]any
}

// DocumentParser extracts text from a source file. The parsing/OCR
// machinery behind it is a black box; only the result shape is owned
// here. Consumed once per document.
type DocumentParser interface {
	// Parse reads the file at path and extracts its text.
	// The returned error covers infrastructure failures only; a
	// document the parser understood but could not extract comes back
	// with ErrorInfo set and a nil error.
	Parse(ctx context.Context, path string) (*ParseResult, error)
}
