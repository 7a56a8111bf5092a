// Package local provides a document parser for files readable directly
// from the filesystem. It stands in for an external parsing/OCR service:
// a file the parser recognises but cannot extract is reported through
// ParseResult.ErrorInfo so the document is recorded with its error
// instead of aborting the batch.
package local

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/reportex-cli/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// textExtensions are the file types this parser can extract directly.
var textExtensions = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".json":     "application/json",
	".html":     "text/html",
	".xml":      "application/xml",
}

// Parser extracts text from local files.
type Parser struct{}

// New creates a local filesystem parser.
func New() *Parser {
	return &Parser{}
}

// Parse reads the file and extracts its text. Unsupported types,
// binary content and unreadable files come back with ErrorInfo set
// and a nil error: per-document failures are data, not exceptions.
func (p *Parser) Parse(_ context.Context, path string) (*driven.ParseResult, error) {
	ext := strings.ToLower(filepath.Ext(path))
	contentType, ok := textExtensions[ext]
	if !ok {
		return &driven.ParseResult{
			ErrorInfo: fmt.Sprintf("unsupported file type %q", ext),
		}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &driven.ParseResult{
			ErrorInfo: fmt.Sprintf("read file: %v", err),
		}, nil
	}

	if bytes.ContainsRune(data, 0) || !utf8.Valid(data) {
		return &driven.ParseResult{
			ErrorInfo: "binary or non-UTF-8 content",
		}, nil
	}

	return &driven.ParseResult{
		Text: string(data),
		Metadata: map[string]any{
			"content_type": contentType,
			"size_bytes":   len(data),
			"title":        extractTitle(path),
		},
	}, nil
}

// extractTitle derives a human-readable title from the file name.
func extractTitle(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
