package driven

import (
	"context"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
)

// DocumentStore persists documents, chunks and extraction records.
// Backed by SQLite.
type DocumentStore interface {
	// SaveDocument stores or replaces a document keyed by path.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by source path.
	GetDocument(ctx context.Context, path string) (*domain.Document, error)

	// ListDocuments returns all stored documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// SaveChunks replaces the stored chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves a document's chunks ordered by sequence index.
	GetChunks(ctx context.Context, sourcePath string) ([]domain.Chunk, error)

	// SaveExtraction appends an extraction record.
	SaveExtraction(ctx context.Context, rec *domain.ExtractionRecord) error

	// ListExtractions returns all extraction records, newest first.
	ListExtractions(ctx context.Context) ([]domain.ExtractionRecord, error)

	// Close releases the underlying storage.
	Close() error
}
