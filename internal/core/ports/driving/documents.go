package driving

import (
	"context"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
)

// DocumentService exposes stored pipeline records for inspection.
type DocumentService interface {
	// List returns all stored documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by source path.
	Get(ctx context.Context, path string) (*domain.Document, error)

	// Extractions returns stored extraction records, newest first.
	Extractions(ctx context.Context) ([]domain.ExtractionRecord, error)
}
