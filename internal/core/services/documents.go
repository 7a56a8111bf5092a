package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes stored pipeline records for inspection.
type DocumentService struct {
	store driven.DocumentStore
}

// NewDocumentService creates a document service over the given store.
func NewDocumentService(store driven.DocumentStore) *DocumentService {
	return &DocumentService{store: store}
}

// List returns all stored documents.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get retrieves a document by source path.
func (s *DocumentService) Get(ctx context.Context, path string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Extractions returns stored extraction records, newest first.
func (s *DocumentService) Extractions(ctx context.Context) ([]domain.ExtractionRecord, error) {
	recs, err := s.store.ListExtractions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	return recs, nil
}
