package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu          sync.RWMutex
	documents   map[string]domain.Document
	chunks      map[string][]domain.Chunk
	extractions []domain.ExtractionRecord
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or replaces a document keyed by path.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.Path] = *doc
	return nil
}

// GetDocument retrieves a document by source path.
func (s *DocumentStore) GetDocument(_ context.Context, path string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all stored documents ordered by relative path.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for path := range s.documents {
		docs = append(docs, s.documents[path])
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].RelativePath < docs[j].RelativePath
	})
	return docs, nil
}

// SaveChunks replaces the stored chunks for a document.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[chunks[0].SourcePath] = append([]domain.Chunk(nil), chunks...)
	return nil
}

// GetChunks retrieves a document's chunks ordered by sequence index.
func (s *DocumentStore) GetChunks(_ context.Context, sourcePath string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.chunks[sourcePath]
	if !ok {
		return nil, nil
	}
	chunks := append([]domain.Chunk(nil), stored...)
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].SequenceIndex < chunks[j].SequenceIndex
	})
	return chunks, nil
}

// SaveExtraction appends an extraction record.
func (s *DocumentStore) SaveExtraction(_ context.Context, rec *domain.ExtractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractions = append(s.extractions, *rec)
	return nil
}

// ListExtractions returns all extraction records, newest first.
func (s *DocumentStore) ListExtractions(_ context.Context) ([]domain.ExtractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := append([]domain.ExtractionRecord(nil), s.extractions...)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

// Close releases resources. The in-memory store holds none.
func (s *DocumentStore) Close() error {
	return nil
}
