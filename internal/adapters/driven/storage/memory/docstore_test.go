package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
)

func TestDocumentStore_Documents(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{Path: "/corpus/a.txt", RelativePath: "a.txt", State: domain.StateIngested}
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetDocument(ctx, doc.Path)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RelativePath != "a.txt" {
		t.Errorf("unexpected relative path %q", got.RelativePath)
	}

	// Stored copy is independent of the caller's struct.
	doc.State = domain.StateIndexed
	got, err = store.GetDocument(ctx, doc.Path)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != domain.StateIngested {
		t.Error("expected stored state to be unaffected by caller mutation")
	}

	if _, err := store.GetDocument(ctx, "/missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentStore_ListOrdered(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	for _, rel := range []string{"c.txt", "a.txt", "b.txt"} {
		if err := store.SaveDocument(ctx, &domain.Document{Path: "/" + rel, RelativePath: rel}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	docs, err := store.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i, want := range []string{"a.txt", "b.txt", "c.txt"} {
		if docs[i].RelativePath != want {
			t.Errorf("docs[%d] = %q, want %q", i, docs[i].RelativePath, want)
		}
	}
}

func TestDocumentStore_Chunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ID: "c1", SourcePath: "/a.txt", SequenceIndex: 1},
		{ID: "c2", SourcePath: "/a.txt", SequenceIndex: 0},
	}
	if err := store.SaveChunks(ctx, chunks); err != nil {
		t.Fatalf("save chunks: %v", err)
	}

	got, err := store.GetChunks(ctx, "/a.txt")
	if err != nil {
		t.Fatalf("get chunks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0].ID != "c2" || got[1].ID != "c1" {
		t.Errorf("expected sequence order, got %s, %s", got[0].ID, got[1].ID)
	}

	// Replacement, not accumulation.
	if err := store.SaveChunks(ctx, []domain.Chunk{{ID: "c3", SourcePath: "/a.txt"}}); err != nil {
		t.Fatalf("save chunks: %v", err)
	}
	got, err = store.GetChunks(ctx, "/a.txt")
	if err != nil {
		t.Fatalf("get chunks: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c3" {
		t.Errorf("expected replacement with c3, got %v", got)
	}

	// Unknown document has no chunks.
	got, err = store.GetChunks(ctx, "/unknown")
	if err != nil {
		t.Fatalf("get chunks: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestDocumentStore_Extractions(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	older := &domain.ExtractionRecord{ID: "e1", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &domain.ExtractionRecord{ID: "e2", CreatedAt: time.Now()}
	if err := store.SaveExtraction(ctx, older); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveExtraction(ctx, newer); err != nil {
		t.Fatalf("save: %v", err)
	}

	recs, err := store.ListExtractions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "e2" || recs[1].ID != "e1" {
		t.Errorf("expected newest first, got %s, %s", recs[0].ID, recs[1].ID)
	}
}
