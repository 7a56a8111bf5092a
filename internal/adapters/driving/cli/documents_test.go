package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
)

// mockDocumentService serves canned documents and extractions.
type mockDocumentService struct {
	docs []domain.Document
	recs []domain.ExtractionRecord
	err  error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, path string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].Path == path {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Extractions(_ context.Context) ([]domain.ExtractionRecord, error) {
	return m.recs, m.err
}

func runDocumentsCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"documents"}, args...))
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		documentsJSON = false
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestDocumentsList(t *testing.T) {
	oldService := documentService
	documentService = &mockDocumentService{docs: []domain.Document{
		{Path: "/corpus/a.txt", RelativePath: "a.txt", State: domain.StateCompleted},
		{Path: "/corpus/b.txt", RelativePath: "b.txt", State: domain.StateErrorDuringExtraction, ErrorInfo: "unsupported file type"},
	}}
	defer func() { documentService = oldService }()

	out, err := runDocumentsCommand(t, "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "a.txt [completed]") {
		t.Errorf("expected state next to path, got %q", out)
	}
	if !strings.Contains(out, "unsupported file type") {
		t.Errorf("expected error info in output, got %q", out)
	}
	if !strings.Contains(out, "Total: 2 documents") {
		t.Errorf("expected total, got %q", out)
	}
}

func TestDocumentsList_Empty(t *testing.T) {
	oldService := documentService
	documentService = &mockDocumentService{}
	defer func() { documentService = oldService }()

	out, err := runDocumentsCommand(t, "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No documents ingested.") {
		t.Errorf("expected empty message, got %q", out)
	}
}

func TestDocumentsGet(t *testing.T) {
	oldService := documentService
	documentService = &mockDocumentService{docs: []domain.Document{
		{Path: "/corpus/a.txt", RelativePath: "a.txt", State: domain.StateIndexed, ExtractedText: "text"},
	}}
	defer func() { documentService = oldService }()

	out, err := runDocumentsCommand(t, "get", "/corpus/a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "State: indexed") {
		t.Errorf("expected state, got %q", out)
	}
}

func TestDocumentsGet_NotFound(t *testing.T) {
	oldService := documentService
	documentService = &mockDocumentService{}
	defer func() { documentService = oldService }()

	_, err := runDocumentsCommand(t, "get", "/missing")
	if err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestDocumentsExtractions(t *testing.T) {
	oldService := documentService
	documentService = &mockDocumentService{recs: []domain.ExtractionRecord{
		{ID: "e1", SourcePath: "/corpus/a.txt", Entities: []domain.Entity{{}}},
	}}
	defer func() { documentService = oldService }()

	out, err := runDocumentsCommand(t, "extractions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "e1") {
		t.Errorf("expected record ID, got %q", out)
	}
	if !strings.Contains(out, "Total: 1 extractions") {
		t.Errorf("expected total, got %q", out)
	}
}

func TestDocuments_ServiceError(t *testing.T) {
	oldService := documentService
	documentService = &mockDocumentService{err: errors.New("storage offline")}
	defer func() { documentService = oldService }()

	_, err := runDocumentsCommand(t, "list")
	if err == nil {
		t.Fatal("expected error when the service fails")
	}
	if !strings.Contains(err.Error(), "storage offline") {
		t.Errorf("expected wrapped cause, got %q", err.Error())
	}
}

func TestDocuments_NotConfigured(t *testing.T) {
	oldService := documentService
	documentService = nil
	defer func() { documentService = oldService }()

	_, err := runDocumentsCommand(t, "list")
	if err == nil {
		t.Fatal("expected error when service is not configured")
	}
}
