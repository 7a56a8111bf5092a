package driving

import (
	"context"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
)

// ExtractionService runs retrieval-augmented structured extraction.
type ExtractionService interface {
	// Extract issues the retrieval queries, builds a prompt from the
	// retrieved context, invokes the completion provider and validates
	// the structured result against the declared schema.
	Extract(ctx context.Context, req ExtractRequest) (*domain.ExtractionRecord, error)
}

// ExtractRequest describes one extraction task.
type ExtractRequest struct {
	// Queries are issued in order; retrieved context is concatenated
	// in the same order regardless of completion order.
	Queries []string

	// KPerQuery is how many hits each query contributes to the
	// context. Defaults to 1.
	KPerQuery int

	// Filter restricts retrieval to matching chunks. Optional.
	Filter domain.Filter

	// Schema declares the numeric fields to extract.
	Schema domain.Schema

	// SystemPrompt is the fixed instruction for the model.
	SystemPrompt string

	// SourcePath is recorded on the resulting record when the request
	// targets a single document. Informational.
	SourcePath string
}
