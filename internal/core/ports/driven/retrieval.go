package driven

import (
	"context"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
)

// IndexRecord is one chunk plus its filterable attributes, submitted
// for indexing.
type IndexRecord struct {
	// ID identifies the record for failure reporting.
	ID string

	// Text is the chunk content to embed and index.
	Text string

	// Attributes are exact-match filterable key-value pairs.
	Attributes map[string]string
}

// IndexReport enumerates the outcome of an Index call. Indexing is
// partial-failure tolerant: a record the embedding provider rejected
// does not abort the batch.
type IndexReport struct {
	// Indexed is the number of records now in the index.
	Indexed int

	// Failed lists the IDs of records that could not be indexed,
	// paired with their errors.
	Failed []RecordFailure
}

// RecordFailure correlates an indexing failure to the record it
// originated from.
type RecordFailure struct {
	ID  string
	Err error
}

// RetrievalIndex owns the indexing and querying contract over an
// external embedding/similarity provider.
//
// Consistency: query results may lag the latest Index call by a
// bounded, configurable interval (the target lag). This is a
// documented relaxation, not a bug.
type RetrievalIndex interface {
	// Index replaces the logical service's contents with the given
	// records (idempotent re-index). Replacement is serialised against
	// concurrent Index calls; queries are read-only and never block.
	Index(ctx context.Context, records []IndexRecord) (*IndexReport, error)

	// Query ranks candidates by similarity to text, applies the filter
	// before truncating to k, and returns at most k hits sorted by
	// decreasing score with stable ties. A filter matching nothing
	// yields an empty result, not an error.
	Query(ctx context.Context, text string, k int, filter domain.Filter) (domain.RetrievalResult, error)

	// Close releases resources.
	Close() error
}
