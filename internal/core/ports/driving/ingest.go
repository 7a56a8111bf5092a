package driving

import "context"

// IngestOrchestrator coordinates the ingestion pipeline for a corpus:
// parse, chunk, index, with per-document state tracking.
type IngestOrchestrator interface {
	// Ingest runs ingestion for every file under the corpus directory.
	// Per-document failures never abort the batch; they are recorded
	// and counted in the summary.
	Ingest(ctx context.Context, corpusDir string, opts IngestOptions) (*IngestSummary, error)
}

// IngestOptions configures an ingestion run.
type IngestOptions struct {
	// Force re-processes documents that already completed.
	// Without it, re-running over a completed document is a no-op.
	Force bool
}

// IngestSummary reports the outcome of an ingestion run.
type IngestSummary struct {
	// Ingested is the number of files picked up from the corpus.
	Ingested int

	// Errored is the number of documents whose text extraction failed.
	Errored int

	// Skipped is the number of already-completed documents left alone.
	Skipped int

	// Chunked is the number of documents successfully chunked.
	Chunked int

	// IndexedChunks is the number of chunk records now in the index.
	IndexedChunks int

	// IndexFailures correlates indexing failures to chunk identifiers.
	IndexFailures map[string]string
}
