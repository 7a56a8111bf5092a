package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidParameter indicates chunking parameters are out of range
	// (non-positive size, negative overlap, or overlap >= size).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrParse indicates a document was unreadable or unsupported.
	// Recorded per document; never fatal to a batch.
	ErrParse = errors.New("parse failed")

	// ErrIndexing indicates the embedding or index backend failed for a
	// record. Per-record recoverable; the batch continues and failures
	// are enumerated in the summary.
	ErrIndexing = errors.New("indexing failed")

	// ErrEmptyContext indicates every retrieval query returned zero
	// results. Recoverable: callers may relax the filter and retry.
	ErrEmptyContext = errors.New("empty retrieval context")

	// ErrSchemaViolation indicates the completion provider returned a
	// payload that does not match the declared schema. Never retried.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrRateLimited indicates a provider rate limit was exceeded.
	// Transient; retried with backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates a server-side provider failure
	// (5xx). Transient; retried with backoff, and wrapping the final
	// error once retries are exhausted.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
