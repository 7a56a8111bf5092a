// Package domain defines the core business entities for reportex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A parsed report document with extraction metadata
//   - Chunk: A bounded, overlapping segment of a document's text
//   - RetrievalResult: Ranked chunk hits returned from the retrieval index
//   - ExtractionRecord: Structured numeric facts extracted from retrieved context
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
