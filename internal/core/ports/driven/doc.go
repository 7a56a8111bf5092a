// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentParser: Extracts raw text from source files (black box)
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - RetrievalIndex: Indexes chunks and answers ranked, filterable queries
//   - CompletionService: Schema-constrained language model completion
//   - DocumentStore: Document, chunk and extraction-record persistence
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
