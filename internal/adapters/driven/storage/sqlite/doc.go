// Package sqlite provides persistent tabular storage for documents,
// chunks and extraction records, backed by a single SQLite database
// with embedded schema migrations.
package sqlite
