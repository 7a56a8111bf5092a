package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/reportex-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/reportex-cli/internal/core/domain"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is a SQLite-backed DocumentStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.reportex/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".reportex", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "reportex.db")

	// WAL mode for concurrent readers during ingest. Foreign keys are
	// per-connection state, so they go in the DSN rather than a one-off
	// Exec that only reaches a single pooled connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument stores or replaces a document keyed by path.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (path, relative_path, extracted_text, error_info, metadata, state, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			relative_path = excluded.relative_path,
			extracted_text = excluded.extracted_text,
			error_info = excluded.error_info,
			metadata = excluded.metadata,
			state = excluded.state,
			processed_at = excluded.processed_at
	`, doc.Path, doc.RelativePath, doc.ExtractedText, doc.ErrorInfo,
		string(metaJSON), string(doc.State), doc.ProcessedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by source path.
func (s *Store) GetDocument(ctx context.Context, path string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, relative_path, extracted_text, error_info, metadata, state, processed_at
		FROM documents WHERE path = ?
	`, path)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns all stored documents ordered by relative path.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, relative_path, extracted_text, error_info, metadata, state, processed_at
		FROM documents ORDER BY relative_path
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// scannable covers sql.Row and sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*domain.Document, error) {
	var doc domain.Document
	var metaJSON, state string
	if err := row.Scan(&doc.Path, &doc.RelativePath, &doc.ExtractedText,
		&doc.ErrorInfo, &metaJSON, &state, &doc.ProcessedAt); err != nil {
		return nil, err
	}
	doc.State = domain.DocumentState(state)
	if metaJSON != "" && metaJSON != "null" {
		if err := json.Unmarshal([]byte(metaJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	return &doc, nil
}

// SaveChunks replaces the stored chunks for a document. All chunks in
// one call must belong to the same document.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sourcePath := chunks[0].SourcePath
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE source_path = ?", sourcePath); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	for _, c := range chunks {
		if c.SourcePath != sourcePath {
			return fmt.Errorf("%w: chunks span multiple documents", domain.ErrInvalidInput)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, source_path, relative_path, text, sequence_index, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, c.SourcePath, c.RelativePath, c.Text, c.SequenceIndex, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// GetChunks retrieves a document's chunks ordered by sequence index.
func (s *Store) GetChunks(ctx context.Context, sourcePath string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_path, relative_path, text, sequence_index, created_at
		FROM chunks WHERE source_path = ? ORDER BY sequence_index
	`, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.SourcePath, &c.RelativePath,
			&c.Text, &c.SequenceIndex, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// SaveExtraction appends an extraction record.
func (s *Store) SaveExtraction(ctx context.Context, rec *domain.ExtractionRecord) error {
	queriesJSON, err := json.Marshal(rec.Queries)
	if err != nil {
		return fmt.Errorf("marshalling queries: %w", err)
	}
	entitiesJSON, err := json.Marshal(rec.Entities)
	if err != nil {
		return fmt.Errorf("marshalling entities: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extractions (id, source_path, queries, context, entities, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.SourcePath, string(queriesJSON), rec.Context, string(entitiesJSON), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving extraction: %w", err)
	}
	return nil
}

// ListExtractions returns all extraction records, newest first.
func (s *Store) ListExtractions(ctx context.Context) ([]domain.ExtractionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_path, queries, context, entities, created_at
		FROM extractions ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	defer rows.Close()

	var recs []domain.ExtractionRecord
	for rows.Next() {
		var rec domain.ExtractionRecord
		var queriesJSON, entitiesJSON string
		if err := rows.Scan(&rec.ID, &rec.SourcePath, &queriesJSON,
			&rec.Context, &entitiesJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning extraction: %w", err)
		}
		if err := json.Unmarshal([]byte(queriesJSON), &rec.Queries); err != nil {
			return nil, fmt.Errorf("unmarshaling queries: %w", err)
		}
		if err := json.Unmarshal([]byte(entitiesJSON), &rec.Entities); err != nil {
			return nil, fmt.Errorf("unmarshaling entities: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
