package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/reportex-cli/internal/chunker"
	"github.com/custodia-labs/reportex-cli/internal/core/domain"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/reportex-cli/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.IngestOrchestrator = (*IngestOrchestrator)(nil)

// DefaultConcurrency bounds the parse/chunk worker pool.
const DefaultConcurrency = 4

// AttrRelativePath is the chunk attribute carrying the corpus-relative
// path, used for equality filtering at query time.
const AttrRelativePath = "relative_path"

// IngestOrchestrator coordinates the ingestion pipeline: parse each
// corpus file, chunk its text, and index all chunks in one batch.
type IngestOrchestrator struct {
	parser      driven.DocumentParser
	chunker     *chunker.Chunker
	index       driven.RetrievalIndex
	store       driven.DocumentStore
	concurrency int
}

// IngestOption configures the orchestrator.
type IngestOption func(*IngestOrchestrator)

// WithConcurrency bounds the number of documents parsed and chunked in
// parallel. Indexing remains a single batched call.
func WithConcurrency(n int) IngestOption {
	return func(o *IngestOrchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// NewIngestOrchestrator creates an ingestion coordinator.
func NewIngestOrchestrator(
	parser driven.DocumentParser,
	ch *chunker.Chunker,
	index driven.RetrievalIndex,
	store driven.DocumentStore,
	opts ...IngestOption,
) *IngestOrchestrator {
	o := &IngestOrchestrator{
		parser:      parser,
		chunker:     ch,
		index:       index,
		store:       store,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// docOutcome carries one document's pipeline result out of the worker pool.
type docOutcome struct {
	doc    *domain.Document
	chunks []domain.Chunk
	fatal  error
}

// Ingest runs the pipeline over every regular file under corpusDir.
// Parse failures are recorded per document and never abort the batch.
// All chunks are submitted in a single Index call (the indexing
// barrier) so no query can run against a partially replaced index.
func (o *IngestOrchestrator) Ingest(
	ctx context.Context, corpusDir string, opts driving.IngestOptions,
) (*driving.IngestSummary, error) {
	logger.Section("Ingest")
	logger.Debug("Corpus: %s, force=%t", corpusDir, opts.Force)

	paths, err := listCorpusFiles(corpusDir)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	logger.Info("Found %d files", len(paths))

	summary := &driving.IngestSummary{IndexFailures: make(map[string]string)}

	// Partition into fresh work and already-completed documents.
	// Completed documents are skipped but their stored chunks must
	// still be resubmitted: Index replaces the whole corpus.
	var work []string
	var keepChunks []domain.Chunk
	for _, path := range paths {
		if !opts.Force {
			existing, err := o.store.GetDocument(ctx, path)
			if err == nil && existing.State == domain.StateCompleted {
				stored, err := o.store.GetChunks(ctx, path)
				if err != nil {
					return nil, fmt.Errorf("load chunks for %s: %w", path, err)
				}
				keepChunks = append(keepChunks, stored...)
				summary.Skipped++
				logger.Debug("Skipping completed document: %s", path)
				continue
			}
		}
		work = append(work, path)
	}
	summary.Ingested = len(work)

	outcomes, err := o.runWorkers(ctx, corpusDir, work)
	if err != nil {
		return nil, err
	}

	var records []driven.IndexRecord
	var indexedDocs []*domain.Document

	for _, out := range outcomes {
		if out.fatal != nil {
			return nil, out.fatal
		}
		if err := o.store.SaveDocument(ctx, out.doc); err != nil {
			return nil, fmt.Errorf("save document %s: %w", out.doc.Path, err)
		}
		if out.doc.State == domain.StateErrorDuringExtraction {
			summary.Errored++
			continue
		}
		if err := o.store.SaveChunks(ctx, out.chunks); err != nil {
			return nil, fmt.Errorf("save chunks for %s: %w", out.doc.Path, err)
		}
		summary.Chunked++
		indexedDocs = append(indexedDocs, out.doc)
		records = append(records, chunkRecords(out.chunks)...)
	}
	records = append(records, chunkRecords(keepChunks)...)

	// Indexing barrier: one batched replace before any query runs.
	report, err := o.index.Index(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("index corpus: %w", err)
	}
	summary.IndexedChunks = report.Indexed
	for _, f := range report.Failed {
		summary.IndexFailures[f.ID] = f.Err.Error()
	}

	for _, doc := range indexedDocs {
		doc.State = domain.StateIndexed
		if err := o.store.SaveDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("save document %s: %w", doc.Path, err)
		}
	}

	logger.Info("Ingest complete: %d ingested, %d errored, %d skipped, %d chunks indexed, %d index failures",
		summary.Ingested, summary.Errored, summary.Skipped, summary.IndexedChunks, len(summary.IndexFailures))
	return summary, nil
}

// runWorkers parses and chunks documents on a bounded worker pool.
// Results come back in file order regardless of completion order.
func (o *IngestOrchestrator) runWorkers(
	ctx context.Context, corpusDir string, paths []string,
) ([]docOutcome, error) {
	outcomes := make([]docOutcome, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = o.processOne(ctx, corpusDir, paths[i])
			}
		}()
	}

	for i := range paths {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes, nil
}

// processOne walks a single document through parse and chunk.
func (o *IngestOrchestrator) processOne(ctx context.Context, corpusDir, path string) docOutcome {
	rel, err := filepath.Rel(corpusDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	doc := &domain.Document{
		Path:         path,
		RelativePath: rel,
		State:        domain.StateIngested,
		ProcessedAt:  time.Now(),
	}

	logger.Debug("Parsing: %s", rel)
	result, err := o.parser.Parse(ctx, path)
	switch {
	case err != nil:
		// Infrastructure-level parse failure; recorded per document,
		// never fatal to the batch.
		doc.ErrorInfo = err.Error()
	case result.ErrorInfo != "":
		doc.ErrorInfo = result.ErrorInfo
		doc.Metadata = result.Metadata
	default:
		doc.ExtractedText = result.Text
		doc.Metadata = result.Metadata
	}

	if doc.Failed() {
		doc.State = domain.StateErrorDuringExtraction
		logger.Warn("Extraction failed for %s: %s", rel, doc.ErrorInfo)
		return docOutcome{doc: doc}
	}
	doc.State = domain.StateTextExtracted

	chunks, err := o.chunker.Chunk(doc)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidParameter) {
			// Misconfiguration, not a document problem: abort the run.
			return docOutcome{fatal: fmt.Errorf("chunk %s: %w", rel, err)}
		}
		doc.State = domain.StateErrorDuringExtraction
		doc.ErrorInfo = err.Error()
		return docOutcome{doc: doc}
	}

	doc.State = domain.StateChunked
	logger.Debug("Chunked %s into %d chunks", rel, len(chunks))
	return docOutcome{doc: doc, chunks: chunks}
}

// chunkRecords converts chunks to index records with their filterable
// attributes.
func chunkRecords(chunks []domain.Chunk) []driven.IndexRecord {
	records := make([]driven.IndexRecord, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, driven.IndexRecord{
			ID:   c.ID,
			Text: c.Text,
			Attributes: map[string]string{
				AttrRelativePath: c.RelativePath,
			},
		})
	}
	return records
}

// listCorpusFiles returns the regular files under dir, sorted by walk
// order. Hidden files and directories are skipped.
func listCorpusFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			// The root itself is never skipped, whatever its name.
			if path != dir && len(name) > 0 && name[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if len(name) > 0 && name[0] == '.' {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
