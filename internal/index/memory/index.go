// Package memory provides an in-process retrieval index over an
// external embedding service.
//
// Contents are held in immutable snapshots swapped atomically: Index
// calls are serialised (single writer) while queries read the current
// snapshot without locking. A query that races a replace sees the
// previous snapshot, which is within the index's target-lag contract.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportex-cli/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.RetrievalIndex = (*Index)(nil)

// DefaultTargetLag bounds how far query results may trail the latest
// Index call. This adapter publishes synchronously, so the effective
// lag is zero; the bound is still part of the contract surface.
const DefaultTargetLag = time.Minute

// Config holds configuration for the in-memory index.
type Config struct {
	// TargetLag is the maximum acceptable staleness between an Index
	// call returning and its contents becoming visible to queries.
	TargetLag time.Duration
}

// entry is one indexed chunk with its embedding.
type entry struct {
	id     string
	text   string
	attrs  map[string]string
	vector []float32
}

// snapshot is an immutable published generation of the index.
type snapshot struct {
	entries []entry
}

// Index is an in-memory retrieval index.
type Index struct {
	embedder  driven.EmbeddingService
	targetLag time.Duration

	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
}

// New creates an in-memory index backed by the given embedding service.
func New(embedder driven.EmbeddingService, cfg Config) *Index {
	if cfg.TargetLag <= 0 {
		cfg.TargetLag = DefaultTargetLag
	}
	idx := &Index{
		embedder:  embedder,
		targetLag: cfg.TargetLag,
	}
	idx.current.Store(&snapshot{})
	return idx
}

// TargetLag returns the configured staleness bound.
func (idx *Index) TargetLag() time.Duration {
	return idx.targetLag
}

// Index replaces the index contents with the given records. Records
// whose embedding fails are skipped and enumerated in the report; the
// rest of the batch is still indexed and published.
func (idx *Index) Index(ctx context.Context, records []driven.IndexRecord) (*driven.IndexReport, error) {
	if idx.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	logger.Section("Index Replace")
	logger.Debug("Records submitted: %d", len(records))

	report := &driven.IndexReport{}
	entries := make([]entry, 0, len(records))

	for _, rec := range records {
		vec, err := idx.embedder.Embed(ctx, rec.Text)
		if err != nil {
			report.Failed = append(report.Failed, driven.RecordFailure{
				ID:  rec.ID,
				Err: fmt.Errorf("%w: embed record %s: %w", domain.ErrIndexing, rec.ID, err),
			})
			logger.Warn("Embedding failed for %s: %v", rec.ID, err)
			continue
		}
		if len(vec) == 0 {
			report.Failed = append(report.Failed, driven.RecordFailure{
				ID:  rec.ID,
				Err: fmt.Errorf("%w: empty embedding for record %s", domain.ErrIndexing, rec.ID),
			})
			continue
		}
		entries = append(entries, entry{
			id:     rec.ID,
			text:   rec.Text,
			attrs:  rec.Attributes,
			vector: vec,
		})
	}

	idx.current.Store(&snapshot{entries: entries})
	report.Indexed = len(entries)

	logger.Info("Index published: %d entries, %d failures", report.Indexed, len(report.Failed))
	return report, nil
}

// Query embeds the query text, ranks the current snapshot by cosine
// similarity, applies the filter before truncating to k, and returns
// at most k hits sorted by decreasing score with ties kept in
// insertion order.
func (idx *Index) Query(
	ctx context.Context, text string, k int, filter domain.Filter,
) (domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}
	if idx.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	queryVec, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	snap := idx.current.Load()

	type scored struct {
		entry entry
		score float64
	}
	candidates := make([]scored, 0, len(snap.entries))
	for _, e := range snap.entries {
		if filter != nil && !filter.Matches(e.attrs) {
			continue
		}
		candidates = append(candidates, scored{entry: e, score: cosine(queryVec, e.vector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	result := make(domain.RetrievalResult, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, domain.RetrievedChunk{
			Text:       c.entry.text,
			Attributes: c.entry.attrs,
			Score:      c.score,
		})
	}
	return result, nil
}

// Close releases resources. The in-memory index holds none.
func (idx *Index) Close() error {
	return nil
}

// cosine computes cosine similarity between two vectors. Mismatched
// lengths or zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
