// Package chunker splits document text into overlapping bounded-size chunks.
//
// Splitting is recursive: the text is divided on the coarsest separator
// first (paragraph break), and any segment still exceeding the chunk size
// is divided again with the next finer separator, down to hard character
// slicing. Adjacent segments are then merged greedily up to the chunk
// size, and a sliding window gives each chunk after the first an overlap
// with the tail of its predecessor.
package chunker

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// separators is the split priority order, coarsest first. A segment no
// separator can divide falls back to hard character slicing, which
// guarantees that splitting terminates.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Chunker splits document content into overlapping chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker with the given options. Parameters are
// validated when chunking runs, not here, so a misconfigured chunker
// surfaces domain.ErrInvalidParameter instead of being silently fixed.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits a document's extracted text into domain chunks with
// sequential indices.
func (c *Chunker) Chunk(doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	pieces, err := Split(doc.ExtractedText, c.chunkSize, c.overlap)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, text := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:            uuid.New().String(),
			SourcePath:    doc.Path,
			RelativePath:  doc.RelativePath,
			Text:          text,
			SequenceIndex: i,
			CreatedAt:     now,
		})
	}
	return chunks, nil
}

// Split divides text into chunks of at most size characters where each
// chunk after the first begins up to overlap characters before the end
// of its predecessor. Empty input yields an empty slice; chunks of only
// whitespace are never produced.
//
// Returns domain.ErrInvalidParameter when size <= 0, overlap < 0 or
// overlap >= size.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, domain.ErrInvalidParameter
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	// Collect separator boundaries from the recursive split. Hard
	// character cuts are not boundaries: they carry no meaning for
	// merge preference or overlap snapping.
	var bounds []int
	collectBoundaries(text, 0, len(text), size, 0, &bounds)

	var chunks []string
	start := 0
	for start < len(text) {
		end := chunkEnd(text, start, size, bounds)

		piece := text[start:end]
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}

		if end >= len(text) {
			break
		}

		next := overlapStart(end, overlap, bounds)
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// collectBoundaries recursively splits text[lo:hi] and records the
// offsets where a separator divided it. A segment already within size
// is atomic and needs no internal boundaries; an oversize segment the
// current separator cannot divide is retried with the next finer one.
// Separators stay attached to the segment on their left, so the
// boundary offsets partition the text without dropping characters.
func collectBoundaries(text string, lo, hi, size, sepIdx int, bounds *[]int) {
	if hi-lo <= size || sepIdx >= len(separators) {
		return
	}

	sep := separators[sepIdx]
	segStart := lo
	for segStart < hi {
		rel := strings.Index(text[segStart:hi], sep)
		if rel < 0 {
			break
		}
		cut := segStart + rel + len(sep)
		if cut < hi {
			*bounds = append(*bounds, cut)
		}
		segStart = cut
	}

	// Descend into segments that still exceed the chunk size with the
	// next finer separator.
	prev := lo
	for _, b := range segmentEnds(lo, hi, *bounds) {
		collectBoundaries(text, prev, b, size, sepIdx+1, bounds)
		prev = b
	}
}

// segmentEnds returns the boundary offsets strictly inside (lo, hi)
// plus hi itself, in ascending order.
func segmentEnds(lo, hi int, bounds []int) []int {
	var ends []int
	for _, b := range bounds {
		if b > lo && b < hi {
			ends = append(ends, b)
		}
	}
	ends = append(ends, hi)
	return ends
}

// chunkEnd finds where the chunk starting at start should end: the
// furthest separator boundary within reach (greedy merge), the end of
// the text, or a hard cut at exactly size characters.
func chunkEnd(text string, start, size int, bounds []int) int {
	limit := start + size
	if limit >= len(text) {
		return len(text)
	}

	end := -1
	for _, b := range bounds {
		if b > start && b <= limit && b > end {
			end = b
		}
	}
	if end < 0 {
		return limit
	}
	return end
}

// overlapStart computes where the next chunk begins: overlap characters
// before end, snapped forward to the nearest separator boundary when
// one falls inside the overlap tail. Snapping forward keeps the actual
// overlap at or below the configured value.
func overlapStart(end, overlap int, bounds []int) int {
	raw := end - overlap
	best := -1
	for _, b := range bounds {
		if b >= raw && b < end && (best < 0 || b < best) {
			best = b
		}
	}
	if best >= 0 {
		return best
	}
	if raw < 0 {
		return 0
	}
	return raw
}
