// Package qdrant provides a retrieval index backed by a Qdrant server
// over its REST API. Filtering and truncation happen server-side;
// cosine distance is configured at collection creation.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.RetrievalIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// Config holds configuration for the Qdrant index.
type Config struct {
	// BaseURL is the Qdrant REST endpoint (default: http://localhost:6333).
	BaseURL string

	// APIKey authenticates requests. Optional for local servers.
	APIKey string

	// Collection is the logical service name.
	Collection string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Index is a Qdrant-backed retrieval index.
type Index struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
	embedder   driven.EmbeddingService

	writeMu sync.Mutex
}

// New creates a Qdrant index backed by the given embedding service.
func New(embedder driven.EmbeddingService, cfg Config) (*Index, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
	}, nil
}

// Index recreates the collection and upserts the given records.
// Embedding failures are per-record: the batch continues and failures
// are enumerated in the report.
func (x *Index) Index(ctx context.Context, records []driven.IndexRecord) (*driven.IndexReport, error) {
	if x.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	if err := x.recreateCollection(ctx); err != nil {
		return nil, fmt.Errorf("recreate collection: %w", err)
	}

	report := &driven.IndexReport{}
	type point struct {
		rec driven.IndexRecord
		vec []float32
	}
	points := make([]point, 0, len(records))

	for _, rec := range records {
		vec, err := x.embedder.Embed(ctx, rec.Text)
		if err != nil {
			report.Failed = append(report.Failed, driven.RecordFailure{
				ID:  rec.ID,
				Err: fmt.Errorf("%w: embed record %s: %w", domain.ErrIndexing, rec.ID, err),
			})
			continue
		}
		points = append(points, point{rec: rec, vec: vec})
	}

	if len(points) > 0 {
		payload := make([]map[string]any, 0, len(points))
		for _, p := range points {
			payload = append(payload, map[string]any{
				"id":     p.rec.ID,
				"vector": p.vec,
				"payload": map[string]any{
					"text":  p.rec.Text,
					"attrs": p.rec.Attributes,
				},
			})
		}
		url := fmt.Sprintf("%s/collections/%s/points?wait=true", x.baseURL, x.collection)
		if err := x.putJSON(ctx, url, map[string]any{"points": payload}); err != nil {
			return nil, fmt.Errorf("upsert points: %w", err)
		}
	}

	report.Indexed = len(points)
	return report, nil
}

// Query embeds the query text and searches the collection. The filter
// is translated to a Qdrant must-clause so it applies before the limit.
func (x *Index) Query(
	ctx context.Context, text string, k int, filter domain.Filter,
) (domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}
	if x.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	req := map[string]any{
		"vector":       vec,
		"limit":        k,
		"with_payload": true,
	}
	if filter != nil {
		must, err := filterClauses(filter)
		if err != nil {
			return nil, err
		}
		if len(must) > 0 {
			req["filter"] = map[string]any{"must": must}
		}
	}

	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				Text  string            `json:"text"`
				Attrs map[string]string `json:"attrs"`
			} `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", x.baseURL, x.collection)
	if err := x.postJSON(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	result := make(domain.RetrievalResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		result = append(result, domain.RetrievedChunk{
			Text:       r.Payload.Text,
			Attributes: r.Payload.Attrs,
			Score:      r.Score,
		})
	}
	return result, nil
}

// Close releases resources.
func (x *Index) Close() error {
	x.client.CloseIdleConnections()
	return nil
}

// filterClauses translates the domain filter expression into Qdrant
// match conditions. Only equality and conjunction are expressible.
func filterClauses(filter domain.Filter) ([]map[string]any, error) {
	switch f := filter.(type) {
	case domain.Eq:
		return []map[string]any{{
			"key":   "attrs." + f.Key,
			"match": map[string]any{"value": f.Value},
		}}, nil
	case domain.And:
		var clauses []map[string]any
		for _, sub := range f {
			c, err := filterClauses(sub)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c...)
		}
		return clauses, nil
	default:
		return nil, fmt.Errorf("%w: unsupported filter %T", domain.ErrInvalidInput, filter)
	}
}

// recreateCollection drops and recreates the collection so an Index
// call replaces prior contents.
func (x *Index) recreateCollection(ctx context.Context) error {
	url := fmt.Sprintf("%s/collections/%s", x.baseURL, x.collection)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	x.setHeaders(req)
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	body := map[string]any{
		"vectors": map[string]any{
			"size":     x.embedder.Dimensions(),
			"distance": "Cosine",
		},
	}
	return x.putJSON(ctx, url, body)
}

func (x *Index) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
}

func (x *Index) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	x.setHeaders(req)
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (x *Index) postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	x.setHeaders(req)
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
