package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/reportex-cli/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// ContextSeparator joins retrieved chunk texts into the model context,
// in query order.
const ContextSeparator = " | "

// Default retry policy for transient provider failures.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
)

// ExtractionService runs retrieval-augmented structured extraction:
// issue the retrieval queries, build a schema-constrained prompt from
// the retrieved context, call the completion provider and validate the
// structured result.
type ExtractionService struct {
	index      driven.RetrievalIndex
	completer  driven.CompletionService
	store      driven.DocumentStore
	maxRetries int
	backoff    time.Duration
}

// ExtractOption configures the extraction service.
type ExtractOption func(*ExtractionService)

// WithMaxRetries bounds retries of transient provider failures.
func WithMaxRetries(n int) ExtractOption {
	return func(s *ExtractionService) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithInitialBackoff sets the first retry delay. Each subsequent retry
// doubles it.
func WithInitialBackoff(d time.Duration) ExtractOption {
	return func(s *ExtractionService) {
		if d > 0 {
			s.backoff = d
		}
	}
}

// NewExtractionService creates an extraction orchestrator. The store
// is optional; when nil, records are returned but not persisted.
func NewExtractionService(
	index driven.RetrievalIndex,
	completer driven.CompletionService,
	store driven.DocumentStore,
	opts ...ExtractOption,
) *ExtractionService {
	s := &ExtractionService{
		index:      index,
		completer:  completer,
		store:      store,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract runs one extraction request end to end.
func (s *ExtractionService) Extract(
	ctx context.Context, req driving.ExtractRequest,
) (*domain.ExtractionRecord, error) {
	if len(req.Queries) == 0 {
		return nil, fmt.Errorf("%w: at least one query is required", domain.ErrInvalidInput)
	}
	if len(req.Schema) == 0 {
		return nil, fmt.Errorf("%w: schema must declare at least one field", domain.ErrInvalidInput)
	}
	k := req.KPerQuery
	if k <= 0 {
		k = 1
	}

	logger.Section("Extraction")
	logger.Debug("Queries: %d, k per query: %d, fields: %v", len(req.Queries), k, req.Schema.FieldNames())

	s.markState(ctx, req.SourcePath, domain.StateExtractionRequested)

	contextText, err := s.retrieveContext(ctx, req.Queries, k, req.Filter)
	if err != nil {
		s.markState(ctx, req.SourcePath, domain.StateExtractionFailed)
		return nil, err
	}
	logger.Debug("Context length: %d characters", len(contextText))

	messages := []driven.ChatMessage{
		{Role: "system", Content: buildSystemPrompt(req.SystemPrompt, req.Schema)},
		{Role: "user", Content: contextText},
	}
	opts := driven.CompletionOptions{
		Temperature:    0,
		ResponseSchema: responseSchema(req.Schema),
	}

	payload, err := s.completeWithRetry(ctx, messages, opts)
	if err != nil {
		s.markState(ctx, req.SourcePath, domain.StateExtractionFailed)
		return nil, err
	}

	entities, err := decodeEntities(payload, req.Schema)
	if err != nil {
		s.markState(ctx, req.SourcePath, domain.StateExtractionFailed)
		return nil, err
	}

	rec := &domain.ExtractionRecord{
		ID:         uuid.New().String(),
		SourcePath: req.SourcePath,
		Queries:    append([]string(nil), req.Queries...),
		Context:    contextText,
		Entities:   entities,
		CreatedAt:  time.Now(),
	}

	if s.store != nil {
		if err := s.store.SaveExtraction(ctx, rec); err != nil {
			return nil, fmt.Errorf("save extraction: %w", err)
		}
	}
	s.markState(ctx, req.SourcePath, domain.StateCompleted)

	logger.Info("Extraction complete: %d entities", len(rec.Entities))
	return rec, nil
}

// retrieveContext runs the queries concurrently and joins the top-k
// texts in query order, regardless of which call finishes first.
func (s *ExtractionService) retrieveContext(
	ctx context.Context, queries []string, k int, filter domain.Filter,
) (string, error) {
	results := make([]domain.RetrievalResult, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			res, err := s.index.Query(ctx, q, k, filter)
			if err != nil {
				errs[i] = fmt.Errorf("query %d %q: %w", i, q, err)
				return
			}
			results[i] = res
		}(i, q)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return "", err
	}

	var parts []string
	for _, res := range results {
		for _, hit := range res {
			parts = append(parts, hit.Text)
		}
	}
	if len(parts) == 0 {
		// Recoverable: the caller may relax the filter and retry.
		return "", domain.ErrEmptyContext
	}
	return strings.Join(parts, ContextSeparator), nil
}

// completeWithRetry calls the provider, retrying transient failures
// with doubling backoff. Schema violations and other non-transient
// errors surface immediately. Backoff sleeps on this call's own timer
// so one document's delay never blocks another's extraction.
func (s *ExtractionService) completeWithRetry(
	ctx context.Context, messages []driven.ChatMessage, opts driven.CompletionOptions,
) ([]byte, error) {
	delay := s.backoff
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("Retrying completion (attempt %d) after %s", attempt, delay)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}

		payload, err := s.completer.Complete(ctx, messages, opts)
		if err == nil {
			return payload, nil
		}
		if !transient(err) {
			return nil, fmt.Errorf("complete: %w", err)
		}
		lastErr = err
		logger.Warn("Transient provider failure: %v", err)
	}

	return nil, fmt.Errorf("%w: %d attempts: %w", domain.ErrProviderUnavailable, s.maxRetries+1, lastErr)
}

// transient reports whether a provider error is worth retrying:
// rate limits, server-side outages and timeouts. Contract violations
// never are.
func transient(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrProviderUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// markState advances the document's pipeline state when the request
// targets a stored document and the transition is legal. Best effort:
// extraction results do not depend on state bookkeeping.
func (s *ExtractionService) markState(ctx context.Context, path string, to domain.DocumentState) {
	if s.store == nil || path == "" {
		return
	}
	doc, err := s.store.GetDocument(ctx, path)
	if err != nil {
		return
	}
	if !doc.State.CanTransition(to) {
		return
	}
	doc.State = to
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		logger.Warn("State update failed for %s: %v", path, err)
	}
}

// buildSystemPrompt appends the declared extraction fields to the
// caller's instruction, one line per field.
func buildSystemPrompt(base string, schema domain.Schema) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	b.WriteString("\n\n**Extraction Fields:**\n")
	for _, name := range schema.FieldNames() {
		spec := schema[name]
		fmt.Fprintf(&b, "* `%s`: %s\n", name, spec.Description)
	}
	return b.String()
}

// responseSchema builds the JSON-schema map constraining the model
// output: an object with a document_entities array whose items carry
// exactly the declared fields, each a number or null.
func responseSchema(schema domain.Schema) map[string]any {
	props := make(map[string]any, len(schema))
	for name, spec := range schema {
		typ := spec.Type
		if typ == "" {
			typ = "number"
		}
		props[name] = map[string]any{
			"type":        []string{typ, "null"},
			"description": spec.Description,
		}
	}

	entity := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             schema.FieldNames(),
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"document_entities": map[string]any{
				"type":  "array",
				"items": entity,
			},
		},
		"required": []string{"document_entities"},
	}
}

// decodeEntities validates the raw payload against the declared schema
// and decodes it into entities. A missing key is a schema violation
// even though an explicit null is fine; unknown keys are violations.
func decodeEntities(payload []byte, schema domain.Schema) ([]domain.Entity, error) {
	if err := validateAgainstSchema(responseSchema(schema), payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err)
	}

	var decoded struct {
		DocumentEntities []map[string]*float64 `json:"document_entities"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", domain.ErrSchemaViolation, err)
	}

	entities := make([]domain.Entity, 0, len(decoded.DocumentEntities))
	for _, raw := range decoded.DocumentEntities {
		entity := make(domain.Entity, len(schema))
		for _, name := range schema.FieldNames() {
			entity[name] = raw[name]
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
