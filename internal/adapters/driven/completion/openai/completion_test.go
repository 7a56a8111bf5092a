package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) (*CompletionService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewCompletionService(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc, srv
}

func TestNewCompletionService_RequiresAPIKey(t *testing.T) {
	if _, err := NewCompletionService(Config{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestComplete_RequestShape(t *testing.T) {
	var captured chatCompletionRequest

	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"document_entities":[]}`}},
			},
		})
	})

	payload, err := svc.Complete(context.Background(),
		[]driven.ChatMessage{
			{Role: "system", Content: "instructions"},
			{Role: "user", Content: "context"},
		},
		driven.CompletionOptions{
			Temperature:    0,
			ResponseSchema: map[string]any{"type": "object"},
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != `{"document_entities":[]}` {
		t.Errorf("unexpected payload %q", payload)
	}

	// Temperature zero must be sent, not dropped.
	if captured.Temperature == nil {
		t.Fatal("expected temperature in request")
	}
	if *captured.Temperature != 0 {
		t.Errorf("expected temperature 0, got %g", *captured.Temperature)
	}

	if captured.ResponseFormat == nil {
		t.Fatal("expected response_format in request")
	}
	if captured.ResponseFormat.Type != "json_schema" {
		t.Errorf("unexpected response format type %q", captured.ResponseFormat.Type)
	}
	if !captured.ResponseFormat.JSONSchema.Strict {
		t.Error("expected strict schema mode")
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("unexpected messages: %+v", captured.Messages)
	}
}

func TestComplete_RateLimited(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.Complete(context.Background(),
		[]driven.ChatMessage{{Role: "user", Content: "x"}},
		driven.CompletionOptions{})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestComplete_ServerError(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "overloaded", "type": "server_error"},
		})
	})

	_, err := svc.Complete(context.Background(),
		[]driven.ChatMessage{{Role: "user", Content: "x"}},
		driven.CompletionOptions{})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("expected status in error, got %q", err.Error())
	}
}

func TestComplete_APIError(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid schema", "type": "invalid_request_error"},
		})
	})

	_, err := svc.Complete(context.Background(),
		[]driven.ChatMessage{{Role: "user", Content: "x"}},
		driven.CompletionOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Error("API errors must not classify as rate limits")
	}
}

func TestComplete_NoChoices(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := svc.Complete(context.Background(),
		[]driven.ChatMessage{{Role: "user", Content: "x"}},
		driven.CompletionOptions{})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestPing(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := svc.Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
