package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewEmbeddingService(Config{BaseURL: srv.URL})
}

func TestEmbed(t *testing.T) {
	var captured embedRequest

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.5, 0.6}})
	})

	vec, err := svc.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("expected 2-dim vector, got %v", vec)
	}
	if captured.Model != DefaultModel || captured.Prompt != "hello" {
		t.Errorf("unexpected request: %+v", captured)
	}
}

func TestEmbed_EmptyEmbedding(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{}})
	})

	if _, err := svc.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}

func TestEmbed_ServerError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := svc.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error for server failure")
	}
}

func TestEmbedBatch_Sequential(t *testing.T) {
	var prompts []string

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		prompts = append(prompts, req.Prompt)
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1}})
	})

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(embeddings))
	}
	if len(prompts) != 3 || prompts[0] != "a" || prompts[2] != "c" {
		t.Errorf("expected one request per text in order, got %v", prompts)
	}
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := svc.Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	if svc.ModelName() != DefaultModel {
		t.Errorf("unexpected model %q", svc.ModelName())
	}
	if svc.Dimensions() != DefaultDimensions {
		t.Errorf("unexpected dimensions %d", svc.Dimensions())
	}
}
