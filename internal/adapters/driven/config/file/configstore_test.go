package file

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfigStore(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")
		store, err := NewConfigStore(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.Path() != filepath.Join(dir, "config.toml") {
			t.Errorf("unexpected path: %s", store.Path())
		}
	})

	t.Run("starts empty without a file", func(t *testing.T) {
		store, err := NewConfigStore(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := store.Get("anything"); ok {
			t.Error("expected no values in fresh store")
		}
	})
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Set("embedding.provider", "ollama"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got := store.GetString("embedding.provider"); got != "ollama" {
		t.Errorf("expected 'ollama', got %q", got)
	}

	if err := store.Set("ingest.concurrency", 8); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got := store.GetInt("ingest.concurrency"); got != 8 {
		t.Errorf("expected 8, got %d", got)
	}

	if err := store.Set("index.enabled", true); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !store.GetBool("index.enabled") {
		t.Error("expected true")
	}

	if err := store.Set("completion.temperature", 0.5); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got := store.GetFloat("completion.temperature"); got != 0.5 {
		t.Errorf("expected 0.5, got %g", got)
	}
}

func TestConfigStore_TypeMismatches(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Set("key", "a string"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if got := store.GetInt("key"); got != 0 {
		t.Errorf("expected 0 for non-int, got %d", got)
	}
	if got := store.GetFloat("key"); got != 0 {
		t.Errorf("expected 0 for non-float, got %g", got)
	}
	if store.GetBool("key") {
		t.Error("expected false for non-bool")
	}
	if got := store.GetString("missing"); got != "" {
		t.Errorf("expected empty string for missing key, got %q", got)
	}
}

func TestConfigStore_PersistsAcrossLoads(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Set("completion.model", "gpt-4o-mini"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	reloaded, err := NewConfigStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := reloaded.GetString("completion.model"); got != "gpt-4o-mini" {
		t.Errorf("expected persisted value, got %q", got)
	}
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := "[embedding]\nprovider = \"openai\"\nmodel = \"text-embedding-3-small\"\n\n[index]\nbackend = \"qdrant\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	store, err := NewConfigStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.GetString("embedding.provider"); got != "openai" {
		t.Errorf("expected 'openai', got %q", got)
	}
	if got := store.GetString("index.backend"); got != "qdrant" {
		t.Errorf("expected 'qdrant', got %q", got)
	}
}
