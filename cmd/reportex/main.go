// Command reportex runs the document ingestion and extraction pipeline.
package main

import (
	"fmt"
	"os"
	"time"

	completionopenai "github.com/custodia-labs/reportex-cli/internal/adapters/driven/completion/openai"
	configfile "github.com/custodia-labs/reportex-cli/internal/adapters/driven/config/file"
	embeddingollama "github.com/custodia-labs/reportex-cli/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/custodia-labs/reportex-cli/internal/adapters/driven/embedding/openai"
	parserlocal "github.com/custodia-labs/reportex-cli/internal/adapters/driven/parser/local"
	"github.com/custodia-labs/reportex-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/reportex-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/reportex-cli/internal/chunker"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportex-cli/internal/core/services"
	indexmemory "github.com/custodia-labs/reportex-cli/internal/index/memory"
	indexqdrant "github.com/custodia-labs/reportex-cli/internal/index/qdrant"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cfg, err := configfile.NewConfigStore(os.Getenv("REPORTEX_CONFIG_DIR"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer embedder.Close()

	index, err := buildIndex(cfg, embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer index.Close()

	completer, err := buildCompleter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer completer.Close()

	ch := chunker.New(
		chunkerOptions(cfg)...,
	)

	ingest := services.NewIngestOrchestrator(
		parserlocal.New(), ch, index, store,
		ingestOptions(cfg)...,
	)
	extract := services.NewExtractionService(index, completer, store)
	documents := services.NewDocumentService(store)

	cli.SetVersion(version)
	cli.SetIngestOrchestrator(ingest)
	cli.SetExtractionService(extract)
	cli.SetDocumentService(documents)
	cli.Execute()
}

// buildEmbedder selects the embedding provider from configuration.
// Defaults to Ollama, which needs no credentials.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	switch provider := cfg.GetString("embedding.provider"); provider {
	case "openai":
		apiKey := cfg.GetString("embedding.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.GetString("embedding.base_url"),
			Model:   cfg.GetString("embedding.model"),
		})
	case "", "ollama":
		return embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// buildIndex selects the retrieval index backend from configuration.
// Defaults to the in-process index.
func buildIndex(cfg driven.ConfigStore, embedder driven.EmbeddingService) (driven.RetrievalIndex, error) {
	switch backend := cfg.GetString("index.backend"); backend {
	case "qdrant":
		collection := cfg.GetString("index.collection")
		if collection == "" {
			collection = "reportex"
		}
		return indexqdrant.New(embedder, indexqdrant.Config{
			BaseURL:    cfg.GetString("index.base_url"),
			APIKey:     cfg.GetString("index.api_key"),
			Collection: collection,
		})
	case "", "memory":
		return indexmemory.New(embedder, indexmemory.Config{
			TargetLag: time.Duration(cfg.GetInt("index.target_lag_seconds")) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", backend)
	}
}

func buildCompleter(cfg driven.ConfigStore) (driven.CompletionService, error) {
	apiKey := cfg.GetString("completion.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return completionopenai.NewCompletionService(completionopenai.Config{
		APIKey:  apiKey,
		BaseURL: cfg.GetString("completion.base_url"),
		Model:   cfg.GetString("completion.model"),
	})
}

func chunkerOptions(cfg driven.ConfigStore) []chunker.Option {
	var opts []chunker.Option
	if size := cfg.GetInt("chunker.size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap := cfg.GetInt("chunker.overlap"); overlap > 0 {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return opts
}

func ingestOptions(cfg driven.ConfigStore) []services.IngestOption {
	var opts []services.IngestOption
	if n := cfg.GetInt("ingest.concurrency"); n > 0 {
		opts = append(opts, services.WithConcurrency(n))
	}
	return opts
}
