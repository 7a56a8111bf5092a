package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reportex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/reportex-cli/internal/ingestwatch"
)

var (
	ingestForce bool
	ingestWatch bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [corpus-dir]",
	Short: "Ingest a document corpus",
	Long: `Parses every document under the corpus directory, splits the
extracted text into overlapping chunks and publishes them to the
retrieval index. Documents that already completed are skipped unless
--force is given. With --watch the command keeps running and re-ingests
whenever the corpus changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "re-process completed documents")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch the corpus and re-ingest on changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingest service not configured")
	}

	corpusDir := args[0]
	info, err := os.Stat(corpusDir)
	if err != nil {
		return fmt.Errorf("corpus directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("corpus path %s is not a directory", corpusDir)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := driving.IngestOptions{Force: ingestForce}
	summary, err := ingestOrchestrator.Ingest(ctx, corpusDir, opts)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printSummary(cmd, summary)

	if !ingestWatch {
		return nil
	}
	return watchAndIngest(ctx, cmd, corpusDir, opts)
}

// watchAndIngest re-runs ingestion after each debounced corpus change
// until interrupted.
func watchAndIngest(ctx context.Context, cmd *cobra.Command, corpusDir string, opts driving.IngestOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher, err := ingestwatch.New(corpusDir)
	if err != nil {
		return fmt.Errorf("watch corpus: %w", err)
	}

	cmd.Printf("Watching %s for changes (Ctrl-C to stop)...\n", corpusDir)
	changes := watcher.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			summary, err := ingestOrchestrator.Ingest(ctx, corpusDir, opts)
			if err != nil {
				cmd.PrintErrf("Re-ingest failed: %v\n", err)
				continue
			}
			printSummary(cmd, summary)
		}
	}
}

func printSummary(cmd *cobra.Command, summary *driving.IngestSummary) {
	cmd.Printf("Ingested %d documents (%d skipped, %d errored)\n",
		summary.Ingested, summary.Skipped, summary.Errored)
	cmd.Printf("Chunked %d documents, %d chunks indexed\n",
		summary.Chunked, summary.IndexedChunks)
	if len(summary.IndexFailures) > 0 {
		cmd.Printf("Index failures: %d\n", len(summary.IndexFailures))
		for id, reason := range summary.IndexFailures {
			cmd.Printf("  %s: %s\n", id, reason)
		}
	}
}
