// Package cli provides the cobra command tree for reportex. Services
// are injected through setters before Execute runs so commands stay
// decoupled from adapter construction.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reportex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/reportex-cli/internal/logger"
)

// version is overridden at build time via ldflags.
var version = "dev"

// Injected services.
var (
	ingestOrchestrator driving.IngestOrchestrator
	extractionService  driving.ExtractionService
	documentService    driving.DocumentService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "reportex",
	Short: "Extract structured figures from document corpora",
	Long: `Reportex ingests a directory of documents, indexes their text for
semantic retrieval, and extracts numeric fields from the retrieved
context using a language model with schema-constrained output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetIngestOrchestrator injects the ingestion orchestrator.
func SetIngestOrchestrator(o driving.IngestOrchestrator) {
	ingestOrchestrator = o
}

// SetExtractionService injects the extraction service.
func SetExtractionService(s driving.ExtractionService) {
	extractionService = s
}

// SetDocumentService injects the document service.
func SetDocumentService(s driving.DocumentService) {
	documentService = s
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("Error: %v\n", err)
		os.Exit(1)
	}
}
