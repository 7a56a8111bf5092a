package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Inspect ingested documents",
	Long:  `List ingested documents, show a single document's pipeline state, or review past extractions.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get [path]",
	Short: "Show a document's pipeline state",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsGet,
}

var documentsExtractionsCmd = &cobra.Command{
	Use:   "extractions",
	Short: "List past extraction records",
	RunE:  runDocumentsExtractions,
}

func init() {
	documentsCmd.PersistentFlags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsGetCmd)
	documentsCmd.AddCommand(documentsExtractionsCmd)
	rootCmd.AddCommand(documentsCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s [%s]\n", docs[i].RelativePath, docs[i].State)
		if docs[i].ErrorInfo != "" {
			cmd.Printf("    Error: %s\n", docs[i].ErrorInfo)
		}
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentsGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if documentsJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Path: %s\n", doc.Path)
	cmd.Printf("Relative path: %s\n", doc.RelativePath)
	cmd.Printf("State: %s\n", doc.State)
	if doc.ErrorInfo != "" {
		cmd.Printf("Error: %s\n", doc.ErrorInfo)
	}
	if !doc.ProcessedAt.IsZero() {
		cmd.Printf("Processed: %s\n", doc.ProcessedAt.Format("2006-01-02 15:04:05"))
	}
	cmd.Printf("Extracted text: %d characters\n", len(doc.ExtractedText))
	return nil
}

func runDocumentsExtractions(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	recs, err := documentService.Extractions(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list extractions: %w", err)
	}

	if documentsJSON {
		data, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal extractions: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(recs) == 0 {
		cmd.Println("No extractions recorded.")
		return nil
	}

	for i := range recs {
		cmd.Printf("  %s  %s\n", recs[i].CreatedAt.Format("2006-01-02 15:04:05"), recs[i].ID)
		if recs[i].SourcePath != "" {
			cmd.Printf("    Document: %s\n", recs[i].SourcePath)
		}
		cmd.Printf("    Entities: %d\n", len(recs[i].Entities))
	}
	cmd.Printf("Total: %d extractions\n", len(recs))
	return nil
}
