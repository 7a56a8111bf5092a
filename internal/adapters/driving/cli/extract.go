package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reportex-cli/internal/core/domain"
	"github.com/custodia-labs/reportex-cli/internal/core/ports/driving"
)

// defaultSystemPrompt instructs the model when no custom prompt is given.
const defaultSystemPrompt = `Act as an expert data extraction agent specializing in official report documents. Carefully read the provided text snippets and extract the precise information for the fields given.`

var (
	extractQueries []string
	extractFields  []string
	extractFile    string
	extractK       int
	extractPrompt  string
	extractJSON    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured figures from indexed documents",
	Long: `Runs the retrieval queries against the index, joins the retrieved
chunks into a model context and extracts the declared numeric fields
as schema-validated structured output.

Fields are declared as name:description pairs:

  reportex extract \
    --query "total service revenue" \
    --field "service_revenue:Total consolidated service revenue" \
    --field "net_income:Total net income after taxes"`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringArrayVarP(&extractQueries, "query", "q", nil, "retrieval query (repeatable)")
	extractCmd.Flags().StringArrayVarP(&extractFields, "field", "F", nil, "field as name:description (repeatable)")
	extractCmd.Flags().StringVar(&extractFile, "file", "", "restrict retrieval to one document's relative path")
	extractCmd.Flags().IntVarP(&extractK, "top", "k", 1, "retrieved chunks per query")
	extractCmd.Flags().StringVar(&extractPrompt, "prompt", "", "override the system prompt")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output the record as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}
	if len(extractQueries) == 0 {
		return errors.New("at least one --query is required")
	}

	schema, err := parseFields(extractFields)
	if err != nil {
		return err
	}

	prompt := extractPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}

	req := driving.ExtractRequest{
		Queries:      extractQueries,
		KPerQuery:    extractK,
		Schema:       schema,
		SystemPrompt: prompt,
		SourcePath:   extractFile,
	}
	if extractFile != "" {
		req.Filter = domain.Eq{Key: "relative_path", Value: extractFile}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rec, err := extractionService.Extract(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyContext) {
			return fmt.Errorf("no indexed chunks matched the queries; run ingest first or relax --file")
		}
		return fmt.Errorf("extraction failed: %w", err)
	}

	if extractJSON {
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputExtractionTable(cmd, rec)
}

// parseFields converts name:description flag values into a schema.
func parseFields(fields []string) (domain.Schema, error) {
	if len(fields) == 0 {
		return nil, errors.New("at least one --field is required")
	}

	schema := make(domain.Schema, len(fields))
	for _, f := range fields {
		name, desc, ok := strings.Cut(f, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --field %q: expected name:description", f)
		}
		schema[name] = domain.FieldSpec{
			Type:        "number",
			Description: strings.TrimSpace(desc),
		}
	}
	return schema, nil
}

func outputExtractionTable(cmd *cobra.Command, rec *domain.ExtractionRecord) error {
	cmd.Printf("Extraction %s\n", rec.ID)
	if rec.SourcePath != "" {
		cmd.Printf("  Document: %s\n", rec.SourcePath)
	}
	cmd.Printf("  Queries: %s\n", strings.Join(rec.Queries, "; "))
	cmd.Println()

	if len(rec.Entities) == 0 {
		cmd.Println("No entities extracted.")
		return nil
	}

	for i, entity := range rec.Entities {
		cmd.Printf("  Entity %d:\n", i+1)
		for _, name := range entityFieldNames(entity) {
			if v := entity[name]; v != nil {
				cmd.Printf("    %s: %g\n", name, *v)
			} else {
				cmd.Printf("    %s: (not found)\n", name)
			}
		}
	}
	return nil
}

func entityFieldNames(entity domain.Entity) []string {
	names := make([]string, 0, len(entity))
	for name := range entity {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
