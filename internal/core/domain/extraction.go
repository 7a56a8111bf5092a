package domain

import (
	"sort"
	"time"
)

// FieldSpec declares a single numeric extraction field.
type FieldSpec struct {
	// Type is the JSON type of the field. Always "number" today.
	Type string

	// Description tells the model what value to extract.
	Description string
}

// Schema maps declared field names to their specs. Every entity the
// model emits must carry exactly these keys, each a number or null.
type Schema map[string]FieldSpec

// FieldNames returns the declared field names in sorted order.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entity maps a declared field name to a nullable number. Missing
// values are represented as nil, never as an absent key.
type Entity map[string]*float64

// ExtractionRecord is the output of one extraction request.
type ExtractionRecord struct {
	// ID is the unique identifier for the record.
	ID string

	// SourcePath identifies the document the extraction targeted,
	// when the request was filtered to a single file.
	SourcePath string

	// Queries are the retrieval queries issued, in request order.
	Queries []string

	// Context is the concatenated retrieval context actually sent
	// to the completion provider.
	Context string

	// Entities are the extracted fact objects. Every entity carries
	// every declared schema key.
	Entities []Entity

	// CreatedAt is when the record was produced.
	CreatedAt time.Time
}
