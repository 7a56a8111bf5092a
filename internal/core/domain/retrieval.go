package domain

// RetrievedChunk is a single ranked hit from the retrieval index.
type RetrievedChunk struct {
	// Text is the chunk content.
	Text string

	// Attributes are the filterable key-value pairs stored with the chunk.
	Attributes map[string]string

	// Score is the relevance score in the embedding space.
	Score float64
}

// RetrievalResult is an ordered sequence of hits, sorted by decreasing
// Score. Ties preserve insertion order (stable).
type RetrievalResult []RetrievedChunk

// Filter is a predicate over chunk attributes, applied before a query
// result is truncated to its limit. It is a small tagged expression so
// new operators can be added without re-deriving a query language;
// today only exact equality and conjunction exist.
type Filter interface {
	// Matches reports whether the attributes satisfy the filter.
	Matches(attrs map[string]string) bool
}

// Eq matches chunks whose attribute key equals value exactly.
type Eq struct {
	Key   string
	Value string
}

// Matches reports whether attrs[Key] == Value.
func (e Eq) Matches(attrs map[string]string) bool {
	return attrs[e.Key] == e.Value
}

// And matches chunks satisfying every sub-filter.
type And []Filter

// Matches reports whether all sub-filters match. An empty And matches
// everything.
func (a And) Matches(attrs map[string]string) bool {
	for _, f := range a {
		if !f.Matches(attrs) {
			return false
		}
	}
	return true
}
