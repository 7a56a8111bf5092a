package domain

// DocumentState tracks a document through the processing pipeline.
type DocumentState string

// Pipeline states. ErrorDuringExtraction, Completed and ExtractionFailed
// are terminal.
const (
	StateIngested              DocumentState = "ingested"
	StateTextExtracted         DocumentState = "text_extracted"
	StateErrorDuringExtraction DocumentState = "error_during_extraction"
	StateChunked               DocumentState = "chunked"
	StateIndexed               DocumentState = "indexed"
	StateExtractionRequested   DocumentState = "extraction_requested"
	StateCompleted             DocumentState = "completed"
	StateExtractionFailed      DocumentState = "extraction_failed"
)

// transitions is the set of legal state moves. Re-entering
// TextExtracted from Completed is allowed only via force re-runs,
// which the coordinator models as a fresh ingestion.
var transitions = map[DocumentState][]DocumentState{
	StateIngested:            {StateTextExtracted, StateErrorDuringExtraction},
	StateTextExtracted:       {StateChunked},
	StateChunked:             {StateIndexed},
	StateIndexed:             {StateExtractionRequested},
	StateExtractionRequested: {StateCompleted, StateExtractionFailed},
}

// CanTransition reports whether moving from one state to another is legal.
func (s DocumentState) CanTransition(to DocumentState) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state ends processing for the document.
func (s DocumentState) Terminal() bool {
	switch s {
	case StateErrorDuringExtraction, StateCompleted, StateExtractionFailed:
		return true
	}
	return false
}
