package models

// Provenance tags where extracted text came from.
type Provenance string

const (
	ProvenanceRawText         Provenance = "raw-text"
	ProvenanceWebpage         Provenance = "webpage"
	ProvenanceVideoTranscript Provenance = "video-transcript"
)

// ExtractionResult is the transient output of content extraction.
// It is never persisted on its own; the text feeds the archive upload and
// the enrichment prompt. Extraction failures degrade rather than abort:
// ExtractionFailed is set and FailureDetail carries a human-readable note
// that is folded into the prompt.
type ExtractionResult struct {
	Text             string
	Provenance       Provenance
	ExtractionFailed bool
	FailureDetail    string
}
