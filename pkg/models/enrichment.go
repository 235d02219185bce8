package models

// EnrichmentResult is the validated structured output of the generative
// model: a short overview, a longer Markdown deep dive, a free-form topic
// label and up to MaxRelatedLinks suggested links. It is transient and is
// written onto the Idea only by the pipeline's final commit.
type EnrichmentResult struct {
	Overview     string        `json:"overview"`
	DeepDive     string        `json:"deepDive"`
	Topic        string        `json:"topic"`
	RelatedLinks []RelatedLink `json:"relatedLinks"`
}
