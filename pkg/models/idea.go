// Package models contains domain types for ideafarm-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// IdeaStatus tracks an idea through the enrichment pipeline.
// Transitions are monotonic: pending → processing → ready|failed.
// Terminal states are immutable except via deletion.
type IdeaStatus string

const (
	StatusPending    IdeaStatus = "pending"
	StatusProcessing IdeaStatus = "processing"
	StatusReady      IdeaStatus = "ready"
	StatusFailed     IdeaStatus = "failed"
)

// InputType identifies what kind of content was captured.
type InputType string

const (
	InputTypeURL  InputType = "url"
	InputTypeText InputType = "text"
)

// MaxRelatedLinks is the upper bound on model-suggested links per idea.
const MaxRelatedLinks = 5

// RelatedLink is a model-suggested link with a short rationale.
type RelatedLink struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Idea is the unit of work in the enrichment pipeline.
// It is created by the capture path with status pending and mutated
// exclusively by the pipeline thereafter. Owner is immutable.
type Idea struct {
	ID              uuid.UUID     `json:"id"`
	OwnerID         string        `json:"owner_id"`
	InputType       InputType     `json:"input_type"`
	OriginalContent string        `json:"original_content"`
	ArchiveRef      *string       `json:"archive_ref,omitempty"`
	Summary         *string       `json:"summary,omitempty"`
	DeepDive        *string       `json:"deep_dive,omitempty"`
	Topic           *string       `json:"topic,omitempty"`
	RelatedLinks    []RelatedLink `json:"related_links"`
	Status          IdeaStatus    `json:"status"`
	FailureReason   *string       `json:"failure_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Archived reports whether the idea's raw content reached durable storage.
// A ready idea with no archive ref is surfaced as "not archived", never
// silently presented as archived.
func (i *Idea) Archived() bool {
	return i.ArchiveRef != nil && *i.ArchiveRef != ""
}

// Terminal reports whether the idea reached a final pipeline state.
func (s IdeaStatus) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}
