// Package llm provides OpenAI-compatible completion client functionality.
package llm

import "context"

// Client defines the interface for completion operations.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// GenerateJSON requests a completion constrained to a single JSON object
	// and returns the raw response content.
	GenerateJSON(ctx context.Context, prompt string, systemMessage string) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Ensure OpenAIClient implements Client at compile time.
var _ Client = (*OpenAIClient)(nil)
