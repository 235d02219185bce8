package llm

import "context"

// MockClient is a configurable mock for testing completion functionality.
// Set the function field to control behavior in tests.
type MockClient struct {
	// GenerateJSONFunc is called when GenerateJSON is invoked.
	// If nil, returns "{}" and nil error.
	GenerateJSONFunc func(ctx context.Context, prompt string, systemMessage string) (string, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// GenerateJSONCalls counts invocations for verification.
	GenerateJSONCalls int

	// Prompts records every prompt passed to GenerateJSON.
	Prompts []string
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{Model: "mock-model"}
}

// GenerateJSON implements Client.
func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, systemMessage string) (string, error) {
	m.GenerateJSONCalls++
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, systemMessage)
	}
	return "{}", nil
}

// GetModel implements Client.
func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Ensure MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)
