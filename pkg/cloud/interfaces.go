// Package cloud wraps the remote inference endpoints used for second-opinion
// classification. It exposes a provider-neutral client interface with
// OpenAI-compatible and Anthropic implementations.
package cloud

import "context"

// Client is the provider-neutral surface for remote completions.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// Complete sends one prompt and returns the raw text response.
	Complete(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error)

	// Model returns the configured model name.
	Model() string

	// Provider returns the provider identifier ("openai", "anthropic").
	Provider() string
}

// Compile-time interface checks.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
	_ Client = (*MockClient)(nil)
)
