package llm

import "context"

// GenerateRequest is one generation call to a model provider
type GenerateRequest struct {
	Prompt            string
	SystemInstruction string
	// StructuredOutput asks the provider for a JSON-shaped response. Providers
	// pass this as a response-format hint; the caller still parses defensively.
	StructuredOutput bool
}

// Provider is the interface for language model providers
type Provider interface {
	// Generate sends a prompt and returns the raw model output
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// HealthCheck verifies the provider endpoint is reachable
	HealthCheck(ctx context.Context) error

	// Name identifies the provider in logs and errors
	Name() string
}
