package llm

import "context"

// CompletionRequest contains one rendered prompt and its sampling parameters
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// CompletionResponse contains the raw provider output
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete runs a single prompt
	Complete(ctx context.Context, req CompletionRequest, model string) (*CompletionResponse, error)
}

// Moderator flags text that violates a content policy
type Moderator interface {
	Moderate(ctx context.Context, text string) (bool, error)
}
