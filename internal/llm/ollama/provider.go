package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/ai-interviewer/internal/llm"
)

// Provider implements llm.Provider for a local Ollama server
type Provider struct {
	host         string
	defaultModel string
	client       *http.Client
}

// NewProvider creates a new Ollama provider
func NewProvider(host, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = "llama3"
	}
	return &Provider{
		host:         strings.TrimRight(host, "/"),
		defaultModel: defaultModel,
		client:       &http.Client{},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "ollama"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"llama3",
		"llama3.1",
		"llama3.2",
		"mistral",
		"mixtral",
		"phi3",
		"qwen2",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has a host
func (p *Provider) IsConfigured() bool {
	return p.host != ""
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count"`
}

// Complete runs a non-streaming generate call
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest, model string) (*llm.CompletionResponse, error) {
	if model == "" {
		model = p.defaultModel
	}

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	body, err := json.Marshal(generateRequest{
		Model:   model,
		Prompt:  req.Prompt,
		System:  req.System,
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &llm.CompletionResponse{
		Text:       out.Response,
		Model:      model,
		TokensUsed: out.EvalCount,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
