package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Rrens/ai-interviewer/internal/llm"
)

// Provider implements llm.Provider for Anthropic
type Provider struct {
	apiKey       string
	defaultModel string
	client       *http.Client
	baseURL      string
}

// NewProvider creates a new Anthropic provider
func NewProvider(apiKey, defaultModel, baseURL string) *Provider {
	if defaultModel == "" {
		defaultModel = "claude-3-5-haiku-latest"
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	return &Provider{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       &http.Client{},
		baseURL:      baseURL,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "anthropic"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"claude-3-5-haiku-latest",
		"claude-3-5-sonnet-latest",
		"claude-3-7-sonnet-latest",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete runs a single-turn message request
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest, model string) (*llm.CompletionResponse, error) {
	if model == "" {
		model = p.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	body, err := json.Marshal(messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, snippet)
	}

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var text string
	for _, c := range out.Content {
		if c.Type == "" || c.Type == "text" {
			text += c.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no response from Anthropic")
	}

	return &llm.CompletionResponse{
		Text:       text,
		Model:      model,
		TokensUsed: out.Usage.InputTokens + out.Usage.OutputTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
