package deepseek

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

// Provider implements llm.Provider for DeepSeek's OpenAI-compatible API
type Provider struct {
	apiKey       string
	defaultModel string
	client       *http.Client
	baseURL      string
}

// NewProvider creates a new DeepSeek provider
func NewProvider(apiKey, defaultModel, baseURL string) *Provider {
	if defaultModel == "" {
		defaultModel = "deepseek-chat"
	}
	if baseURL == "" {
		baseURL = "https://api.deepseek.com/v1"
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
	return "deepseek"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{"deepseek-chat", "deepseek-reasoner"}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete runs a chat completion
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest, model string) (*llm.CompletionResponse, error) {
	if model == "" {
		model = p.defaultModel
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("deepseek returned status %d: %s", resp.StatusCode, snippet)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("no response from DeepSeek")
	}

	return &llm.CompletionResponse{
		Text:       out.Choices[0].Message.Content,
		Model:      model,
		TokensUsed: out.Usage.TotalTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
