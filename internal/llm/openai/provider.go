package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/ai-interviewer/internal/llm"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const moderationModel = "omni-moderation-latest"

// Provider implements llm.Provider and llm.Moderator for OpenAI
type Provider struct {
	apiKey       string
	defaultModel string
	client       openai.Client
}

// NewProvider creates a new OpenAI provider. Retries are left to the caller.
func NewProvider(apiKey, defaultModel, baseURL string) *Provider {
	if defaultModel == "" {
		defaultModel = "gpt-4o"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Provider{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       openai.NewClient(opts...),
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "openai"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4.1",
		"gpt-4.1-mini",
		"gpt-4-turbo",
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

// Complete runs a chat completion
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest, model string) (*llm.CompletionResponse, error) {
	if model == "" {
		model = p.defaultModel
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return &llm.CompletionResponse{
		Text:       resp.Choices[0].Message.Content,
		Model:      resp.Model,
		TokensUsed: int(resp.Usage.TotalTokens),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// Moderate reports whether the moderation endpoint flags text
func (p *Provider) Moderate(ctx context.Context, text string) (bool, error) {
	resp, err := p.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.ModerationModel(moderationModel),
	})
	if err != nil {
		return false, fmt.Errorf("openai moderation failed: %w", err)
	}

	for _, r := range resp.Results {
		if r.Flagged {
			return true, nil
		}
	}
	return false, nil
}
