package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/ai-interviewer/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Provider struct {
	apiKey string
	model  string
}

func NewProvider(apiKey, model string) *Provider {
	return &Provider{
		apiKey: apiKey,
		model:  model,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) AvailableModels() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-2.5-pro",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
	}
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest, model string) (*llm.CompletionResponse, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	if model == "" {
		model = p.DefaultModel()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)
	generativeModel.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		generativeModel.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		generativeModel.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}

	start := time.Now()
	resp, err := generativeModel.GenerateContent(ctx, genai.Text(req.Prompt))
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var output strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output.WriteString(string(text))
		}
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &llm.CompletionResponse{
		Text:       output.String(),
		Model:      model,
		TokensUsed: tokensUsed,
		LatencyMs:  latency,
	}, nil
}
