package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Task is one named completion: a rendered prompt plus model settings.
// Label, when set, is the field the output must carry.
type Task struct {
	Name        string
	Provider    string
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	Label       string
}

// GeneratorConfig bounds every provider call
type GeneratorConfig struct {
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// Generator executes tasks against the routed providers
type Generator struct {
	router    *Router
	moderator Moderator
	cfg       GeneratorConfig
}

// NewGenerator creates a generator. moderator may be nil, in which case
// nothing is ever flagged.
func NewGenerator(router *Router, moderator Moderator, cfg GeneratorConfig) *Generator {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Generator{router: router, moderator: moderator, cfg: cfg}
}

// Complete runs all tasks concurrently and returns the cleaned output of
// each by name. If any task fails the whole batch fails.
func (g *Generator) Complete(ctx context.Context, tasks map[string]Task) (map[string]string, error) {
	results := make(map[string]string, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(len(tasks))

	for name, task := range tasks {
		eg.Go(func() error {
			text, err := g.run(egCtx, task)
			if err != nil {
				return fmt.Errorf("task %s: %w", name, err)
			}
			mu.Lock()
			results[name] = text
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Relevance runs a rendered relevance task. Output containing "yes" means
// relevant; anything else is treated as not relevant.
func (g *Generator) Relevance(ctx context.Context, task Task) (bool, error) {
	text, err := g.run(ctx, task)
	if err != nil {
		return false, fmt.Errorf("relevance check: %w", err)
	}
	return strings.Contains(strings.ToLower(text), "yes"), nil
}

// Moderate reports whether text is flagged by the moderation provider
func (g *Generator) Moderate(ctx context.Context, text string) (bool, error) {
	if g.moderator == nil {
		return false, nil
	}

	var flagged bool
	err := retry(ctx, g.cfg.MaxRetries, g.cfg.RetryBackoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
		defer cancel()

		var err error
		flagged, err = g.moderator.Moderate(callCtx, text)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("moderation: %w", err)
	}
	return flagged, nil
}

func (g *Generator) run(ctx context.Context, task Task) (string, error) {
	provider, err := g.router.GetProvider(task.Provider)
	if err != nil {
		return "", err
	}

	req := CompletionRequest{
		System:      task.System,
		Prompt:      task.Prompt,
		MaxTokens:   task.MaxTokens,
		Temperature: task.Temperature,
	}

	var text string
	err = retry(ctx, g.cfg.MaxRetries, g.cfg.RetryBackoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
		defer cancel()

		resp, err := provider.Complete(callCtx, req, task.Model)
		if err != nil {
			return err
		}

		log.Debug().
			Str("task", task.Name).
			Str("provider", provider.Name()).
			Str("model", resp.Model).
			Int("tokens", resp.TokensUsed).
			Int64("latency_ms", resp.LatencyMs).
			Msg("LLM task completed")

		text, err = ExtractLabeled(resp.Text, task.Label)
		return err
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
