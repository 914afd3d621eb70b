package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/ai-interviewer/internal/api"
	"github.com/Rrens/ai-interviewer/internal/config"
	"github.com/Rrens/ai-interviewer/internal/llm"
	"github.com/Rrens/ai-interviewer/internal/llm/anthropic"
	"github.com/Rrens/ai-interviewer/internal/llm/deepseek"
	"github.com/Rrens/ai-interviewer/internal/llm/gemini"
	"github.com/Rrens/ai-interviewer/internal/llm/ollama"
	"github.com/Rrens/ai-interviewer/internal/llm/openai"
	"github.com/Rrens/ai-interviewer/internal/logger"
	"github.com/Rrens/ai-interviewer/internal/repository"
	"github.com/Rrens/ai-interviewer/internal/security"
	"github.com/Rrens/ai-interviewer/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional; try the usual locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Backend).
		Msg("Starting AI interviewer server")

	stores, err := repository.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer stores.Close()

	llmRouter, moderator := newLLM(cfg.LLM)

	plans, err := service.NewPlanCatalog(cfg.Interviews, service.ModeratorAvailable(moderator != nil))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid interview configuration")
	}
	log.Info().Int("count", len(plans.Interviews())).Msg("Interviews loaded")

	generator := llm.NewGenerator(llmRouter, moderator, llm.GeneratorConfig{
		RequestTimeout: cfg.LLM.RequestTimeout,
		MaxRetries:     cfg.LLM.MaxRetries,
		RetryBackoff:   cfg.LLM.RetryBackoff,
	})

	interviews := service.NewInterviewService(stores.Sessions, generator, plans)

	router := api.NewRouter(cfg, api.Deps{
		Interviews:  interviews,
		Sessions:    stores.Sessions,
		Locker:      stores.Locker,
		RateLimiter: stores.RateLimiter,
		LLMRouter:   llmRouter,
		JWT:         security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AdminTokenTTL),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// newLLM registers every provider that has credentials. The moderator is the
// OpenAI provider when moderation is routed there, nil otherwise.
func newLLM(cfg config.LLMConfig) (*llm.Router, llm.Moderator) {
	router := llm.NewRouter(cfg.DefaultProvider)
	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.DefaultProvider)

	var openaiProvider *openai.Provider
	if cfg.OpenAI.APIKey != "" {
		openaiProvider = openai.NewProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
		router.RegisterProvider(openaiProvider)
	}
	if cfg.Anthropic.APIKey != "" {
		router.RegisterProvider(anthropic.NewProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.BaseURL))
	}
	if cfg.DeepSeek.APIKey != "" {
		router.RegisterProvider(deepseek.NewProvider(cfg.DeepSeek.APIKey, cfg.DeepSeek.Model, cfg.DeepSeek.BaseURL))
	}
	if cfg.Gemini.APIKey != "" {
		router.RegisterProvider(gemini.NewProvider(cfg.Gemini.APIKey, cfg.Gemini.Model))
	}
	if cfg.Ollama.Host != "" {
		log.Info().Str("host", cfg.Ollama.Host).Msg("Registering Ollama provider")
		router.RegisterProvider(ollama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel))
	}

	if len(router.ListProviders()) == 0 {
		log.Warn().Msg("No LLM provider configured; turns that need generation will fail")
	}

	var moderator llm.Moderator
	switch {
	case cfg.ModerationProvider == "openai" && openaiProvider != nil:
		moderator = openaiProvider
	case cfg.ModerationProvider != "":
		log.Warn().Str("provider", cfg.ModerationProvider).Msg("Moderation provider unavailable; nothing will be flagged by moderation")
	}

	return router, moderator
}
