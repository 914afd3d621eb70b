package api

import (
	"net/http"

	"github.com/Rrens/ai-interviewer/internal/api/handler"
	customMiddleware "github.com/Rrens/ai-interviewer/internal/api/middleware"
	"github.com/Rrens/ai-interviewer/internal/config"
	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/Rrens/ai-interviewer/internal/llm"
	"github.com/Rrens/ai-interviewer/internal/security"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the collaborators the router wires into handlers. All of them are
// built by the caller.
type Deps struct {
	Interviews  handler.Interviewer
	Sessions    domain.SessionStore
	Locker      domain.TurnLocker
	RateLimiter customMiddleware.RateLimiter
	LLMRouter   *llm.Router
	JWT         *security.JWTManager
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	origins := cfg.Security.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	interviewHandler := handler.NewInterviewHandler(deps.Interviews, deps.Locker, cfg.Security.MaxMessageLength)
	adminHandler := handler.NewAdminHandler(deps.Interviews)
	authMiddleware := customMiddleware.NewAuthMiddleware(deps.JWT)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Sessions))
		r.Get("/interviews", interviewHandler.Interviews)

		// Respondent routes
		r.Group(func(r chi.Router) {
			if cfg.Security.RateLimit.Enabled && deps.RateLimiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.RateLimiter).Limit)
			}

			r.Post("/sessions", interviewHandler.Begin)
			r.Post("/next", interviewHandler.Next)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAdmin)

			r.Get("/sessions", adminHandler.ListSessions)
			r.Get("/sessions/{sessionID}", adminHandler.GetSession)
			r.Delete("/sessions/{sessionID}", adminHandler.DeleteSession)
			r.Get("/export", adminHandler.Export)

			if deps.LLMRouter != nil {
				r.Get("/llm-providers", handler.ListLLMProviders(deps.LLMRouter))
			}
		})
	})

	return r
}
