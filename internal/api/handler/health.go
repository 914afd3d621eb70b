package handler

import (
	"net/http"

	"github.com/Rrens/ai-interviewer/internal/api/response"
	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/rs/zerolog/log"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck pings the session store when it supports it
func ReadyCheck(store domain.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger, ok := store.(domain.Pinger); ok {
			if err := pinger.Ping(r.Context()); err != nil {
				log.Warn().Err(err).Msg("session store not ready")
				response.Fail(w, http.StatusServiceUnavailable, "not_ready", "session store not ready")
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
