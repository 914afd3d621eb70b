package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Rrens/ai-interviewer/internal/api/middleware"
	"github.com/Rrens/ai-interviewer/internal/api/response"
	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/Rrens/ai-interviewer/internal/export"
	"github.com/Rrens/ai-interviewer/internal/llm"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AdminHandler serves session retrieval for operators
type AdminHandler struct {
	interviews Interviewer
	now        func() time.Time
}

func NewAdminHandler(interviews Interviewer) *AdminHandler {
	return &AdminHandler{interviews: interviews, now: time.Now}
}

// ListSessions returns every stored session id
func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := h.interviews.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]any{
		"sessions": ids,
		"count":    len(ids),
	})
}

// GetSession returns the full session document, or an empty object when absent
func (h *AdminHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.interviews.Load(r.Context(), sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		response.OK(w, map[string]any{})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to load session")
		response.InternalError(w)
		return
	}

	response.OK(w, session)
}

// DeleteSession removes a session; deleting a missing one still succeeds
func (h *AdminHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.interviews.Delete(r.Context(), sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to delete session")
		response.InternalError(w)
		return
	}

	admin, _ := middleware.GetAdminSubject(r.Context())
	log.Info().Str("session_id", sessionID).Str("admin", admin).Msg("Session deleted")

	response.OK(w, map[string]string{"deleted": sessionID})
}

// Export returns transcript rows. Without ?format= the rows come in the JSON
// envelope; otherwise the body is the rendered file.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")

	var exporter export.Exporter
	if format != "" {
		var err error
		exporter, err = export.NewExporter(format)
		if err != nil {
			response.BadRequest(w, "invalid_format", err.Error())
			return
		}
	}

	rows, err := h.interviews.Export(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to export sessions")
		response.InternalError(w)
		return
	}

	if exporter == nil {
		response.OK(w, rows)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Export(rows, &buf); err != nil {
		log.Error().Err(err).Str("format", format).Msg("failed to render export")
		response.InternalError(w)
		return
	}

	filename := fmt.Sprintf("interviews-%s.%s", h.now().UTC().Format("20060102-150405"), exporter.Extension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ListLLMProviders reports the registered completion providers
func ListLLMProviders(router *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        router.GetProvidersInfo(),
			"default_provider": router.DefaultProvider(),
		})
	}
}
