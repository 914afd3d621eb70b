package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/Rrens/ai-interviewer/internal/api/response"
	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Interviewer is the session engine behind the HTTP surface
type Interviewer interface {
	Begin(ctx context.Context, interviewID, sessionID string) (*domain.TurnResult, error)
	Next(ctx context.Context, sessionID, userMessage string) (*domain.TurnResult, error)
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
	Export(ctx context.Context) ([]domain.TranscriptRow, error)
	Interviews() []domain.InterviewInfo
}

// InterviewHandler serves the respondent-facing turn endpoints
type InterviewHandler struct {
	interviews       Interviewer
	locker           domain.TurnLocker
	validate         *validator.Validate
	maxMessageLength int
}

func NewInterviewHandler(interviews Interviewer, locker domain.TurnLocker, maxMessageLength int) *InterviewHandler {
	return &InterviewHandler{
		interviews:       interviews,
		locker:           locker,
		validate:         validator.New(),
		maxMessageLength: maxMessageLength,
	}
}

// Begin starts a session and returns the opening question
func (h *InterviewHandler) Begin(w http.ResponseWriter, r *http.Request) {
	var req domain.BeginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid_request", "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "invalid_request", err.Error())
		return
	}

	// generated ids cannot collide, so only caller-chosen ones are locked
	if req.SessionID != "" {
		unlock, ok := h.lock(w, r, req.SessionID)
		if !ok {
			return
		}
		defer unlock()
	}

	result, err := h.interviews.Begin(r.Context(), req.InterviewID, req.SessionID)
	switch {
	case errors.Is(err, domain.ErrUnknownInterview):
		response.BadRequest(w, "invalid_interview_id", "unknown interview id")
		return
	case errors.Is(err, domain.ErrSessionExists):
		response.Conflict(w, "already_in_progress", "session already in progress")
		return
	case err != nil:
		log.Error().Err(err).Str("interview_id", req.InterviewID).Msg("failed to begin session")
		response.InternalError(w)
		return
	}

	response.Created(w, result)
}

// Next submits one respondent message and returns the interviewer's reply
func (h *InterviewHandler) Next(w http.ResponseWriter, r *http.Request) {
	var req domain.NextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid_request", "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "invalid_request", err.Error())
		return
	}
	if h.maxMessageLength > 0 && utf8.RuneCountInString(req.UserMessage) > h.maxMessageLength {
		response.BadRequest(w, "message_too_long", "user message exceeds the maximum length")
		return
	}

	unlock, ok := h.lock(w, r, req.SessionID)
	if !ok {
		return
	}
	defer unlock()

	result, err := h.interviews.Next(r.Context(), req.SessionID, req.UserMessage)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("failed to process turn")
		response.InternalError(w)
		return
	}

	response.OK(w, result)
}

// lock takes the per-session turn lock. When it fails the response has
// already been written.
func (h *InterviewHandler) lock(w http.ResponseWriter, r *http.Request, sessionID string) (func(), bool) {
	unlock, err := h.locker.TryLock(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrTurnInProgress) {
			response.Conflict(w, "turn_in_progress", "another request for this session is being processed")
			return nil, false
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to lock session")
		response.InternalError(w)
		return nil, false
	}
	return unlock, true
}

// Interviews lists the configured interviews
func (h *InterviewHandler) Interviews(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.interviews.Interviews())
}
