package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Rrens/ai-interviewer/internal/api/handler"
	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/Rrens/ai-interviewer/internal/repository/memory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInterviewer struct {
	mock.Mock
}

func (m *MockInterviewer) Begin(ctx context.Context, interviewID, sessionID string) (*domain.TurnResult, error) {
	args := m.Called(ctx, interviewID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TurnResult), args.Error(1)
}

func (m *MockInterviewer) Next(ctx context.Context, sessionID, userMessage string) (*domain.TurnResult, error) {
	args := m.Called(ctx, sessionID, userMessage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TurnResult), args.Error(1)
}

func (m *MockInterviewer) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockInterviewer) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockInterviewer) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockInterviewer) Export(ctx context.Context) ([]domain.TranscriptRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TranscriptRow), args.Error(1)
}

func (m *MockInterviewer) Interviews() []domain.InterviewInfo {
	return m.Called().Get(0).([]domain.InterviewInfo)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

// Helper to make JSON request
func makeJSONRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["success"] != true {
		t.Error("expected success to be true")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data to be a map")
	}

	if data["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", data["status"])
	}
}

type failingStore struct {
	*memory.SessionRepository
}

func (failingStore) Ping(ctx context.Context) error { return errors.New("down") }

func TestReadyCheck(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ReadyCheck(memory.NewSessionRepository())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("store down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		store := failingStore{memory.NewSessionRepository()}
		handler.ReadyCheck(store)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not_ready", decode(t, rec).Error.Code)
	})
}

func TestInterviewHandler_Begin(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "started",
			body:       domain.BeginRequest{InterviewID: "stock_market", SessionID: "s1"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unknown interview",
			body:       domain.BeginRequest{InterviewID: "nope", SessionID: "s1"},
			err:        domain.ErrUnknownInterview,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_interview_id",
		},
		{
			name:       "already in progress",
			body:       domain.BeginRequest{InterviewID: "stock_market", SessionID: "s1"},
			err:        domain.ErrSessionExists,
			wantStatus: http.StatusConflict,
			wantCode:   "already_in_progress",
		},
		{
			name:       "store failure",
			body:       domain.BeginRequest{InterviewID: "stock_market", SessionID: "s1"},
			err:        errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockInterviewer)
			req := tt.body.(domain.BeginRequest)
			if tt.err != nil {
				svc.On("Begin", mock.Anything, req.InterviewID, req.SessionID).Return(nil, tt.err)
			} else {
				svc.On("Begin", mock.Anything, req.InterviewID, req.SessionID).Return(&domain.TurnResult{
					SessionID: "s1",
					Message:   "Hi",
					Status:    domain.StatusStarted,
				}, nil)
			}

			h := handler.NewInterviewHandler(svc, memory.NewTurnLocker(), 5000)
			rec := httptest.NewRecorder()
			h.Begin(rec, makeJSONRequest(http.MethodPost, "/api/v1/sessions", tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decode(t, rec)
			if tt.wantCode != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantCode, env.Error.Code)
				assert.NotContains(t, env.Error.Message, "disk full")
			} else {
				var result domain.TurnResult
				require.NoError(t, json.Unmarshal(env.Data, &result))
				assert.Equal(t, "Hi", result.Message)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestInterviewHandler_BeginValidation(t *testing.T) {
	svc := new(MockInterviewer)
	h := handler.NewInterviewHandler(svc, memory.NewTurnLocker(), 5000)

	for name, body := range map[string]string{
		"malformed json":      `{"interview_id":`,
		"missing interview":   `{"session_id":"s1"}`,
		"slash in session id": `{"interview_id":"stock_market","session_id":"a/b"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Begin(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_request", decode(t, rec).Error.Code)
		})
	}
	svc.AssertNotCalled(t, "Begin", mock.Anything, mock.Anything, mock.Anything)
}

func TestInterviewHandler_Next(t *testing.T) {
	svc := new(MockInterviewer)
	svc.On("Next", mock.Anything, "s1", "I buy index funds").Return(&domain.TurnResult{
		SessionID: "s1",
		Message:   "Why index funds?",
		Status:    domain.StatusQuestion,
	}, nil)

	h := handler.NewInterviewHandler(svc, memory.NewTurnLocker(), 5000)
	rec := httptest.NewRecorder()
	h.Next(rec, makeJSONRequest(http.MethodPost, "/api/v1/next", domain.NextRequest{
		SessionID:   "s1",
		UserMessage: "I buy index funds",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var result domain.TurnResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "Why index funds?", result.Message)
	assert.Equal(t, domain.StatusQuestion, result.Status)
	svc.AssertExpectations(t)
}

func TestInterviewHandler_NextFlowStatusesAre200(t *testing.T) {
	for _, status := range []domain.TurnStatus{
		domain.StatusNotStarted,
		domain.StatusTerminated,
		domain.StatusOffTopic,
		domain.StatusFlagged,
		domain.StatusFinished,
	} {
		t.Run(string(status), func(t *testing.T) {
			svc := new(MockInterviewer)
			svc.On("Next", mock.Anything, "s1", "hello").Return(&domain.TurnResult{SessionID: "s1", Status: status}, nil)

			h := handler.NewInterviewHandler(svc, memory.NewTurnLocker(), 5000)
			rec := httptest.NewRecorder()
			h.Next(rec, makeJSONRequest(http.MethodPost, "/api/v1/next", domain.NextRequest{SessionID: "s1", UserMessage: "hello"}))

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestInterviewHandler_BeginBusySession(t *testing.T) {
	svc := new(MockInterviewer)
	locker := memory.NewTurnLocker()
	h := handler.NewInterviewHandler(svc, locker, 5000)

	unlock, err := locker.TryLock(context.Background(), "s1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Begin(rec, makeJSONRequest(http.MethodPost, "/api/v1/sessions", domain.BeginRequest{InterviewID: "stock_market", SessionID: "s1"}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "turn_in_progress", decode(t, rec).Error.Code)
	svc.AssertNotCalled(t, "Begin", mock.Anything, mock.Anything, mock.Anything)
	unlock()

	// begin releases the lock when it returns
	svc.On("Begin", mock.Anything, "stock_market", "s1").Return(&domain.TurnResult{SessionID: "s1", Status: domain.StatusStarted}, nil)
	rec = httptest.NewRecorder()
	h.Begin(rec, makeJSONRequest(http.MethodPost, "/api/v1/sessions", domain.BeginRequest{InterviewID: "stock_market", SessionID: "s1"}))
	assert.Equal(t, http.StatusCreated, rec.Code)

	unlock, err = locker.TryLock(context.Background(), "s1")
	require.NoError(t, err)
	unlock()
}

func TestInterviewHandler_NextBusySession(t *testing.T) {
	svc := new(MockInterviewer)
	locker := memory.NewTurnLocker()
	h := handler.NewInterviewHandler(svc, locker, 5000)

	unlock, err := locker.TryLock(context.Background(), "s1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Next(rec, makeJSONRequest(http.MethodPost, "/api/v1/next", domain.NextRequest{SessionID: "s1", UserMessage: "hello"}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "turn_in_progress", decode(t, rec).Error.Code)
	svc.AssertNotCalled(t, "Next", mock.Anything, mock.Anything, mock.Anything)

	// the lock is released once the holder finishes
	unlock()
	svc.On("Next", mock.Anything, "s1", "hello").Return(&domain.TurnResult{SessionID: "s1", Status: domain.StatusQuestion}, nil)
	rec = httptest.NewRecorder()
	h.Next(rec, makeJSONRequest(http.MethodPost, "/api/v1/next", domain.NextRequest{SessionID: "s1", UserMessage: "hello"}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInterviewHandler_NextReleasesLockOnFailure(t *testing.T) {
	svc := new(MockInterviewer)
	svc.On("Next", mock.Anything, "s1", "hello").Return(nil, errors.New("provider exploded"))
	locker := memory.NewTurnLocker()
	h := handler.NewInterviewHandler(svc, locker, 5000)

	rec := httptest.NewRecorder()
	h.Next(rec, makeJSONRequest(http.MethodPost, "/api/v1/next", domain.NextRequest{SessionID: "s1", UserMessage: "hello"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "internal server error", env.Error.Message)

	unlock, err := locker.TryLock(context.Background(), "s1")
	require.NoError(t, err)
	unlock()
}

func TestInterviewHandler_NextValidation(t *testing.T) {
	svc := new(MockInterviewer)
	h := handler.NewInterviewHandler(svc, memory.NewTurnLocker(), 10)

	tests := []struct {
		name     string
		req      domain.NextRequest
		wantCode string
	}{
		{name: "missing session", req: domain.NextRequest{UserMessage: "hi"}, wantCode: "invalid_request"},
		{name: "empty message", req: domain.NextRequest{SessionID: "s1"}, wantCode: "invalid_request"},
		{name: "too long", req: domain.NextRequest{SessionID: "s1", UserMessage: strings.Repeat("a", 11)}, wantCode: "message_too_long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Next(rec, makeJSONRequest(http.MethodPost, "/api/v1/next", tt.req))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec).Error.Code)
		})
	}
	svc.AssertNotCalled(t, "Next", mock.Anything, mock.Anything, mock.Anything)
}

func TestInterviewHandler_Interviews(t *testing.T) {
	svc := new(MockInterviewer)
	svc.On("Interviews").Return([]domain.InterviewInfo{{ID: "stock_market", Name: "Stock market", Topics: 2}})

	h := handler.NewInterviewHandler(svc, memory.NewTurnLocker(), 5000)
	rec := httptest.NewRecorder()
	h.Interviews(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interviews", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var infos []domain.InterviewInfo
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &infos))
	assert.Equal(t, "stock_market", infos[0].ID)
}

func withSessionID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("sessionID", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminHandler_GetSession(t *testing.T) {
	svc := new(MockInterviewer)
	svc.On("Load", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", InterviewID: "stock_market"}, nil)
	svc.On("Load", mock.Anything, "missing").Return(nil, domain.ErrSessionNotFound)
	h := handler.NewAdminHandler(svc)

	rec := httptest.NewRecorder()
	h.GetSession(rec, withSessionID(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1", nil), "s1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var session domain.Session
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &session))
	assert.Equal(t, "stock_market", session.InterviewID)

	rec = httptest.NewRecorder()
	h.GetSession(rec, withSessionID(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/missing", nil), "missing"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, string(decode(t, rec).Data))
}

func TestAdminHandler_ListAndDelete(t *testing.T) {
	svc := new(MockInterviewer)
	svc.On("List", mock.Anything).Return([]string{"a", "b"}, nil)
	svc.On("Delete", mock.Anything, "a").Return(nil)
	h := handler.NewAdminHandler(svc)

	rec := httptest.NewRecorder()
	h.ListSessions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":["a","b"],"count":2}`, string(decode(t, rec).Data))

	rec = httptest.NewRecorder()
	h.DeleteSession(rec, withSessionID(httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/a", nil), "a"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":"a"}`, string(decode(t, rec).Data))
	svc.AssertExpectations(t)
}

func TestAdminHandler_Export(t *testing.T) {
	rows := []domain.TranscriptRow{
		{SessionID: "s1", InterviewID: "stock_market", Order: 0, Role: domain.RoleInterviewer, Content: "Hi"},
		{SessionID: "s1", InterviewID: "stock_market", Order: 1, Role: domain.RoleRespondent, Content: "hello"},
	}

	t.Run("envelope by default", func(t *testing.T) {
		svc := new(MockInterviewer)
		svc.On("Export", mock.Anything).Return(rows, nil)

		rec := httptest.NewRecorder()
		handler.NewAdminHandler(svc).Export(rec, httptest.NewRequest(http.MethodGet, "/api/v1/export", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got []domain.TranscriptRow
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
		assert.Equal(t, rows, got)
	})

	t.Run("csv attachment", func(t *testing.T) {
		svc := new(MockInterviewer)
		svc.On("Export", mock.Anything).Return(rows, nil)

		rec := httptest.NewRecorder()
		handler.NewAdminHandler(svc).Export(rec, httptest.NewRequest(http.MethodGet, "/api/v1/export?format=csv", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
		assert.Contains(t, rec.Body.String(), "hello")
	})

	t.Run("unknown format", func(t *testing.T) {
		svc := new(MockInterviewer)

		rec := httptest.NewRecorder()
		handler.NewAdminHandler(svc).Export(rec, httptest.NewRequest(http.MethodGet, "/api/v1/export?format=xls", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_format", decode(t, rec).Error.Code)
		svc.AssertNotCalled(t, "Export", mock.Anything)
	})
}
