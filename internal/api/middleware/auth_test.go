package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/ai-interviewer/internal/api/middleware"
	"github.com/Rrens/ai-interviewer/internal/security"
)

func TestRequireAdmin(t *testing.T) {
	jwt := security.NewJWTManager("middleware-test-secret", time.Hour)
	token, _, err := jwt.GenerateAdminToken("ops")
	require.NoError(t, err)

	var subject string
	var found bool
	guarded := middleware.NewAuthMiddleware(jwt).RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, found = middleware.GetAdminSubject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"tampered token", "Bearer " + token + "x", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, found = "", false

			req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.True(t, found)
				assert.Equal(t, "ops", subject)
			} else {
				assert.False(t, found)
			}
		})
	}
}

func TestGetAdminSubject_Unset(t *testing.T) {
	_, ok := middleware.GetAdminSubject(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
