package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Rrens/ai-interviewer/internal/api/response"
	"github.com/Rrens/ai-interviewer/internal/security"
	"github.com/rs/zerolog/log"
)

type contextKey string

const AdminSubjectKey contextKey = "adminSubject"

// AuthMiddleware guards the admin routes with a signed bearer token
type AuthMiddleware struct {
	jwtManager *security.JWTManager
}

func NewAuthMiddleware(jwtManager *security.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// RequireAdmin rejects requests without a valid admin token
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Unauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.jwtManager.ValidateAdminToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), AdminSubjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAdminSubject returns the subject of the admin token on the request
func GetAdminSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(AdminSubjectKey).(string)
	return subject, ok
}

// RateLimiter counts requests per key
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time, err error)
}

// RateLimitMiddleware limits requests per client address
type RateLimitMiddleware struct {
	rateLimiter RateLimiter
}

func NewRateLimitMiddleware(rateLimiter RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{rateLimiter: rateLimiter}
}

// Limit keys on the client IP, so it must run after chi's RealIP
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetTime, err := m.rateLimiter.Allow(r.Context(), clientIP(r))
		if err != nil {
			// fail open
			log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			response.TooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
