package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer    = "ai-interviewer"
	RoleAdmin = "admin"
)

// ErrNotAdmin is returned for valid tokens that lack the admin role
var ErrNotAdmin = errors.New("token does not grant admin access")

// Claims represents JWT claims
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token operations
type JWTManager struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, tokenTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// GenerateAdminToken signs a token for the admin endpoints
func (m *JWTManager) GenerateAdminToken(subject string) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}

	now := time.Now()
	expiresAt := now.Add(m.tokenTTL)
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAdminToken validates a token and returns the claims
func (m *JWTManager) ValidateAdminToken(tokenString string) (*Claims, error) {
	if len(m.secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}

	return claims, nil
}

// TokenTTL returns the token lifetime
func (m *JWTManager) TokenTTL() time.Duration {
	return m.tokenTTL
}
