// Package auth issues and validates JWTs and enforces the single-session rule
// on every protected request.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/luckytwelve/platform/internal/domain"
)

// AccessClaims are the custom claims carried by an access token. The session
// version binds the token to the issuing login; a later login or a kill
// invalidates every previously issued token without a revocation list.
type AccessClaims struct {
	jwt.RegisteredClaims
	Handle         string          `json:"handle"`
	UserType       domain.UserType `json:"utype"`
	SessionVersion int64           `json:"sv"`
}

// RefreshClaims are the custom claims carried by a refresh token. The jti is
// persisted in refresh_tokens so individual tokens can be revoked.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Manager signs and validates both token kinds with separate secrets.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewManager creates a token manager.
func NewManager(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// RefreshExpiry returns the configured refresh token lifetime.
func (m *Manager) RefreshExpiry() time.Duration { return m.refreshExpiry }

// IssueAccess creates a signed access token bound to the user's current
// session version.
func (m *Manager) IssueAccess(user *domain.User) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			ID:        uuid.New().String(),
		},
		Handle:         user.Handle,
		UserType:       user.Type,
		SessionVersion: user.SessionVersion,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.accessSecret)
}

// IssueRefresh creates a signed refresh token and returns it with its jti and
// expiry for persistence.
func (m *Manager) IssueRefresh(userID uuid.UUID) (token, tokenID string, expiresAt time.Time, err error) {
	now := time.Now()
	tokenID = uuid.New().String()
	expiresAt = now.Add(m.refreshExpiry)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        tokenID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return signed, tokenID, expiresAt, nil
}

// ValidateAccess parses and validates an access token.
func (m *Manager) ValidateAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenString, claims, m.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateRefresh parses and validates a refresh token.
func (m *Manager) ValidateRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenString, claims, m.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}
