package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/repository"
)

type contextKey string

const (
	claimsKey contextKey = "auth_claims"
	userKey   contextKey = "auth_user"
)

// UserLoader resolves the current user row for session-version checks.
type UserLoader interface {
	FindByID(ctx context.Context, db repository.DBTX, id uuid.UUID) (*domain.User, error)
}

// ClaimsFromContext extracts access claims from the request context.
func ClaimsFromContext(ctx context.Context) *AccessClaims {
	claims, _ := ctx.Value(claimsKey).(*AccessClaims)
	return claims
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

// Authenticate returns middleware that validates the bearer token, loads the
// user and rejects tokens from superseded sessions. Every protected request
// pays one user lookup; that lookup is what makes kills take effect
// immediately instead of at token expiry.
func Authenticate(mgr *Manager, users UserLoader, db repository.DBTX) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := bearerClaims(r, mgr)
			if err != nil {
				unauthorized(w, "invalid or missing token")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				unauthorized(w, "invalid token subject")
				return
			}

			user, err := users.FindByID(r.Context(), db, userID)
			if err != nil || user == nil {
				unauthorized(w, "session is no longer valid")
				return
			}
			if user.SessionVersion != claims.SessionVersion {
				unauthorized(w, "session superseded by a newer login")
				return
			}
			if user.Status != domain.UserActive {
				forbidden(w, "account is "+string(user.Status))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin returns middleware that restricts a route to admin accounts.
// Must run after Authenticate.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				unauthorized(w, "no auth context")
				return
			}
			if !user.IsAdmin() {
				forbidden(w, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff restricts a route to admin or moderator accounts.
func RequireStaff() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				unauthorized(w, "no auth context")
				return
			}
			if user.Type != domain.TypeAdmin && user.Type != domain.TypeModerator {
				forbidden(w, "staff access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerClaims(r *http.Request, mgr *Manager) (*AccessClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, domain.ErrUnauthorized("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, domain.ErrUnauthorized("invalid Authorization format")
	}
	return mgr.ValidateAccess(parts[1])
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"code":"UNAUTHORIZED","message":"` + msg + `"}`))
}

func forbidden(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"code":"FORBIDDEN","message":"` + msg + `"}`))
}
