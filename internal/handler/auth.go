package handler

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/auth"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/guard"
	"github.com/luckytwelve/platform/internal/service"
)

// AuthHandler handles registration, login, refresh and logout.
type AuthHandler struct {
	svc     *service.AuthService
	pool    *pgxpool.Pool
	limiter *guard.RateLimiter
}

// NewAuthHandler creates a new AuthHandler with a per-IP login limiter.
func NewAuthHandler(svc *service.AuthService, pool *pgxpool.Pool) *AuthHandler {
	return &AuthHandler{
		svc:     svc,
		pool:    pool,
		limiter: guard.NewRateLimiter(10, time.Minute),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	user, err := h.svc.Register(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if err := h.limiter.Allow(ip); err != nil {
		RespondError(w, err)
		return
	}

	var input service.LoginInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if err := guard.CheckLocked(r.Context(), h.pool, input.Handle); err != nil {
		RespondError(w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), input, service.RequestMeta{
		IP:        ip,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// refreshRequest is the body of POST /api/auth/refresh-token.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /api/auth/refresh-token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		RespondError(w, domain.ErrValidation("refresh_token is required"))
		return
	}
	access, err := h.svc.RefreshAccess(r.Context(), req.RefreshToken)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"access_token": access})
}

// Logout handles POST /api/auth/logout (authenticated).
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		RespondError(w, domain.ErrUnauthorized("no auth context"))
		return
	}
	if err := h.svc.Logout(r.Context(), user.ID); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
