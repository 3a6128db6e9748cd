package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/luckytwelve/platform/internal/auth"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/handler"
	"github.com/luckytwelve/platform/internal/service"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	authSvc   *service.AuthService
	walletSvc *service.WalletService
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(authSvc *service.AuthService, walletSvc *service.WalletService) *UsersHandler {
	return &UsersHandler{authSvc: authSvc, walletSvc: walletSvc}
}

func meta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{IP: r.RemoteAddr, UserAgent: r.UserAgent()}
}

func targetID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid user id")
	}
	return id, nil
}

// List handles GET /api/admin/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *domain.UserStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.UserStatus(raw)
		status = &st
	}
	limit := intQuery(r, "limit", 50)
	offset := intQuery(r, "offset", 0)

	users, err := h.authSvc.ListUsers(r.Context(), status, limit, offset)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// Get handles GET /api/admin/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := targetID(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	user, err := h.authSvc.GetUser(r.Context(), id)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, user)
}

// AdjustWallet handles POST /api/admin/users/{id}/wallet.
func (h *UsersHandler) AdjustWallet(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())
	id, err := targetID(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	var input service.AdjustInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	result, err := h.walletSvc.Adjust(r.Context(), actor, id, input, meta(r))
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, result)
}

// KillSessions handles POST /api/admin/users/{id}/kill-sessions.
func (h *UsersHandler) KillSessions(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())
	id, err := targetID(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	if err := h.authSvc.KillSessions(r.Context(), actor, id, meta(r)); err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]string{"status": "sessions_killed"})
}

// resetPasswordRequest is the body of POST /api/admin/users/{id}/reset-password.
type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword handles POST /api/admin/users/{id}/reset-password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())
	id, err := targetID(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	var req resetPasswordRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if err := h.authSvc.ResetPassword(r.Context(), actor, id, req.Password, meta(r)); err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]string{"status": "password_reset"})
}

// statusRequest is the body of PUT /api/admin/users/{id}/status.
type statusRequest struct {
	Status domain.UserStatus `json:"status"`
}

// SetStatus handles PUT /api/admin/users/{id}/status.
func (h *UsersHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())
	id, err := targetID(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	var req statusRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if err := h.authSvc.SetStatus(r.Context(), actor, id, req.Status, meta(r)); err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// LoginHistory handles GET /api/admin/users/login-history.
func (h *UsersHandler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.authSvc.LoginHistory(r.Context(), r.URL.Query().Get("user_id"), intQuery(r, "limit", 50))
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

func intQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
