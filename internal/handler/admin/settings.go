package admin

import (
	"net/http"

	"github.com/luckytwelve/platform/internal/auth"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/handler"
	"github.com/luckytwelve/platform/internal/settings"
)

// SettingsHandler exposes the full settings surface to operators.
type SettingsHandler struct {
	store *settings.Store
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store *settings.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// List handles GET /api/admin/settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.All(r.Context())
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("read settings", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, all)
}

// updateRequest is the body of PUT /api/admin/settings.
type updateRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Update handles PUT /api/admin/settings. New values take effect on the next
// round; the running round keeps the multiplier it was created with.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())
	var req updateRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if err := h.store.Set(r.Context(), req.Key, req.Value, &actor.ID); err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]string{req.Key: req.Value})
}
