package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/luckytwelve/platform/internal/auth"
	"github.com/luckytwelve/platform/internal/bet"
	"github.com/luckytwelve/platform/internal/domain"
)

// BetHandler handles slip placement, cancellation, claims and lookups.
type BetHandler struct {
	svc *bet.Service
}

// NewBetHandler creates a new BetHandler.
func NewBetHandler(svc *bet.Service) *BetHandler {
	return &BetHandler{svc: svc}
}

func requestMeta(r *http.Request) bet.RequestMeta {
	return bet.RequestMeta{IP: clientIP(r), UserAgent: r.UserAgent()}
}

// Place handles POST /api/bets/place. The idempotency key may come from the
// X-Idempotency-Key header or the body; the header wins.
func (h *BetHandler) Place(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	var input bet.PlaceInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if key := r.Header.Get("X-Idempotency-Key"); key != "" {
		input.IdempotencyKey = key
	}

	result, err := h.svc.Place(r.Context(), user, input, requestMeta(r))
	if err != nil {
		RespondError(w, err)
		return
	}
	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	RespondJSON(w, status, result)
}

// Cancel handles POST /api/bets/cancel/{identifier}.
func (h *BetHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	identifier := chi.URLParam(r, "identifier")
	result, err := h.svc.Cancel(r.Context(), user, identifier, requestMeta(r))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// claimRequest is the body of POST /api/bets/claim.
type claimRequest struct {
	Identifier string `json:"identifier"`
}

// Claim handles POST /api/bets/claim.
func (h *BetHandler) Claim(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	var req claimRequest
	if err := DecodeJSON(r, &req); err != nil || req.Identifier == "" {
		RespondError(w, domain.ErrValidation("identifier is required"))
		return
	}
	result, err := h.svc.Claim(r.Context(), user, req.Identifier, requestMeta(r))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Result handles GET /api/bets/result/{identifier}: a public, read-only slip
// snapshot looked up by barcode.
func (h *BetHandler) Result(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	view, err := h.svc.ScanResult(r.Context(), identifier)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"slip":         view.Slip,
		"details":      view.Details,
		"winning_card": view.WinningCard,
		"cancelled":    view.Slip.IsCancelled(),
	})
}

// Mine handles GET /api/bets/me: the caller's slips, newest first.
func (h *BetHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	limit := queryInt(r, "limit", 20, 100)
	views, err := h.svc.SlipsForUser(r.Context(), user, limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"slips": views})
}
