// Package admin holds the operator-facing HTTP surface. Every route here
// sits behind Authenticate plus a staff/admin check.
package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/auth"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/handler"
	"github.com/luckytwelve/platform/internal/repository"
	"github.com/luckytwelve/platform/internal/settlement"
)

// GamesHandler exposes settlement controls.
type GamesHandler struct {
	pool    *pgxpool.Pool
	rounds  *repository.RoundRepository
	settler *settlement.Engine
}

// NewGamesHandler creates a new GamesHandler.
func NewGamesHandler(pool *pgxpool.Pool, rounds *repository.RoundRepository, settler *settlement.Engine) *GamesHandler {
	return &GamesHandler{pool: pool, rounds: rounds, settler: settler}
}

// settleRequest is the body of POST /api/admin/games/{gameId}/settle.
type settleRequest struct {
	WinningCard int `json:"winning_card"`
}

// Settle handles POST /api/admin/games/{gameId}/settle. Manual settlement
// may resolve a still-active round early.
func (h *GamesHandler) Settle(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())
	gameID := chi.URLParam(r, "gameId")

	var req settleRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	if err := h.settler.Settle(r.Context(), gameID, req.WinningCard, &actor.ID, true); err != nil {
		handler.RespondError(w, err)
		return
	}

	round, err := h.rounds.FindByID(r.Context(), h.pool, gameID)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("find round", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, round)
}

// LiveSettlement handles GET /api/admin/games/live-settlement: the round the
// operator should act on next, with its card totals.
func (h *GamesHandler) LiveSettlement(w http.ResponseWriter, r *http.Request) {
	round, err := h.rounds.LiveSettlementView(r.Context(), h.pool)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("live settlement view", err))
		return
	}
	if round == nil {
		handler.RespondError(w, domain.ErrNotFound("round", "live"))
		return
	}
	totals, err := h.rounds.CardTotals(r.Context(), h.pool, round.GameID)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("card totals", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"round":       round,
		"card_totals": totals,
	})
}
