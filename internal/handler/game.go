package handler

import (
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/bet"
	"github.com/luckytwelve/platform/internal/clock"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/repository"
	"github.com/luckytwelve/platform/internal/round"
	"github.com/luckytwelve/platform/internal/settings"
)

// GameHandler serves round state to clients.
type GameHandler struct {
	pool     *pgxpool.Pool
	rounds   *repository.RoundRepository
	manager  *round.Manager
	bets     *bet.Service
	settings *settings.Store
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(pool *pgxpool.Pool, rounds *repository.RoundRepository, manager *round.Manager, bets *bet.Service, store *settings.Store) *GameHandler {
	return &GameHandler{pool: pool, rounds: rounds, manager: manager, bets: bets, settings: store}
}

// roundSnapshot is a round with its live per-card totals.
type roundSnapshot struct {
	Round      *domain.Round      `json:"round"`
	CardTotals []domain.CardTotal `json:"card_totals"`
}

// Current handles GET /api/games/current.
func (h *GameHandler) Current(w http.ResponseWriter, r *http.Request) {
	rd, err := h.manager.Current(r.Context())
	if err != nil {
		RespondError(w, domain.ErrInternal("current round", err))
		return
	}
	if rd == nil {
		RespondError(w, domain.ErrNotFound("round", "current"))
		return
	}
	totals, err := h.rounds.CardTotals(r.Context(), h.pool, rd.GameID)
	if err != nil {
		RespondError(w, domain.ErrInternal("card totals", err))
		return
	}
	RespondJSON(w, http.StatusOK, roundSnapshot{Round: rd, CardTotals: totals})
}

// ByDate handles GET /api/games/by-date?date=YYYY-MM-DD, an IST calendar-day
// round listing.
func (h *GameHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	start, end, err := clock.ISTDayBounds(date)
	if err != nil {
		RespondError(w, domain.ErrValidation("date must be YYYY-MM-DD"))
		return
	}
	rounds, err := h.rounds.ListBetween(r.Context(), h.pool, start, end)
	if err != nil {
		RespondError(w, domain.ErrInternal("list rounds", err))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"rounds": rounds})
}

// RecentResults handles GET /api/games/recent-results: the newest settled
// rounds with their winning cards.
func (h *GameHandler) RecentResults(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10, 50)
	rounds, err := h.rounds.RecentSettled(r.Context(), h.pool, limit)
	if err != nil {
		RespondError(w, domain.ErrInternal("recent settled", err))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"rounds": rounds})
}

// RecentWinners handles GET /api/games/recent-winners: the public winners
// feed with masked handles.
func (h *GameHandler) RecentWinners(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10, 50)
	winners, err := h.bets.RecentWinners(r.Context(), limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"winners": winners})
}

// PublicSettings handles GET /api/settings/public.
func (h *GameHandler) PublicSettings(w http.ResponseWriter, r *http.Request) {
	public, err := h.settings.Public(r.Context())
	if err != nil {
		RespondError(w, domain.ErrInternal("read settings", err))
		return
	}
	RespondJSON(w, http.StatusOK, public)
}

func queryInt(r *http.Request, key string, def, max int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > max {
		return def
	}
	return n
}
