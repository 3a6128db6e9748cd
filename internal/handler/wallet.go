package handler

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/auth"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/repository"
)

// WalletHandler serves balances and ledger history.
type WalletHandler struct {
	pool *pgxpool.Pool
	logs repository.WalletLogRepository
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(pool *pgxpool.Pool, logs repository.WalletLogRepository) *WalletHandler {
	return &WalletHandler{pool: pool, logs: logs}
}

// Balance handles GET /api/wallet/balance.
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"balance": user.Balance,
	})
}

// txListResponse wraps a page of ledger rows with the next cursor.
type txListResponse struct {
	Transactions []domain.WalletLog `json:"transactions"`
	NextCursor   *string            `json:"next_cursor,omitempty"`
}

// Transactions handles GET /api/wallet/transactions with cursor-based
// pagination on created_at.
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	limit := queryInt(r, "limit", 20, 100)

	var cursor *time.Time
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			RespondError(w, domain.ErrValidation("cursor must be RFC3339"))
			return
		}
		cursor = &t
	}

	logs, err := h.logs.ListByUser(r.Context(), h.pool, user.ID, cursor, limit)
	if err != nil {
		RespondError(w, domain.ErrInternal("list transactions", err))
		return
	}

	resp := txListResponse{Transactions: logs}
	if len(logs) == limit {
		next := logs[len(logs)-1].CreatedAt.Format(time.RFC3339Nano)
		resp.NextCursor = &next
	}
	RespondJSON(w, http.StatusOK, resp)
}
