package domain

import (
	"time"

	"github.com/google/uuid"
)

// SlipStatus is the slip outcome state. Slips stay pending until their round
// settles; a cancelled slip is forced to lost and additionally carries
// CancelledAt.
type SlipStatus string

const (
	SlipPending SlipStatus = "pending"
	SlipWon     SlipStatus = "won"
	SlipLost    SlipStatus = "lost"
)

// BetSlip groups one user's card bets within a round.
type BetSlip struct {
	SlipID         uuid.UUID  `json:"slip_id"`
	UserID         uuid.UUID  `json:"user_id"`
	GameID         string     `json:"game_id"`
	TotalAmount    int64      `json:"total_amount"`
	PayoutAmount   int64      `json:"payout_amount"`
	Status         SlipStatus `json:"status"`
	Claimed        bool       `json:"claimed"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	Barcode        string     `json:"barcode"`
	IdempotencyKey *string    `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsCancelled reports whether the slip was refunded before settlement.
func (s *BetSlip) IsCancelled() bool {
	return s.CancelledAt != nil
}

// Claimable reports whether a claim would currently succeed.
func (s *BetSlip) Claimable() bool {
	return !s.Claimed && !s.IsCancelled() && s.Status == SlipWon && s.PayoutAmount > 0
}

// BetDetail is a single card wager inside a slip.
type BetDetail struct {
	ID           uuid.UUID `json:"id"`
	SlipID       uuid.UUID `json:"slip_id"`
	GameID       string    `json:"game_id"`
	UserID       uuid.UUID `json:"user_id"`
	CardNumber   int       `json:"card_number"`
	BetAmount    int64     `json:"bet_amount"`
	IsWinner     bool      `json:"is_winner"`
	PayoutAmount int64     `json:"payout_amount"`
}

// BetInput is one card/amount pair in a place-bet request. Amounts are minor
// units.
type BetInput struct {
	CardNumber int   `json:"card_number"`
	BetAmount  int64 `json:"bet_amount"`
}

// RecentWinner is a public feed row for the recent-winners board. The handle
// is masked before leaving the API.
type RecentWinner struct {
	Handle       string    `json:"user_id"`
	GameID       string    `json:"game_id"`
	PayoutAmount int64     `json:"payout_amount"`
	WonAt        time.Time `json:"won_at"`
}

// MaskHandle hides the middle of a handle for public display.
func MaskHandle(handle string) string {
	if handle == "" {
		return "***"
	}
	if len(handle) <= 3 {
		return handle[:1] + "**"
	}
	return handle[:2] + "***" + handle[len(handle)-1:]
}
