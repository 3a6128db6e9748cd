package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardCount is the size of the outcome space. Card numbers run 1..CardCount.
const CardCount = 12

// RoundStatus is the round lifecycle state. Transitions are monotonic:
// pending → active → completed.
type RoundStatus string

const (
	RoundPending   RoundStatus = "pending"
	RoundActive    RoundStatus = "active"
	RoundCompleted RoundStatus = "completed"
)

// SettlementStatus tracks the settlement state machine, also monotonic:
// not_settled → settling → (settled | failed).
type SettlementStatus string

const (
	SettlementNotSettled SettlementStatus = "not_settled"
	SettlementSettling   SettlementStatus = "settling"
	SettlementSettled    SettlementStatus = "settled"
	SettlementFailed     SettlementStatus = "failed"
)

// Round is one 5-minute betting window. GameID is the IST start time
// formatted YYYYMMDDHHMM; StartTime/EndTime are stored UTC.
type Round struct {
	GameID                string           `json:"game_id"`
	StartTime             time.Time        `json:"start_time"`
	EndTime               time.Time        `json:"end_time"`
	Status                RoundStatus      `json:"status"`
	WinningCard           *int             `json:"winning_card,omitempty"`
	PayoutMultiplier      decimal.Decimal  `json:"payout_multiplier"`
	SettlementStatus      SettlementStatus `json:"settlement_status"`
	SettlementStartedAt   *time.Time       `json:"settlement_started_at,omitempty"`
	SettlementCompletedAt *time.Time       `json:"settlement_completed_at,omitempty"`
	SettlementError       *string          `json:"settlement_error,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// AcceptsBets reports whether a bet placed at now would be admitted.
func (r *Round) AcceptsBets(now time.Time) bool {
	return r.Status == RoundActive && now.Before(r.EndTime)
}

// CardTotal is the wagered sum for one card of a round, adjusted only by bet
// placement and cancellation within their transactions.
type CardTotal struct {
	GameID         string `json:"game_id"`
	CardNumber     int    `json:"card_number"`
	TotalBetAmount int64  `json:"total_bet_amount"`
}

// ResultMode selects who picks the winning card.
type ResultMode string

const (
	ResultAuto   ResultMode = "auto"   // scheduler settles as soon as a round completes
	ResultManual ResultMode = "manual" // operator settles; scheduler falls back after a grace window
)
