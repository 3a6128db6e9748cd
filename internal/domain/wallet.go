package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a wallet movement by origin.
type TransactionType string

const (
	TxRecharge   TransactionType = "recharge"
	TxWithdrawal TransactionType = "withdrawal"
	TxGame       TransactionType = "game"
)

// TransactionDirection is the sign of a wallet movement. Amounts are always
// positive; the direction carries the sign.
type TransactionDirection string

const (
	DirCredit TransactionDirection = "credit"
	DirDebit  TransactionDirection = "debit"
)

// ReferenceType names the business event that caused a ledger row.
type ReferenceType string

const (
	RefBetPlacement ReferenceType = "bet_placement"
	RefClaim        ReferenceType = "claim"
	RefCancellation ReferenceType = "cancellation"
	RefAdmin        ReferenceType = "admin"
)

// WalletLog is an append-only ledger row. Exactly one row exists per balance
// mutation, written in the same transaction. Ledger law: for every user,
// balance = Σ credits − Σ debits.
type WalletLog struct {
	ID              uuid.UUID            `json:"id"`
	UserID          uuid.UUID            `json:"user_id"`
	Type            TransactionType      `json:"transaction_type"`
	Direction       TransactionDirection `json:"transaction_direction"`
	Amount          int64                `json:"amount"`
	BalanceAfter    int64                `json:"balance_after"`
	ReferenceType   ReferenceType        `json:"reference_type"`
	ReferenceID     *string              `json:"reference_id,omitempty"`
	ReferenceGameID *string              `json:"reference_game_id,omitempty"`
	Comment         string               `json:"comment,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// LedgerEntry describes a pending wallet movement for the ledger engine.
type LedgerEntry struct {
	Type            TransactionType
	Direction       TransactionDirection
	Amount          int64 // > 0, minor units
	ReferenceType   ReferenceType
	ReferenceID     *string
	ReferenceGameID *string
	Comment         string
}

// AuditLog is an informational trail row; never consulted for correctness.
type AuditLog struct {
	ID         uuid.UUID  `json:"id"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Action     string     `json:"action"`
	TargetType string     `json:"target_type,omitempty"`
	TargetID   string     `json:"target_id,omitempty"`
	Details    string     `json:"details,omitempty"`
	IP         string     `json:"ip,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
