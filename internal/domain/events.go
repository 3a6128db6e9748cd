package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxDraft is an event staged in event_outbox within the transaction that
// produced it. The poller publishes drafts to Kafka after commit.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewWalletEntryEvent drafts an event for a posted ledger row.
func NewWalletEntryEvent(entry *WalletLog) OutboxDraft {
	payload, _ := json.Marshal(entry)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: "wallet",
		AggregateID:   entry.UserID.String(),
		EventType:     "entry_posted",
		Payload:       payload,
		OccurredAt:    entry.CreatedAt,
	}
}

// NewRoundSettledEvent drafts an event for a settled round.
func NewRoundSettledEvent(round *Round) OutboxDraft {
	payload, _ := json.Marshal(round)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: "round",
		AggregateID:   round.GameID,
		EventType:     "settled",
		Payload:       payload,
		OccurredAt:    time.Now().UTC(),
	}
}
