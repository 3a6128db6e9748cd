package bet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/settings"
)

// PlaceInput is a place-bet request.
type PlaceInput struct {
	GameID         string            `json:"game_id"`
	Bets           []domain.BetInput `json:"bets"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// PlaceResult is the slip produced (or replayed) by Place.
type PlaceResult struct {
	Slip      *domain.BetSlip    `json:"slip"`
	Details   []domain.BetDetail `json:"details"`
	Balance   int64              `json:"balance"`
	Duplicate bool               `json:"duplicate,omitempty"`
}

// Place debits the stake and creates a slip atomically. With an idempotency
// key, a replay returns the original slip without debiting again.
func (s *Service) Place(ctx context.Context, user *domain.User, input PlaceInput, meta RequestMeta) (*PlaceResult, error) {
	maxPerCard, err := s.settings.Int64(ctx, settings.KeyMaximumLimit)
	if err != nil {
		return nil, domain.ErrInternal("read bet limit", err)
	}
	total, err := domain.ValidateBets(input.Bets, maxPerCard)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	// The user's row lock serializes this slip against every other wallet
	// mutation for the account, including a concurrent replay of the same
	// idempotency key.
	locked, err := s.ledger.LockUser(ctx, tx, user.ID)
	if err != nil {
		return nil, domain.ErrInternal("lock user", err)
	}
	if locked == nil {
		return nil, domain.ErrNotFound("user", user.ID.String())
	}

	if input.IdempotencyKey != "" {
		prior, err := s.slips.FindByIdempotencyKey(ctx, tx, input.IdempotencyKey)
		if err != nil {
			return nil, domain.ErrInternal("check idempotency key", err)
		}
		if prior != nil {
			if prior.UserID != user.ID {
				return nil, domain.ErrConflict("idempotency key belongs to another user")
			}
			details, err := s.slips.DetailsBySlip(ctx, tx, prior.SlipID)
			if err != nil {
				return nil, domain.ErrInternal("load slip details", err)
			}
			return &PlaceResult{Slip: prior, Details: details, Balance: locked.Balance, Duplicate: true}, nil
		}
	}

	round, err := s.rounds.FindByID(ctx, tx, input.GameID)
	if err != nil {
		return nil, domain.ErrInternal("find round", err)
	}
	if round == nil {
		return nil, domain.ErrNotFound("round", input.GameID)
	}
	if !round.AcceptsBets(s.clk.Now().UTC()) {
		return nil, domain.ErrRoundClosed(input.GameID)
	}

	slipID := uuid.New()
	ref := slipID.String()
	entry, err := s.ledger.Debit(ctx, tx, locked, domain.LedgerEntry{
		Type:            domain.TxGame,
		Amount:          total,
		ReferenceType:   domain.RefBetPlacement,
		ReferenceID:     &ref,
		ReferenceGameID: &round.GameID,
		Comment:         "bet placement",
	})
	if err != nil {
		return nil, err
	}

	slip := &domain.BetSlip{
		SlipID:      slipID,
		UserID:      user.ID,
		GameID:      round.GameID,
		TotalAmount: total,
		Status:      domain.SlipPending,
		Barcode:     s.codec.Encode(round.GameID, slipID),
		CreatedAt:   time.Now().UTC(),
	}
	if input.IdempotencyKey != "" {
		slip.IdempotencyKey = &input.IdempotencyKey
	}
	if err := s.slips.Insert(ctx, tx, slip); err != nil {
		return nil, domain.ErrInternal("insert slip", err)
	}

	details := make([]domain.BetDetail, 0, len(input.Bets))
	for _, b := range input.Bets {
		d := domain.BetDetail{
			ID:         uuid.New(),
			SlipID:     slipID,
			GameID:     round.GameID,
			UserID:     user.ID,
			CardNumber: b.CardNumber,
			BetAmount:  b.BetAmount,
		}
		if err := s.slips.InsertDetail(ctx, tx, &d); err != nil {
			return nil, domain.ErrInternal("insert bet detail", err)
		}
		if err := s.rounds.AddToCardTotal(ctx, tx, round.GameID, b.CardNumber, b.BetAmount); err != nil {
			return nil, domain.ErrInternal("update card total", err)
		}
		details = append(details, d)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit", err)
	}

	s.logger.Info("bet placed", "slip_id", slipID, "game_id", round.GameID,
		"user_id", user.ID, "total", total, "cards", len(details))
	s.audit(ctx, user.ID, "bet_place", slipID.String(), meta)

	return &PlaceResult{Slip: slip, Details: details, Balance: entry.BalanceAfter}, nil
}
