package bet

import (
	"context"
	"time"

	"github.com/luckytwelve/platform/internal/domain"
)

// CancelResult is the refunded slip state.
type CancelResult struct {
	Slip     *domain.BetSlip `json:"slip"`
	Refunded int64           `json:"refunded"`
	Balance  int64           `json:"balance"`
}

// Cancel refunds a slip any time before its round settles. The refund is a
// compensating credit; the original debit stays in the ledger. Lock order is
// slip then user, same as Claim.
func (s *Service) Cancel(ctx context.Context, user *domain.User, identifier string, meta RequestMeta) (*CancelResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	slip, err := s.slips.LockByIdentifier(ctx, tx, identifier)
	if err != nil {
		return nil, domain.ErrInternal("lock slip", err)
	}
	if slip == nil {
		return nil, domain.ErrNotFound("slip", identifier)
	}
	if slip.UserID != user.ID && !user.IsAdmin() {
		return nil, domain.ErrForbidden("slip belongs to another user")
	}
	if slip.IsCancelled() {
		return nil, domain.ErrSlipCancelled()
	}
	if slip.Status != domain.SlipPending {
		return nil, domain.ErrRoundSettled(slip.GameID)
	}

	// Cancellation stays open until settlement starts; a completed round
	// waiting on its result (or stuck in failed) can still be refunded.
	round, err := s.rounds.FindByID(ctx, tx, slip.GameID)
	if err != nil {
		return nil, domain.ErrInternal("find round", err)
	}
	if round == nil {
		return nil, domain.ErrNotFound("round", slip.GameID)
	}
	if round.SettlementStatus == domain.SettlementSettled || round.SettlementStatus == domain.SettlementSettling {
		return nil, domain.ErrRoundSettled(slip.GameID)
	}

	owner, err := s.ledger.LockUser(ctx, tx, slip.UserID)
	if err != nil {
		return nil, domain.ErrInternal("lock user", err)
	}

	// The partial unique index on (reference_type, reference_id) backs this
	// check; a racing duplicate fails the insert instead of double-crediting.
	ref := slip.SlipID.String()
	posted, err := s.ledger.HasPosted(ctx, tx, domain.RefCancellation, ref)
	if err != nil {
		return nil, domain.ErrInternal("check prior refund", err)
	}
	if posted {
		return nil, domain.ErrSlipCancelled()
	}

	entry, err := s.ledger.Credit(ctx, tx, owner, domain.LedgerEntry{
		Type:            domain.TxGame,
		Amount:          slip.TotalAmount,
		ReferenceType:   domain.RefCancellation,
		ReferenceID:     &ref,
		ReferenceGameID: &slip.GameID,
		Comment:         "bet cancellation refund",
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.slips.MarkCancelled(ctx, tx, slip.SlipID, now); err != nil {
		return nil, domain.ErrInternal("mark cancelled", err)
	}

	details, err := s.slips.DetailsBySlip(ctx, tx, slip.SlipID)
	if err != nil {
		return nil, domain.ErrInternal("load slip details", err)
	}
	for _, d := range details {
		if err := s.rounds.AddToCardTotal(ctx, tx, slip.GameID, d.CardNumber, -d.BetAmount); err != nil {
			return nil, domain.ErrInternal("update card total", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit", err)
	}

	slip.CancelledAt = &now
	slip.Status = domain.SlipLost

	s.logger.Info("bet cancelled", "slip_id", slip.SlipID, "game_id", slip.GameID,
		"user_id", slip.UserID, "refunded", slip.TotalAmount)
	s.audit(ctx, user.ID, "bet_cancel", slip.SlipID.String(), meta)

	return &CancelResult{Slip: slip, Refunded: slip.TotalAmount, Balance: entry.BalanceAfter}, nil
}
