package bet

import (
	"context"
	"time"

	"github.com/luckytwelve/platform/internal/domain"
)

// ClaimResult is the paid-out slip state.
type ClaimResult struct {
	Slip    *domain.BetSlip `json:"slip"`
	Payout  int64           `json:"payout"`
	Balance int64           `json:"balance"`
}

// Claim pays out a winning slip exactly once. The payout is credited to the
// slip's owner regardless of who presents the barcode; staff may claim on a
// player's behalf at the counter.
func (s *Service) Claim(ctx context.Context, caller *domain.User, identifier string, meta RequestMeta) (*ClaimResult, error) {
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
	if slip.UserID != caller.ID && caller.Type == domain.TypePlayer {
		return nil, domain.ErrForbidden("slip belongs to another user")
	}
	if slip.IsCancelled() {
		return nil, domain.ErrSlipCancelled()
	}
	if slip.Claimed {
		return nil, domain.ErrAlreadyClaimed()
	}
	if slip.Status == domain.SlipPending {
		return nil, domain.ErrValidation("round has not been settled yet")
	}
	if !slip.Claimable() {
		return nil, domain.ErrValidation("slip is not a winner")
	}

	owner, err := s.ledger.LockUser(ctx, tx, slip.UserID)
	if err != nil {
		return nil, domain.ErrInternal("lock user", err)
	}

	ref := slip.SlipID.String()
	posted, err := s.ledger.HasPosted(ctx, tx, domain.RefClaim, ref)
	if err != nil {
		return nil, domain.ErrInternal("check prior claim", err)
	}
	if posted {
		return nil, domain.ErrAlreadyClaimed()
	}

	entry, err := s.ledger.Credit(ctx, tx, owner, domain.LedgerEntry{
		Type:            domain.TxGame,
		Amount:          slip.PayoutAmount,
		ReferenceType:   domain.RefClaim,
		ReferenceID:     &ref,
		ReferenceGameID: &slip.GameID,
		Comment:         "winning claim",
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.slips.MarkClaimed(ctx, tx, slip.SlipID, now); err != nil {
		return nil, domain.ErrInternal("mark claimed", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit", err)
	}

	slip.Claimed = true
	slip.ClaimedAt = &now

	s.logger.Info("slip claimed", "slip_id", slip.SlipID, "game_id", slip.GameID,
		"owner_id", slip.UserID, "payout", slip.PayoutAmount, "claimed_by", caller.ID)
	s.audit(ctx, caller.ID, "bet_claim", slip.SlipID.String(), meta)

	return &ClaimResult{Slip: slip, Payout: slip.PayoutAmount, Balance: entry.BalanceAfter}, nil
}
