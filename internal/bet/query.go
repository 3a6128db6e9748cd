package bet

import (
	"context"

	"github.com/luckytwelve/platform/internal/barcode"
	"github.com/luckytwelve/platform/internal/domain"
)

// SlipView is a slip with its card wagers and round outcome, as returned by
// the scan-result and my-bets endpoints.
type SlipView struct {
	Slip        *domain.BetSlip    `json:"slip"`
	Details     []domain.BetDetail `json:"details"`
	WinningCard *int               `json:"winning_card,omitempty"`
}

// ScanResult looks up a slip by barcode without mutating anything. Counter
// staff scan first, then decide whether to claim.
func (s *Service) ScanResult(ctx context.Context, code string) (*SlipView, error) {
	normalized, err := barcode.Normalize(code)
	if err != nil {
		return nil, domain.ErrValidation("invalid barcode")
	}
	slip, err := s.slips.FindByBarcode(ctx, s.pool, normalized)
	if err != nil {
		return nil, domain.ErrInternal("find slip", err)
	}
	if slip == nil {
		return nil, domain.ErrNotFound("slip", normalized)
	}
	// Reject a colliding code that decodes to the wrong slip.
	if !s.codec.Verify(slip.GameID, slip.SlipID, normalized) {
		return nil, domain.ErrNotFound("slip", normalized)
	}
	return s.view(ctx, slip)
}

// SlipsForUser returns a user's newest slips with their details.
func (s *Service) SlipsForUser(ctx context.Context, user *domain.User, limit int) ([]SlipView, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	slips, err := s.slips.ListByUser(ctx, s.pool, user.ID, limit)
	if err != nil {
		return nil, domain.ErrInternal("list slips", err)
	}
	views := make([]SlipView, 0, len(slips))
	for i := range slips {
		v, err := s.view(ctx, &slips[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// RecentWinners returns the public winners feed with masked handles.
func (s *Service) RecentWinners(ctx context.Context, limit int) ([]domain.RecentWinner, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	winners, err := s.slips.RecentWinners(ctx, s.pool, limit)
	if err != nil {
		return nil, domain.ErrInternal("recent winners", err)
	}
	for i := range winners {
		winners[i].Handle = domain.MaskHandle(winners[i].Handle)
	}
	return winners, nil
}

func (s *Service) view(ctx context.Context, slip *domain.BetSlip) (*SlipView, error) {
	details, err := s.slips.DetailsBySlip(ctx, s.pool, slip.SlipID)
	if err != nil {
		return nil, domain.ErrInternal("load slip details", err)
	}
	v := &SlipView{Slip: slip, Details: details}
	round, err := s.rounds.FindByID(ctx, s.pool, slip.GameID)
	if err != nil {
		return nil, domain.ErrInternal("find round", err)
	}
	if round != nil && round.SettlementStatus == domain.SettlementSettled {
		v.WinningCard = round.WinningCard
	}
	return v, nil
}
