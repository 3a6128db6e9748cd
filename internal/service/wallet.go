package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/ledger"
	"github.com/luckytwelve/platform/internal/repository"
)

// WalletService handles operator-initiated wallet movements: recharges and
// withdrawals posted at the counter.
type WalletService struct {
	pool   *pgxpool.Pool
	users  repository.UserRepository
	audits *repository.AuditRepository
	ledger *ledger.Engine
	logger *slog.Logger
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	pool *pgxpool.Pool,
	users repository.UserRepository,
	audits *repository.AuditRepository,
	eng *ledger.Engine,
	logger *slog.Logger,
) *WalletService {
	return &WalletService{pool: pool, users: users, audits: audits, ledger: eng, logger: logger}
}

// AdjustInput describes an operator wallet adjustment.
type AdjustInput struct {
	Direction domain.TransactionDirection `json:"direction"`
	Amount    int64                       `json:"amount"`
	Comment   string                      `json:"comment,omitempty"`
}

// AdjustResult is the posted adjustment.
type AdjustResult struct {
	Entry   *domain.WalletLog `json:"entry"`
	Balance int64             `json:"balance"`
}

// Adjust credits or debits a user's wallet on behalf of an operator. The
// ledger row records the acting admin in its reference.
func (s *WalletService) Adjust(ctx context.Context, actor *domain.User, targetID uuid.UUID, input AdjustInput, meta RequestMeta) (*AdjustResult, error) {
	if err := domain.ValidatePositiveAmount(input.Amount); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	var txType domain.TransactionType
	switch input.Direction {
	case domain.DirCredit:
		txType = domain.TxRecharge
	case domain.DirDebit:
		txType = domain.TxWithdrawal
	default:
		return nil, domain.ErrValidation("direction must be credit or debit")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	target, err := s.ledger.LockUser(ctx, tx, targetID)
	if err != nil {
		return nil, domain.ErrInternal("lock user", err)
	}
	if target == nil {
		return nil, domain.ErrNotFound("user", targetID.String())
	}

	ref := actor.ID.String()
	entry := domain.LedgerEntry{
		Type:          txType,
		Amount:        input.Amount,
		ReferenceType: domain.RefAdmin,
		ReferenceID:   &ref,
		Comment:       input.Comment,
	}

	var row *domain.WalletLog
	if input.Direction == domain.DirCredit {
		row, err = s.ledger.Credit(ctx, tx, target, entry)
	} else {
		row, err = s.ledger.Debit(ctx, tx, target, entry)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit", err)
	}

	s.logger.Info("wallet adjusted", "target_id", targetID, "actor_id", actor.ID,
		"direction", input.Direction, "amount", input.Amount)
	s.audit(ctx, &domain.AuditLog{
		ID:         uuid.New(),
		ActorID:    &actor.ID,
		Action:     "wallet_adjust",
		TargetType: "user",
		TargetID:   targetID.String(),
		Details:    fmt.Sprintf(`{"direction":%q,"amount":%d}`, input.Direction, input.Amount),
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})

	return &AdjustResult{Entry: row, Balance: row.BalanceAfter}, nil
}

func (s *WalletService) audit(ctx context.Context, entry *domain.AuditLog) {
	if err := s.audits.Insert(ctx, s.pool, entry); err != nil {
		s.logger.Warn("audit insert failed", "action", entry.Action, "error", err)
	}
}
