// Package ledger posts balance mutations. Every mutation updates the user's
// balance and appends exactly one wallet_logs row in the caller's transaction,
// so balance always equals the sum of the ledger.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/repository"
)

// Engine posts ledger entries. It never opens transactions itself; callers
// own the transaction boundary so a bet, its debit and its slip commit or
// roll back together.
type Engine struct {
	users  repository.UserRepository
	logs   repository.WalletLogRepository
	outbox repository.OutboxRepository
}

// NewEngine creates a ledger engine over the given repositories.
func NewEngine(users repository.UserRepository, logs repository.WalletLogRepository, outbox repository.OutboxRepository) *Engine {
	return &Engine{users: users, logs: logs, outbox: outbox}
}

// LockUser acquires the user's row lock for the duration of tx. All wallet
// mutations for a user serialize on this lock.
func (e *Engine) LockUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.User, error) {
	return e.users.LockForUpdate(ctx, tx, userID)
}

// Debit posts a debit against a locked user. The caller must hold the user's
// row lock. Fails with INSUFFICIENT_BALANCE when the entry exceeds the
// current balance.
func (e *Engine) Debit(ctx context.Context, tx pgx.Tx, user *domain.User, entry domain.LedgerEntry) (*domain.WalletLog, error) {
	entry.Direction = domain.DirDebit
	if err := e.check(user, entry); err != nil {
		return nil, err
	}
	if entry.Amount > user.Balance {
		return nil, domain.ErrInsufficientBalance(user.Balance)
	}
	return e.post(ctx, tx, user, entry, -entry.Amount)
}

// Credit posts a credit to a locked user.
func (e *Engine) Credit(ctx context.Context, tx pgx.Tx, user *domain.User, entry domain.LedgerEntry) (*domain.WalletLog, error) {
	entry.Direction = domain.DirCredit
	if err := e.check(user, entry); err != nil {
		return nil, err
	}
	return e.post(ctx, tx, user, entry, entry.Amount)
}

// HasPosted reports whether a ledger row with the given reference already
// exists. Used with the partial unique indexes to keep claims and
// cancellations single-shot.
func (e *Engine) HasPosted(ctx context.Context, db repository.DBTX, refType domain.ReferenceType, refID string) (bool, error) {
	return e.logs.HasReference(ctx, db, refType, refID)
}

func (e *Engine) check(user *domain.User, entry domain.LedgerEntry) error {
	if entry.Amount <= 0 {
		return domain.ErrValidation("amount must be positive")
	}
	if !user.CanTransact() {
		return domain.ErrAccountNotActive(user.Status)
	}
	return nil
}

func (e *Engine) post(ctx context.Context, tx pgx.Tx, user *domain.User, entry domain.LedgerEntry, delta int64) (*domain.WalletLog, error) {
	updated, err := e.users.ApplyBalanceDelta(ctx, tx, user.ID, delta)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return nil, domain.ErrInsufficientBalance(user.Balance)
		}
		return nil, err
	}

	log := &domain.WalletLog{
		ID:              uuid.New(),
		UserID:          user.ID,
		Type:            entry.Type,
		Direction:       entry.Direction,
		Amount:          entry.Amount,
		BalanceAfter:    updated.Balance,
		ReferenceType:   entry.ReferenceType,
		ReferenceID:     entry.ReferenceID,
		ReferenceGameID: entry.ReferenceGameID,
		Comment:         entry.Comment,
		CreatedAt:       time.Now().UTC(),
	}
	if err := e.logs.Insert(ctx, tx, log); err != nil {
		return nil, err
	}
	if err := e.outbox.Insert(ctx, tx, domain.NewWalletEntryEvent(log)); err != nil {
		return nil, err
	}

	user.Balance = updated.Balance
	return log, nil
}
