package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/infra"
	"github.com/luckytwelve/platform/internal/repository"
)

// DB is the pool surface the engine needs.
type DB interface {
	repository.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RoundStore is the slice of the round repository settlement drives.
type RoundStore interface {
	LockForUpdate(ctx context.Context, tx pgx.Tx, gameID string) (*domain.Round, error)
	MarkSettling(ctx context.Context, tx pgx.Tx, gameID string, at time.Time) error
	MarkSettled(ctx context.Context, tx pgx.Tx, gameID string, winningCard int, at time.Time) error
	MarkSettlementFailed(ctx context.Context, db repository.DBTX, gameID, errText string) error
}

// SlipStore applies round outcomes to slips.
type SlipStore interface {
	MarkWinners(ctx context.Context, tx pgx.Tx, gameID string, winningCard int, multiplier pgtype.Numeric) error
	ApplySettlementOutcomes(ctx context.Context, tx pgx.Tx, gameID string) error
}

// AuditStore records settlements after commit.
type AuditStore interface {
	Insert(ctx context.Context, db repository.DBTX, a *domain.AuditLog) error
}

// Engine settles rounds. Settlement writes outcomes only; winnings reach
// wallets on claim, which keeps settlement free of per-user locking.
type Engine struct {
	pool   DB
	rounds RoundStore
	slips  SlipStore
	outbox repository.OutboxRepository
	audits AuditStore
	logger *slog.Logger
}

// NewEngine creates a settlement engine.
func NewEngine(
	pool DB,
	rounds RoundStore,
	slips SlipStore,
	outbox repository.OutboxRepository,
	audits AuditStore,
	logger *slog.Logger,
) *Engine {
	return &Engine{pool: pool, rounds: rounds, slips: slips, outbox: outbox, audits: audits, logger: logger}
}

// Settle resolves a round with the given winning card. Manual settlement may
// resolve a still-active round early; automatic settlement requires the
// round to have completed. A failure is recorded on the round and returned.
func (e *Engine) Settle(ctx context.Context, gameID string, winningCard int, actorID *uuid.UUID, manual bool) error {
	if err := domain.ValidateCard(winningCard); err != nil {
		return domain.ErrValidation(err.Error())
	}

	err := e.settle(ctx, gameID, winningCard, manual)
	if err != nil {
		if appErr, ok := err.(*domain.AppError); ok && appErr.Code != "INTERNAL_ERROR" {
			return err
		}
		// Record the failure outside the rolled-back transaction so the
		// round surfaces as failed instead of silently retrying forever.
		if markErr := e.rounds.MarkSettlementFailed(ctx, e.pool, gameID, err.Error()); markErr != nil {
			e.logger.Error("record settlement failure", "game_id", gameID, "error", markErr)
		}
		e.logger.Error("settlement failed", "game_id", gameID, "error", err)
		return err
	}

	e.logger.Info("round settled", "game_id", gameID, "winning_card", winningCard, "manual", manual)
	e.auditSettle(ctx, gameID, winningCard, actorID, manual)
	return nil
}

func (e *Engine) settle(ctx context.Context, gameID string, winningCard int, manual bool) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	round, err := e.rounds.LockForUpdate(ctx, tx, gameID)
	if err != nil {
		return domain.ErrInternal("lock round", err)
	}
	if round == nil {
		return domain.ErrNotFound("round", gameID)
	}
	if round.SettlementStatus == domain.SettlementSettled || round.SettlementStatus == domain.SettlementSettling {
		return domain.ErrRoundSettled(gameID)
	}
	switch round.Status {
	case domain.RoundCompleted:
	case domain.RoundActive:
		if !manual {
			return domain.ErrValidation(fmt.Sprintf("round %s is still active", gameID))
		}
	default:
		return domain.ErrValidation(fmt.Sprintf("round %s has not started", gameID))
	}

	now := time.Now().UTC()
	if err := e.rounds.MarkSettling(ctx, tx, gameID, now); err != nil {
		return err
	}

	if err := e.slips.MarkWinners(ctx, tx, gameID, winningCard, infra.DecimalToNumeric(round.PayoutMultiplier)); err != nil {
		return domain.ErrInternal("mark winners", err)
	}
	if err := e.slips.ApplySettlementOutcomes(ctx, tx, gameID); err != nil {
		return domain.ErrInternal("apply slip outcomes", err)
	}
	if err := e.rounds.MarkSettled(ctx, tx, gameID, winningCard, now); err != nil {
		return domain.ErrInternal("mark settled", err)
	}

	round.WinningCard = &winningCard
	round.Status = domain.RoundCompleted
	round.SettlementStatus = domain.SettlementSettled
	if err := e.outbox.Insert(ctx, tx, domain.NewRoundSettledEvent(round)); err != nil {
		return domain.ErrInternal("stage settle event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit", err)
	}
	return nil
}

func (e *Engine) auditSettle(ctx context.Context, gameID string, winningCard int, actorID *uuid.UUID, manual bool) {
	mode := "auto"
	if manual {
		mode = "manual"
	}
	err := e.audits.Insert(ctx, e.pool, &domain.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     "round_settle",
		TargetType: "round",
		TargetID:   gameID,
		Details:    fmt.Sprintf(`{"winning_card":%d,"mode":%q}`, winningCard, mode),
	})
	if err != nil {
		e.logger.Warn("audit insert failed", "action", "round_settle", "error", err)
	}
}
