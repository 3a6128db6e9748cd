// Package bet implements slip placement, cancellation, claiming and slip
// queries. Every mutation runs in a single transaction with the user's row
// lock held, so the balance, the ledger and the slip move together.
package bet

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/luckytwelve/platform/internal/barcode"
	"github.com/luckytwelve/platform/internal/clock"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/ledger"
	"github.com/luckytwelve/platform/internal/repository"
)

// DB is the pool surface the service needs: queries outside transactions and
// opening new ones.
type DB interface {
	repository.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SlipStore is the slice of the slip repository the bet engines touch.
type SlipStore interface {
	Insert(ctx context.Context, tx pgx.Tx, slip *domain.BetSlip) error
	InsertDetail(ctx context.Context, tx pgx.Tx, d *domain.BetDetail) error
	FindByBarcode(ctx context.Context, db repository.DBTX, code string) (*domain.BetSlip, error)
	FindByIdempotencyKey(ctx context.Context, db repository.DBTX, key string) (*domain.BetSlip, error)
	LockByIdentifier(ctx context.Context, tx pgx.Tx, identifier string) (*domain.BetSlip, error)
	DetailsBySlip(ctx context.Context, db repository.DBTX, slipID uuid.UUID) ([]domain.BetDetail, error)
	ListByUser(ctx context.Context, db repository.DBTX, userID uuid.UUID, limit int) ([]domain.BetSlip, error)
	MarkCancelled(ctx context.Context, tx pgx.Tx, slipID uuid.UUID, at time.Time) error
	MarkClaimed(ctx context.Context, tx pgx.Tx, slipID uuid.UUID, at time.Time) error
	RecentWinners(ctx context.Context, db repository.DBTX, limit int) ([]domain.RecentWinner, error)
}

// RoundStore is the slice of the round repository the bet engines touch.
type RoundStore interface {
	FindByID(ctx context.Context, db repository.DBTX, gameID string) (*domain.Round, error)
	AddToCardTotal(ctx context.Context, tx pgx.Tx, gameID string, card int, delta int64) error
}

// AuditStore records actions after commit.
type AuditStore interface {
	Insert(ctx context.Context, db repository.DBTX, a *domain.AuditLog) error
}

// LimitSource reads the per-card bet limit.
type LimitSource interface {
	Int64(ctx context.Context, key string) (int64, error)
}

// Service coordinates bet operations.
type Service struct {
	pool     DB
	slips    SlipStore
	rounds   RoundStore
	audits   AuditStore
	ledger   *ledger.Engine
	settings LimitSource
	codec    *barcode.Codec
	clk      clock.Clock
	logger   *slog.Logger
}

// NewService creates a bet service.
func NewService(
	pool DB,
	slips SlipStore,
	rounds RoundStore,
	audits AuditStore,
	eng *ledger.Engine,
	store LimitSource,
	codec *barcode.Codec,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		pool:     pool,
		slips:    slips,
		rounds:   rounds,
		audits:   audits,
		ledger:   eng,
		settings: store,
		codec:    codec,
		clk:      clk,
		logger:   logger,
	}
}

func (s *Service) audit(ctx context.Context, actorID uuid.UUID, action, targetID string, meta RequestMeta) {
	err := s.audits.Insert(ctx, s.pool, &domain.AuditLog{
		ID:         uuid.New(),
		ActorID:    &actorID,
		Action:     action,
		TargetType: "bet_slip",
		TargetID:   targetID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	if err != nil {
		s.logger.Warn("audit insert failed", "action", action, "error", err)
	}
}

// RequestMeta carries client details for the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}
