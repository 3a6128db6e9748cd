// Package round owns the round lifecycle: creating rounds on the 5-minute
// grid, flipping pending rounds active and active rounds completed, and
// backfilling rounds missed during downtime.
package round

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/clock"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/repository"
	"github.com/luckytwelve/platform/internal/settings"
)

// Manager creates and transitions rounds.
type Manager struct {
	pool     *pgxpool.Pool
	rounds   *repository.RoundRepository
	settings *settings.Store
	clk      clock.Clock
	logger   *slog.Logger
}

// NewManager creates a round manager.
func NewManager(pool *pgxpool.Pool, rounds *repository.RoundRepository, store *settings.Store, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{pool: pool, rounds: rounds, settings: store, clk: clk, logger: logger}
}

// EnsureNext creates the round starting at the next 5-minute boundary if the
// boundary falls inside the daily window. Creation is idempotent; a round
// that already exists is left alone.
func (m *Manager) EnsureNext(ctx context.Context) (*domain.Round, error) {
	now := m.clk.Now()
	start := clock.NextBoundary(now)
	round, _, err := m.ensureAt(ctx, start)
	return round, err
}

// ensureAt creates the round starting at the given boundary. Returns nil
// round (no error) when the boundary is outside the daily window.
func (m *Manager) ensureAt(ctx context.Context, start time.Time) (*domain.Round, bool, error) {
	open, close, err := m.settings.DailyWindow(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("read daily window: %w", err)
	}
	within, err := clock.WithinDailyWindow(start, open, close)
	if err != nil {
		return nil, false, fmt.Errorf("check daily window: %w", err)
	}
	if !within {
		return nil, false, nil
	}

	multiplier, err := m.settings.Number(ctx, settings.KeyGameMultiplier)
	if err != nil {
		return nil, false, fmt.Errorf("read multiplier: %w", err)
	}

	round := &domain.Round{
		GameID:           clock.GameID(start),
		StartTime:        start.UTC(),
		EndTime:          start.Add(clock.RoundInterval).UTC(),
		Status:           initialStatus(start, m.clk.Now()),
		PayoutMultiplier: multiplier,
		SettlementStatus: domain.SettlementNotSettled,
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := m.rounds.Create(ctx, tx, round)
	if err != nil {
		return nil, false, fmt.Errorf("create round %s: %w", round.GameID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	if created {
		m.logger.Info("round created", "game_id", round.GameID, "status", round.Status,
			"multiplier", round.PayoutMultiplier.String())
	}
	return round, created, nil
}

// initialStatus picks the lifecycle state for a freshly created round. A
// round starting within a minute (or already started) goes straight to
// active: the unaligned state tick could otherwise leave it pending well
// into its betting window.
func initialStatus(start, now time.Time) domain.RoundStatus {
	if start.Sub(now) <= time.Minute {
		return domain.RoundActive
	}
	return domain.RoundPending
}

// Transition flips due rounds: pending rounds whose start has passed become
// active, active rounds whose end has passed become completed. Status-
// predicated UPDATEs keep concurrent schedulers from double-flipping.
func (m *Manager) Transition(ctx context.Context) error {
	now := m.clk.Now().UTC()

	activated, err := m.rounds.ActivatePending(ctx, m.pool, now)
	if err != nil {
		return fmt.Errorf("activate pending: %w", err)
	}
	completed, err := m.rounds.CompleteActive(ctx, m.pool, now)
	if err != nil {
		return fmt.Errorf("complete active: %w", err)
	}
	if activated > 0 || completed > 0 {
		m.logger.Info("round transitions", "activated", activated, "completed", completed)
	}
	return nil
}

// Backfill creates any rounds on the 5-minute grid between the last known
// round and now that downtime skipped. Backfilled rounds that have already
// ended complete immediately (with no bets) and will be settled by the
// settlement sweep. Returns the number created.
func (m *Manager) Backfill(ctx context.Context) (int, error) {
	now := m.clk.Now()

	latest, err := m.rounds.LatestGameID(ctx, m.pool)
	if err != nil {
		return 0, fmt.Errorf("latest game id: %w", err)
	}

	var cursor time.Time
	if latest == "" {
		cursor = clock.NextBoundary(now)
	} else {
		last, err := clock.ParseGameID(latest)
		if err != nil {
			return 0, fmt.Errorf("parse latest game id %q: %w", latest, err)
		}
		cursor = last.Add(clock.RoundInterval)
	}

	created := 0
	for !cursor.After(clock.NextBoundary(now)) {
		_, fresh, err := m.ensureAt(ctx, cursor)
		if err != nil {
			return created, err
		}
		if fresh {
			created++
		}
		cursor = cursor.Add(clock.RoundInterval)
	}

	if created > 0 {
		m.logger.Info("rounds backfilled", "count", created)
	}
	// Flip whatever backfill produced into its correct lifecycle state.
	if err := m.Transition(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Current returns the round accepting bets right now, or nil outside the
// daily window.
func (m *Manager) Current(ctx context.Context) (*domain.Round, error) {
	return m.rounds.CurrentActive(ctx, m.pool, m.clk.Now().UTC())
}
