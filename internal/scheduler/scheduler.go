// Package scheduler drives the round machinery: creating rounds on the
// 5-minute grid, flipping lifecycle states, auto-settling completed rounds
// and healing state after a restart.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/clock"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/repository"
	"github.com/luckytwelve/platform/internal/round"
	"github.com/luckytwelve/platform/internal/settings"
	"github.com/luckytwelve/platform/internal/settlement"
)

const (
	stateInterval  = time.Minute
	settleInterval = 5 * time.Second

	// roundLead is how far before each grid boundary the next round is
	// created.
	roundLead = 30 * time.Second

	// manualGrace is how long after a round ends the sweep waits for an
	// operator result before settling it automatically.
	manualGrace = 10 * time.Second

	settleBatch = 10
)

// Scheduler owns the periodic ticks. Single-process; the status-predicated
// updates underneath keep an accidental second instance harmless.
type Scheduler struct {
	pool     *pgxpool.Pool
	rounds   *round.Manager
	roundsDB *repository.RoundRepository
	settler  *settlement.Engine
	selector *settlement.Selector
	settings *settings.Store
	clk      clock.Clock
	logger   *slog.Logger
}

// New creates a scheduler.
func New(
	pool *pgxpool.Pool,
	rounds *round.Manager,
	roundsDB *repository.RoundRepository,
	settler *settlement.Engine,
	selector *settlement.Selector,
	store *settings.Store,
	clk clock.Clock,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		pool:     pool,
		rounds:   rounds,
		roundsDB: roundsDB,
		settler:  settler,
		selector: selector,
		settings: store,
		clk:      clk,
		logger:   logger,
	}
}

// Recover heals state after a restart. Runs synchronously before the server
// accepts traffic: lifecycle flips first, then any rounds the downtime
// skipped, then one settlement sweep so nothing stays stuck.
func (s *Scheduler) Recover(ctx context.Context) error {
	if err := s.rounds.Transition(ctx); err != nil {
		return err
	}
	if _, err := s.rounds.Backfill(ctx); err != nil {
		return err
	}
	if _, err := s.rounds.EnsureNext(ctx); err != nil {
		return err
	}
	s.settleSweep(ctx)
	s.logger.Info("startup recovery complete")
	return nil
}

// Run blocks, driving the ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	// Fire the round tick on grid boundaries, not at arbitrary process start
	// offsets, so the next round always exists before its start time.
	roundTimer := time.NewTimer(time.Until(nextRoundFire(s.clk.Now())))
	stateTicker := time.NewTicker(stateInterval)
	settleTicker := time.NewTicker(settleInterval)
	defer roundTimer.Stop()
	defer stateTicker.Stop()
	defer settleTicker.Stop()

	s.logger.Info("scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-roundTimer.C:
			if _, err := s.rounds.EnsureNext(ctx); err != nil {
				s.logger.Error("create next round", "error", err)
			}
			roundTimer.Reset(time.Until(nextRoundFire(s.clk.Now())))
		case <-stateTicker.C:
			if err := s.rounds.Transition(ctx); err != nil {
				s.logger.Error("round transition", "error", err)
			}
		case <-settleTicker.C:
			s.settleSweep(ctx)
		}
	}
}

// settleSweep settles completed, unsettled rounds. In manual mode a grace
// window gives the operator first shot at picking the card; after it expires
// the round settles automatically like any other.
func (s *Scheduler) settleSweep(ctx context.Context) {
	mode, err := s.settings.ResultMode(ctx)
	if err != nil {
		s.logger.Error("read result mode", "error", err)
		return
	}

	cutoff := s.clk.Now().UTC()
	if mode == domain.ResultManual {
		cutoff = cutoff.Add(-manualGrace)
	}

	due, err := s.roundsDB.UnsettledCompleted(ctx, s.pool, cutoff, settleBatch)
	if err != nil {
		s.logger.Error("list unsettled rounds", "error", err)
		return
	}

	for i := range due {
		r := &due[i]
		card, err := s.pickCard(ctx, r.GameID)
		if err != nil {
			s.logger.Error("select winning card", "game_id", r.GameID, "error", err)
			card = s.selector.RandomCard()
		}
		if err := s.settler.Settle(ctx, r.GameID, card, nil, false); err != nil {
			s.logger.Error("auto settle", "game_id", r.GameID, "error", err)
		}
	}
}

// nextRoundFire returns the next instant the round tick fires: roundLead
// before the first grid boundary at least roundLead away. Shifting the input
// by roundLead keeps the result strictly in the future even when now already
// sits inside the lead window, so the timer never refires immediately.
func nextRoundFire(now time.Time) time.Time {
	return clock.NextBoundary(now.Add(roundLead)).Add(-roundLead)
}

func (s *Scheduler) pickCard(ctx context.Context, gameID string) (int, error) {
	rows, err := s.roundsDB.CardTotals(ctx, s.pool, gameID)
	if err != nil {
		return 0, err
	}
	totals := make([]int64, domain.CardCount)
	for _, ct := range rows {
		if ct.CardNumber >= 1 && ct.CardNumber <= domain.CardCount {
			totals[ct.CardNumber-1] = ct.TotalBetAmount
		}
	}
	return s.selector.Pick(totals)
}
