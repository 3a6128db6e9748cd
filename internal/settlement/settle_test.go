package settlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeDB struct{ repository.DBTX }

func (fakeDB) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

type fakeRounds struct {
	round     *domain.Round
	failedMsg string
}

func (f *fakeRounds) LockForUpdate(ctx context.Context, tx pgx.Tx, gameID string) (*domain.Round, error) {
	if f.round == nil || f.round.GameID != gameID {
		return nil, nil
	}
	r := *f.round
	return &r, nil
}

func (f *fakeRounds) MarkSettling(ctx context.Context, tx pgx.Tx, gameID string, at time.Time) error {
	switch f.round.SettlementStatus {
	case domain.SettlementNotSettled, domain.SettlementFailed:
		f.round.SettlementStatus = domain.SettlementSettling
		return nil
	default:
		return domain.ErrRoundSettled(gameID)
	}
}

func (f *fakeRounds) MarkSettled(ctx context.Context, tx pgx.Tx, gameID string, winningCard int, at time.Time) error {
	f.round.SettlementStatus = domain.SettlementSettled
	f.round.Status = domain.RoundCompleted
	f.round.WinningCard = &winningCard
	return nil
}

func (f *fakeRounds) MarkSettlementFailed(ctx context.Context, db repository.DBTX, gameID, errText string) error {
	switch f.round.SettlementStatus {
	case domain.SettlementNotSettled, domain.SettlementSettling:
		f.round.SettlementStatus = domain.SettlementFailed
		f.failedMsg = errText
	}
	return nil
}

type fakeSlips struct {
	markedCard   int
	outcomesErr  error
	outcomesRuns int
}

func (f *fakeSlips) MarkWinners(ctx context.Context, tx pgx.Tx, gameID string, winningCard int, multiplier pgtype.Numeric) error {
	f.markedCard = winningCard
	return nil
}

func (f *fakeSlips) ApplySettlementOutcomes(ctx context.Context, tx pgx.Tx, gameID string) error {
	f.outcomesRuns++
	return f.outcomesErr
}

type fakeOutbox struct{ repository.OutboxRepository }

func (fakeOutbox) Insert(ctx context.Context, db repository.DBTX, draft domain.OutboxDraft) error {
	return nil
}

type fakeAudits struct{ actions []string }

func (f *fakeAudits) Insert(ctx context.Context, db repository.DBTX, a *domain.AuditLog) error {
	f.actions = append(f.actions, a.Action)
	return nil
}

func completedRound() *domain.Round {
	return &domain.Round{
		GameID:           "202511131405",
		Status:           domain.RoundCompleted,
		SettlementStatus: domain.SettlementNotSettled,
		PayoutMultiplier: decimal.NewFromInt(10),
	}
}

func newTestEngine(round *domain.Round) (*Engine, *fakeRounds, *fakeSlips, *fakeAudits) {
	rounds := &fakeRounds{round: round}
	slips := &fakeSlips{}
	audits := &fakeAudits{}
	eng := NewEngine(fakeDB{}, rounds, slips, fakeOutbox{}, audits,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return eng, rounds, slips, audits
}

func TestSettleCompletedRound(t *testing.T) {
	round := completedRound()
	eng, rounds, slips, audits := newTestEngine(round)

	err := eng.Settle(context.Background(), round.GameID, 3, nil, false)
	require.NoError(t, err)

	assert.Equal(t, domain.SettlementSettled, rounds.round.SettlementStatus)
	require.NotNil(t, rounds.round.WinningCard)
	assert.Equal(t, 3, *rounds.round.WinningCard)
	assert.Equal(t, 3, slips.markedCard)
	assert.Equal(t, 1, slips.outcomesRuns)
	assert.Equal(t, []string{"round_settle"}, audits.actions)
}

func TestSettleTwice(t *testing.T) {
	round := completedRound()
	eng, _, slips, _ := newTestEngine(round)

	require.NoError(t, eng.Settle(context.Background(), round.GameID, 3, nil, false))

	err := eng.Settle(context.Background(), round.GameID, 7, nil, false)
	require.Error(t, err)
	assert.Equal(t, "ROUND_SETTLED", err.(*domain.AppError).Code)
	assert.Equal(t, 3, slips.markedCard, "second settle must not touch outcomes")
	assert.Equal(t, 1, slips.outcomesRuns)
}

func TestAutoSettleActiveRound(t *testing.T) {
	round := completedRound()
	round.Status = domain.RoundActive
	eng, rounds, _, _ := newTestEngine(round)

	err := eng.Settle(context.Background(), round.GameID, 5, nil, false)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", err.(*domain.AppError).Code)
	assert.Equal(t, domain.SettlementNotSettled, rounds.round.SettlementStatus)
}

func TestManualSettleActiveRound(t *testing.T) {
	round := completedRound()
	round.Status = domain.RoundActive
	eng, rounds, _, _ := newTestEngine(round)

	err := eng.Settle(context.Background(), round.GameID, 5, nil, true)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementSettled, rounds.round.SettlementStatus)
}

func TestSettleInvalidCard(t *testing.T) {
	round := completedRound()
	eng, _, _, _ := newTestEngine(round)

	for _, card := range []int{0, 13, -4} {
		err := eng.Settle(context.Background(), round.GameID, card, nil, true)
		require.Error(t, err, "card %d", card)
		assert.Equal(t, "VALIDATION_ERROR", err.(*domain.AppError).Code)
	}
}

func TestSettleUnknownRound(t *testing.T) {
	eng, _, _, _ := newTestEngine(completedRound())

	err := eng.Settle(context.Background(), "209901010000", 4, nil, false)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", err.(*domain.AppError).Code)
}

func TestSettleFailureMarksRoundFailed(t *testing.T) {
	round := completedRound()
	eng, rounds, slips, audits := newTestEngine(round)
	slips.outcomesErr = errors.New("division by zero")

	err := eng.Settle(context.Background(), round.GameID, 8, nil, false)
	require.Error(t, err)

	assert.Equal(t, domain.SettlementFailed, rounds.round.SettlementStatus)
	assert.Contains(t, rounds.failedMsg, "division by zero")
	assert.Empty(t, audits.actions)

	// The failure is not terminal: the next sweep retries and succeeds.
	slips.outcomesErr = nil
	require.NoError(t, eng.Settle(context.Background(), round.GameID, 8, nil, false))
	assert.Equal(t, domain.SettlementSettled, rounds.round.SettlementStatus)
}
