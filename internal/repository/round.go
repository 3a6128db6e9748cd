package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/infra"
)

const roundColumns = `game_id, start_time, end_time, status, winning_card, payout_multiplier,
	settlement_status, settlement_started_at, settlement_completed_at, settlement_error,
	created_at, updated_at`

// RoundRepository provides access to rounds and their per-card totals.
type RoundRepository struct{}

// NewRoundRepository returns a pgx-backed RoundRepository.
func NewRoundRepository() *RoundRepository {
	return &RoundRepository{}
}

// Create inserts a round plus its 12 zero card totals. A second insert of the
// same game_id is a silent no-op; created reports whether the row was new.
func (r *RoundRepository) Create(ctx context.Context, tx pgx.Tx, round *domain.Round) (created bool, err error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO rounds (game_id, start_time, end_time, status, payout_multiplier, settlement_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id) DO NOTHING`,
		round.GameID,
		round.StartTime,
		round.EndTime,
		round.Status,
		infra.DecimalToNumeric(round.PayoutMultiplier),
		round.SettlementStatus,
	)
	if err != nil {
		return false, fmt.Errorf("insert round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	for card := 1; card <= domain.CardCount; card++ {
		if _, err := tx.Exec(ctx, `
			INSERT INTO round_card_totals (game_id, card_number, total_bet_amount)
			VALUES ($1, $2, 0)`, round.GameID, card); err != nil {
			return false, fmt.Errorf("insert card total %d: %w", card, err)
		}
	}
	return true, nil
}

// FindByID returns a round by game id.
func (r *RoundRepository) FindByID(ctx context.Context, db DBTX, gameID string) (*domain.Round, error) {
	row := db.QueryRow(ctx, `SELECT `+roundColumns+` FROM rounds WHERE game_id = $1`, gameID)
	return scanRound(row)
}

// LockForUpdate acquires a row-level lock on the round.
func (r *RoundRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, gameID string) (*domain.Round, error) {
	row := tx.QueryRow(ctx, `SELECT `+roundColumns+` FROM rounds WHERE game_id = $1 FOR UPDATE`, gameID)
	return scanRound(row)
}

// ActivatePending flips pending rounds whose start time has passed. The
// status predicate makes racing calls idempotent.
func (r *RoundRepository) ActivatePending(ctx context.Context, db DBTX, now time.Time) (int64, error) {
	tag, err := db.Exec(ctx, `
		UPDATE rounds SET status = $1, updated_at = now()
		WHERE status = $2 AND start_time <= $3`,
		domain.RoundActive, domain.RoundPending, now)
	if err != nil {
		return 0, fmt.Errorf("activate pending rounds: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CompleteActive flips active rounds whose end time has passed.
func (r *RoundRepository) CompleteActive(ctx context.Context, db DBTX, now time.Time) (int64, error) {
	tag, err := db.Exec(ctx, `
		UPDATE rounds SET status = $1, updated_at = now()
		WHERE status = $2 AND end_time <= $3`,
		domain.RoundCompleted, domain.RoundActive, now)
	if err != nil {
		return 0, fmt.Errorf("complete active rounds: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CurrentActive returns the active round accepting bets at now, if any.
func (r *RoundRepository) CurrentActive(ctx context.Context, db DBTX, now time.Time) (*domain.Round, error) {
	row := db.QueryRow(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE status = $1 AND end_time > $2
		ORDER BY start_time DESC LIMIT 1`, domain.RoundActive, now)
	return scanRound(row)
}

// ListBetween returns rounds whose start time falls in [from, to), oldest first.
func (r *RoundRepository) ListBetween(ctx context.Context, db DBTX, from, to time.Time) ([]domain.Round, error) {
	rows, err := db.Query(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE start_time >= $1 AND start_time < $2
		ORDER BY start_time ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()
	return collectRounds(rows)
}

// RecentSettled returns the latest settled rounds, newest first.
func (r *RoundRepository) RecentSettled(ctx context.Context, db DBTX, limit int) ([]domain.Round, error) {
	rows, err := db.Query(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE settlement_status = $1
		ORDER BY start_time DESC LIMIT $2`, domain.SettlementSettled, limit)
	if err != nil {
		return nil, fmt.Errorf("list settled rounds: %w", err)
	}
	defer rows.Close()
	return collectRounds(rows)
}

// UnsettledCompleted returns completed, not-yet-settled rounds whose end time
// is at or before the cutoff, oldest first.
func (r *RoundRepository) UnsettledCompleted(ctx context.Context, db DBTX, cutoff time.Time, limit int) ([]domain.Round, error) {
	rows, err := db.Query(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE status = $1 AND settlement_status = $2 AND end_time <= $3
		ORDER BY start_time ASC LIMIT $4`,
		domain.RoundCompleted, domain.SettlementNotSettled, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsettled rounds: %w", err)
	}
	defer rows.Close()
	return collectRounds(rows)
}

// LiveSettlementView returns the round an operator should look at: any
// completed unsettled round first; otherwise the newest pending or active one.
func (r *RoundRepository) LiveSettlementView(ctx context.Context, db DBTX) (*domain.Round, error) {
	row := db.QueryRow(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE status = $1 AND settlement_status = $2
		ORDER BY start_time ASC LIMIT 1`,
		domain.RoundCompleted, domain.SettlementNotSettled)
	round, err := scanRound(row)
	if err != nil || round != nil {
		return round, err
	}

	row = db.QueryRow(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE status IN ($1, $2)
		ORDER BY start_time DESC LIMIT 1`,
		domain.RoundPending, domain.RoundActive)
	return scanRound(row)
}

// LatestGameID returns the most recent round id, or "" when no rounds exist.
func (r *RoundRepository) LatestGameID(ctx context.Context, db DBTX) (string, error) {
	var id string
	err := db.QueryRow(ctx, `SELECT game_id FROM rounds ORDER BY start_time DESC LIMIT 1`).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("latest game id: %w", err)
	}
	return id, nil
}

// CardTotals returns the 12 per-card totals of a round, ordered by card.
func (r *RoundRepository) CardTotals(ctx context.Context, db DBTX, gameID string) ([]domain.CardTotal, error) {
	rows, err := db.Query(ctx, `
		SELECT game_id, card_number, total_bet_amount
		FROM round_card_totals
		WHERE game_id = $1 ORDER BY card_number ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("card totals: %w", err)
	}
	defer rows.Close()

	var totals []domain.CardTotal
	for rows.Next() {
		var ct domain.CardTotal
		var num pgtype.Numeric
		if err := rows.Scan(&ct.GameID, &ct.CardNumber, &num); err != nil {
			return nil, fmt.Errorf("scan card total: %w", err)
		}
		if ct.TotalBetAmount, err = infra.NumericToInt64(num); err != nil {
			return nil, fmt.Errorf("convert card total: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// AddToCardTotal adjusts one card total with server-side arithmetic.
// Decrements clamp at zero so compensation can never underflow.
func (r *RoundRepository) AddToCardTotal(ctx context.Context, tx pgx.Tx, gameID string, card int, delta int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE round_card_totals
		SET total_bet_amount = GREATEST(total_bet_amount + $1, 0)
		WHERE game_id = $2 AND card_number = $3`,
		infra.Int64ToNumeric(delta), gameID, card)
	if err != nil {
		return fmt.Errorf("adjust card total: %w", err)
	}
	return nil
}

// MarkSettling transitions settlement_status to settling. A failed round may
// re-enter settling so a retry can recover it; a settled one never can.
func (r *RoundRepository) MarkSettling(ctx context.Context, tx pgx.Tx, gameID string, at time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE rounds
		SET settlement_status = $1, settlement_started_at = $2, updated_at = now()
		WHERE game_id = $3 AND settlement_status IN ($4, $5)`,
		domain.SettlementSettling, at, gameID, domain.SettlementNotSettled, domain.SettlementFailed)
	if err != nil {
		return fmt.Errorf("mark settling: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoundSettled(gameID)
	}
	return nil
}

// MarkSettled finalizes a settlement: winning card, settled status, completed
// round status, cleared error.
func (r *RoundRepository) MarkSettled(ctx context.Context, tx pgx.Tx, gameID string, winningCard int, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE rounds
		SET settlement_status = $1, winning_card = $2, settlement_completed_at = $3,
		    settlement_error = NULL, status = $4, updated_at = now()
		WHERE game_id = $5`,
		domain.SettlementSettled, winningCard, at, domain.RoundCompleted, gameID)
	if err != nil {
		return fmt.Errorf("mark settled: %w", err)
	}
	return nil
}

// MarkSettlementFailed records a settlement failure. Runs on the pool after
// the failed transaction rolled back, so the row may read not_settled or
// settling depending on where the failure hit.
func (r *RoundRepository) MarkSettlementFailed(ctx context.Context, db DBTX, gameID, errText string) error {
	_, err := db.Exec(ctx, `
		UPDATE rounds
		SET settlement_status = $1, settlement_error = $2, updated_at = now()
		WHERE game_id = $3 AND settlement_status IN ($4, $5)`,
		domain.SettlementFailed, errText, gameID, domain.SettlementNotSettled, domain.SettlementSettling)
	if err != nil {
		return fmt.Errorf("mark settlement failed: %w", err)
	}
	return nil
}

func scanRound(row pgx.Row) (*domain.Round, error) {
	var rd domain.Round
	var multNum pgtype.Numeric
	err := row.Scan(&rd.GameID, &rd.StartTime, &rd.EndTime, &rd.Status, &rd.WinningCard, &multNum,
		&rd.SettlementStatus, &rd.SettlementStartedAt, &rd.SettlementCompletedAt, &rd.SettlementError,
		&rd.CreatedAt, &rd.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan round: %w", err)
	}
	if rd.PayoutMultiplier, err = infra.NumericToDecimal(multNum); err != nil {
		return nil, fmt.Errorf("convert multiplier: %w", err)
	}
	return &rd, nil
}

func collectRounds(rows pgx.Rows) ([]domain.Round, error) {
	var rounds []domain.Round
	for rows.Next() {
		rd, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *rd)
	}
	return rounds, rows.Err()
}
