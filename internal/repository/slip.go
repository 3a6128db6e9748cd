package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/infra"
)

const slipColumns = `slip_id, user_id, game_id, total_amount, payout_amount, status,
	claimed, claimed_at, cancelled_at, barcode, idempotency_key, created_at`

// SlipRepository provides access to bet slips and their details.
type SlipRepository struct{}

// NewSlipRepository returns a pgx-backed SlipRepository.
func NewSlipRepository() *SlipRepository {
	return &SlipRepository{}
}

// Insert creates a slip row.
func (r *SlipRepository) Insert(ctx context.Context, tx pgx.Tx, slip *domain.BetSlip) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bet_slips
			(slip_id, user_id, game_id, total_amount, payout_amount, status,
			 claimed, barcode, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		slip.SlipID,
		slip.UserID,
		slip.GameID,
		infra.Int64ToNumeric(slip.TotalAmount),
		infra.Int64ToNumeric(slip.PayoutAmount),
		slip.Status,
		slip.Claimed,
		slip.Barcode,
		slip.IdempotencyKey,
		slip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert slip: %w", err)
	}
	return nil
}

// InsertDetail creates one card wager row.
func (r *SlipRepository) InsertDetail(ctx context.Context, tx pgx.Tx, d *domain.BetDetail) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bet_details (id, slip_id, game_id, user_id, card_number, bet_amount)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.SlipID, d.GameID, d.UserID, d.CardNumber, infra.Int64ToNumeric(d.BetAmount))
	if err != nil {
		return fmt.Errorf("insert bet detail: %w", err)
	}
	return nil
}

// FindBySlipID returns a slip by uuid.
func (r *SlipRepository) FindBySlipID(ctx context.Context, db DBTX, slipID uuid.UUID) (*domain.BetSlip, error) {
	row := db.QueryRow(ctx, `SELECT `+slipColumns+` FROM bet_slips WHERE slip_id = $1`, slipID)
	return scanSlip(row)
}

// FindByBarcode returns a slip by its printable code (stored uppercase).
func (r *SlipRepository) FindByBarcode(ctx context.Context, db DBTX, code string) (*domain.BetSlip, error) {
	row := db.QueryRow(ctx, `SELECT `+slipColumns+` FROM bet_slips WHERE barcode = upper($1)`, code)
	return scanSlip(row)
}

// FindByIdempotencyKey returns the slip created by a prior request with the
// same key, if any.
func (r *SlipRepository) FindByIdempotencyKey(ctx context.Context, db DBTX, key string) (*domain.BetSlip, error) {
	row := db.QueryRow(ctx, `SELECT `+slipColumns+` FROM bet_slips WHERE idempotency_key = $1`, key)
	return scanSlip(row)
}

// LockByIdentifier locks a slip addressed either by its uuid or its barcode.
func (r *SlipRepository) LockByIdentifier(ctx context.Context, tx pgx.Tx, identifier string) (*domain.BetSlip, error) {
	if slipID, err := uuid.Parse(identifier); err == nil {
		row := tx.QueryRow(ctx, `SELECT `+slipColumns+` FROM bet_slips WHERE slip_id = $1 FOR UPDATE`, slipID)
		return scanSlip(row)
	}
	row := tx.QueryRow(ctx, `SELECT `+slipColumns+` FROM bet_slips WHERE barcode = upper($1) FOR UPDATE`, identifier)
	return scanSlip(row)
}

// DetailsBySlip returns a slip's card wagers ordered by card number.
func (r *SlipRepository) DetailsBySlip(ctx context.Context, db DBTX, slipID uuid.UUID) ([]domain.BetDetail, error) {
	rows, err := db.Query(ctx, `
		SELECT id, slip_id, game_id, user_id, card_number, bet_amount, is_winner, payout_amount
		FROM bet_details WHERE slip_id = $1 ORDER BY card_number ASC`, slipID)
	if err != nil {
		return nil, fmt.Errorf("list bet details: %w", err)
	}
	defer rows.Close()

	var details []domain.BetDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, rows.Err()
}

// ListByUser returns a user's slips, newest first.
func (r *SlipRepository) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.BetSlip, error) {
	rows, err := db.Query(ctx, `
		SELECT `+slipColumns+` FROM bet_slips
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list slips: %w", err)
	}
	defer rows.Close()

	var slips []domain.BetSlip
	for rows.Next() {
		s, err := scanSlip(rows)
		if err != nil {
			return nil, err
		}
		slips = append(slips, *s)
	}
	return slips, rows.Err()
}

// MarkWinners bulk-tags a round's details: the winning card gets
// payout = bet_amount × multiplier (rounded to minor units), the rest zero.
// Details of cancelled slips are left untouched.
func (r *SlipRepository) MarkWinners(ctx context.Context, tx pgx.Tx, gameID string, winningCard int, multiplier pgtype.Numeric) error {
	_, err := tx.Exec(ctx, `
		UPDATE bet_details d
		SET is_winner = (card_number = $1),
		    payout_amount = CASE
		        WHEN card_number = $1 THEN round(bet_amount * $2)
		        ELSE 0
		    END
		FROM bet_slips s
		WHERE d.game_id = $3 AND s.slip_id = d.slip_id AND s.cancelled_at IS NULL`,
		winningCard, multiplier, gameID)
	if err != nil {
		return fmt.Errorf("mark winners: %w", err)
	}
	return nil
}

// ApplySettlementOutcomes rolls detail payouts up to their slips and flips
// status to won/lost. Cancelled slips are excluded; their payout stays zero
// and their status stays lost.
func (r *SlipRepository) ApplySettlementOutcomes(ctx context.Context, tx pgx.Tx, gameID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE bet_slips s
		SET payout_amount = d.total,
		    status = CASE WHEN d.total > 0 THEN 'won' ELSE 'lost' END
		FROM (
			SELECT slip_id, COALESCE(SUM(payout_amount), 0) AS total
			FROM bet_details WHERE game_id = $1 GROUP BY slip_id
		) d
		WHERE s.slip_id = d.slip_id AND s.cancelled_at IS NULL`, gameID)
	if err != nil {
		return fmt.Errorf("apply settlement outcomes: %w", err)
	}
	return nil
}

// MarkCancelled stamps cancelled_at and forces the slip out of contention.
func (r *SlipRepository) MarkCancelled(ctx context.Context, tx pgx.Tx, slipID uuid.UUID, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE bet_slips SET cancelled_at = $1, status = $2 WHERE slip_id = $3`,
		at, domain.SlipLost, slipID)
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}
	return nil
}

// MarkClaimed stamps the at-most-once claim flag.
func (r *SlipRepository) MarkClaimed(ctx context.Context, tx pgx.Tx, slipID uuid.UUID, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE bet_slips SET claimed = true, claimed_at = $1 WHERE slip_id = $2`, at, slipID)
	if err != nil {
		return fmt.Errorf("mark claimed: %w", err)
	}
	return nil
}

func scanSlip(row pgx.Row) (*domain.BetSlip, error) {
	var s domain.BetSlip
	var totalNum, payoutNum pgtype.Numeric
	err := row.Scan(&s.SlipID, &s.UserID, &s.GameID, &totalNum, &payoutNum, &s.Status,
		&s.Claimed, &s.ClaimedAt, &s.CancelledAt, &s.Barcode, &s.IdempotencyKey, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan slip: %w", err)
	}
	if s.TotalAmount, err = infra.NumericToInt64(totalNum); err != nil {
		return nil, fmt.Errorf("convert total_amount: %w", err)
	}
	if s.PayoutAmount, err = infra.NumericToInt64(payoutNum); err != nil {
		return nil, fmt.Errorf("convert payout_amount: %w", err)
	}
	return &s, nil
}

func scanDetail(row pgx.Row) (*domain.BetDetail, error) {
	var d domain.BetDetail
	var betNum, payoutNum pgtype.Numeric
	err := row.Scan(&d.ID, &d.SlipID, &d.GameID, &d.UserID, &d.CardNumber, &betNum, &d.IsWinner, &payoutNum)
	if err != nil {
		return nil, fmt.Errorf("scan bet detail: %w", err)
	}
	if d.BetAmount, err = infra.NumericToInt64(betNum); err != nil {
		return nil, fmt.Errorf("convert bet_amount: %w", err)
	}
	if d.PayoutAmount, err = infra.NumericToInt64(payoutNum); err != nil {
		return nil, fmt.Errorf("convert payout_amount: %w", err)
	}
	return &d, nil
}

// RecentWinners returns the newest winning slips with positive payouts for
// the public winners board.
func (r *SlipRepository) RecentWinners(ctx context.Context, db DBTX, limit int) ([]domain.RecentWinner, error) {
	rows, err := db.Query(ctx, `
		SELECT u.handle, s.game_id, s.payout_amount, s.created_at
		FROM bet_slips s
		JOIN users u ON u.id = s.user_id
		WHERE s.status = 'won' AND s.payout_amount > 0
		ORDER BY s.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent winners: %w", err)
	}
	defer rows.Close()

	var out []domain.RecentWinner
	for rows.Next() {
		var w domain.RecentWinner
		var payout pgtype.Numeric
		if err := rows.Scan(&w.Handle, &w.GameID, &payout, &w.WonAt); err != nil {
			return nil, fmt.Errorf("scan winner: %w", err)
		}
		if w.PayoutAmount, err = infra.NumericToInt64(payout); err != nil {
			return nil, fmt.Errorf("convert payout: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
