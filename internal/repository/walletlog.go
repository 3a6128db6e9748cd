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

type walletLogRepo struct{}

// NewWalletLogRepository returns a pgx-backed WalletLogRepository.
func NewWalletLogRepository() WalletLogRepository {
	return &walletLogRepo{}
}

func (r *walletLogRepo) Insert(ctx context.Context, db DBTX, log *domain.WalletLog) error {
	_, err := db.Exec(ctx, `
		INSERT INTO wallet_logs
			(id, user_id, transaction_type, transaction_direction, amount,
			 balance_after, reference_type, reference_id, reference_game_id, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		log.ID,
		log.UserID,
		log.Type,
		log.Direction,
		infra.Int64ToNumeric(log.Amount),
		infra.Int64ToNumeric(log.BalanceAfter),
		log.ReferenceType,
		log.ReferenceID,
		log.ReferenceGameID,
		log.Comment,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet log: %w", err)
	}
	return nil
}

func (r *walletLogRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, cursor *time.Time, limit int) ([]domain.WalletLog, error) {
	query := `
		SELECT id, user_id, transaction_type, transaction_direction, amount,
		       balance_after, reference_type, reference_id, reference_game_id, comment, created_at
		FROM wallet_logs
		WHERE user_id = $1`
	args := []interface{}{userID}
	if cursor != nil {
		query += ` AND created_at < $2`
		args = append(args, *cursor)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wallet logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.WalletLog
	for rows.Next() {
		l, err := scanWalletLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func (r *walletLogRepo) HasReference(ctx context.Context, db DBTX, refType domain.ReferenceType, refID string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM wallet_logs WHERE reference_type = $1 AND reference_id = $2
		)`, refType, refID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check wallet log reference: %w", err)
	}
	return exists, nil
}

func scanWalletLog(row pgx.Row) (*domain.WalletLog, error) {
	var l domain.WalletLog
	var amountNum, afterNum pgtype.Numeric
	err := row.Scan(&l.ID, &l.UserID, &l.Type, &l.Direction, &amountNum,
		&afterNum, &l.ReferenceType, &l.ReferenceID, &l.ReferenceGameID, &l.Comment, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan wallet log: %w", err)
	}
	if l.Amount, err = infra.NumericToInt64(amountNum); err != nil {
		return nil, fmt.Errorf("convert amount: %w", err)
	}
	if l.BalanceAfter, err = infra.NumericToInt64(afterNum); err != nil {
		return nil, fmt.Errorf("convert balance_after: %w", err)
	}
	return &l, nil
}
