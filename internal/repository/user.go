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

const userColumns = `id, handle, password_hash, status, user_type, balance, session_version, last_login, created_at, updated_at`

type userRepo struct{}

// NewUserRepository returns a pgx-backed UserRepository.
func NewUserRepository() UserRepository {
	return &userRepo{}
}

func (r *userRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error) {
	row := db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepo) FindByHandle(ctx context.Context, db DBTX, handle string) (*domain.User, error) {
	row := db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE handle = $1`, handle)
	return scanUser(row)
}

func (r *userRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error) {
	row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	return scanUser(row)
}

func (r *userRepo) Create(ctx context.Context, db DBTX, user *domain.User) error {
	_, err := db.Exec(ctx, `
		INSERT INTO users (id, handle, password_hash, status, user_type, balance, session_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID,
		user.Handle,
		user.PasswordHash,
		user.Status,
		user.Type,
		infra.Int64ToNumeric(user.Balance),
		user.SessionVersion,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) ApplyBalanceDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta int64) (*domain.User, error) {
	row := tx.QueryRow(ctx, `
		UPDATE users
		SET balance = balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, infra.Int64ToNumeric(delta), userID)
	return scanUser(row)
}

func (r *userRepo) BumpSession(ctx context.Context, tx pgx.Tx, userID uuid.UUID, at time.Time) (*domain.User, error) {
	row := tx.QueryRow(ctx, `
		UPDATE users
		SET session_version = session_version + 1, last_login = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, at, userID)
	return scanUser(row)
}

func (r *userRepo) UpdatePassword(ctx context.Context, db DBTX, userID uuid.UUID, hash string) error {
	tag, err := db.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("user", userID.String())
	}
	return nil
}

func (r *userRepo) UpdateStatus(ctx context.Context, db DBTX, userID uuid.UUID, status domain.UserStatus) error {
	tag, err := db.Exec(ctx, `
		UPDATE users SET status = $1, updated_at = now() WHERE id = $2`, status, userID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("user", userID.String())
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, db DBTX, status *domain.UserStatus, limit, offset int) ([]domain.User, error) {
	rows, err := db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var balNum pgtype.Numeric
	err := row.Scan(&u.ID, &u.Handle, &u.PasswordHash, &u.Status, &u.Type,
		&balNum, &u.SessionVersion, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Balance, err = infra.NumericToInt64(balNum)
	if err != nil {
		return nil, fmt.Errorf("convert balance: %w", err)
	}
	return &u, nil
}
