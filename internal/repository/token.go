package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/luckytwelve/platform/internal/domain"
)

// TokenRepository provides access to refresh_tokens and login_history.
type TokenRepository struct{}

// NewTokenRepository returns a pgx-backed TokenRepository.
func NewTokenRepository() *TokenRepository {
	return &TokenRepository{}
}

// Insert stores a freshly issued refresh token record.
func (r *TokenRepository) Insert(ctx context.Context, db DBTX, t *domain.RefreshToken) error {
	_, err := db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_id, revoked, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.UserID, t.TokenID, t.Revoked, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// FindByTokenID returns a refresh token record by its jti.
func (r *TokenRepository) FindByTokenID(ctx context.Context, db DBTX, tokenID string) (*domain.RefreshToken, error) {
	row := db.QueryRow(ctx, `
		SELECT id, user_id, token_id, revoked, expires_at, created_at
		FROM refresh_tokens WHERE token_id = $1`, tokenID)
	var t domain.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenID, &t.Revoked, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}
	return &t, nil
}

// CountLive returns the number of non-revoked, non-expired tokens for a user.
func (r *TokenRepository) CountLive(ctx context.Context, db DBTX, userID uuid.UUID, now time.Time) (int, error) {
	var n int
	err := db.QueryRow(ctx, `
		SELECT count(*) FROM refresh_tokens
		WHERE user_id = $1 AND NOT revoked AND expires_at > $2`, userID, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count live tokens: %w", err)
	}
	return n, nil
}

// RevokeAll revokes every token of a user. Returns the number revoked.
func (r *TokenRepository) RevokeAll(ctx context.Context, db DBTX, userID uuid.UUID) (int64, error) {
	tag, err := db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = true
		WHERE user_id = $1 AND NOT revoked`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneExpired deletes tokens that expired before the cutoff (housekeeping).
func (r *TokenRepository) PruneExpired(ctx context.Context, db DBTX, userID uuid.UUID, cutoff time.Time) error {
	_, err := db.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at < $2`, userID, cutoff)
	if err != nil {
		return fmt.Errorf("prune tokens: %w", err)
	}
	return nil
}

// RecordLogin appends a login_history row.
func (r *TokenRepository) RecordLogin(ctx context.Context, db DBTX, a *domain.LoginAttempt) error {
	_, err := db.Exec(ctx, `
		INSERT INTO login_history (id, handle, success, reason, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Handle, a.Success, a.Reason, a.IP, a.UserAgent)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

// ListLogins returns recent login attempts, newest first. An empty handle
// returns attempts across all accounts.
func (r *TokenRepository) ListLogins(ctx context.Context, db DBTX, handle string, limit int) ([]domain.LoginAttempt, error) {
	rows, err := db.Query(ctx, `
		SELECT id, handle, success, reason, ip, user_agent, created_at
		FROM login_history
		WHERE ($1 = '' OR handle = $1)
		ORDER BY created_at DESC
		LIMIT $2`, handle, limit)
	if err != nil {
		return nil, fmt.Errorf("list logins: %w", err)
	}
	defer rows.Close()

	var out []domain.LoginAttempt
	for rows.Next() {
		var a domain.LoginAttempt
		if err := rows.Scan(&a.ID, &a.Handle, &a.Success, &a.Reason, &a.IP, &a.UserAgent, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan login attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
