package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/luckytwelve/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// UserRepository provides access to users.
type UserRepository interface {
	// FindByID returns a user by primary key.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)

	// FindByHandle returns a user by the human handle.
	FindByHandle(ctx context.Context, db DBTX, handle string) (*domain.User, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE).
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error)

	// Create inserts a new user.
	Create(ctx context.Context, db DBTX, user *domain.User) error

	// ApplyBalanceDelta adjusts the balance with server-side arithmetic and
	// returns the updated row. The CHECK constraint backs the non-negative
	// invariant.
	ApplyBalanceDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta int64) (*domain.User, error)

	// BumpSession increments session_version and stamps last_login.
	BumpSession(ctx context.Context, tx pgx.Tx, userID uuid.UUID, at time.Time) (*domain.User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, db DBTX, userID uuid.UUID, hash string) error

	// UpdateStatus sets the account lifecycle state.
	UpdateStatus(ctx context.Context, db DBTX, userID uuid.UUID, status domain.UserStatus) error

	// List returns users filtered by optional status, newest first.
	List(ctx context.Context, db DBTX, status *domain.UserStatus, limit, offset int) ([]domain.User, error)
}

// WalletLogRepository provides access to the append-only ledger.
type WalletLogRepository interface {
	// Insert appends a ledger row.
	Insert(ctx context.Context, db DBTX, log *domain.WalletLog) error

	// ListByUser returns ledger rows for a user, newest first, with
	// cursor-based pagination on created_at.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, cursor *time.Time, limit int) ([]domain.WalletLog, error)

	// HasReference reports whether a row with the given reference exists.
	HasReference(ctx context.Context, db DBTX, refType domain.ReferenceType, refID string) (bool, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert stages an outbox event within the caller's transaction.
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error
}
