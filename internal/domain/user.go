package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
	UserBanned   UserStatus = "banned"
	UserPending  UserStatus = "pending"
)

// UserType distinguishes the three account roles.
type UserType string

const (
	TypeAdmin     UserType = "admin"
	TypeModerator UserType = "moderator"
	TypePlayer    UserType = "player"
)

// User is an account row. Balance is int64 minor units (paise) and may only
// be mutated through the ledger engine.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Handle         string     `json:"user_id"` // human handle, unique
	PasswordHash   string     `json:"-"`
	Status         UserStatus `json:"status"`
	Type           UserType   `json:"user_type"`
	Balance        int64      `json:"balance"`
	SessionVersion int64      `json:"-"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user may use administrative operations.
func (u *User) IsAdmin() bool {
	return u.Type == TypeAdmin
}

// CanTransact reports whether wallet mutations are permitted for the account.
func (u *User) CanTransact() bool {
	return u.Status == UserActive
}

// RefreshToken is a stored refresh credential. At most one non-revoked,
// non-expired row may exist per user (single-session rule).
type RefreshToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenID   string    `json:"-"` // jti embedded in the signed token
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginAttempt is an append-only record of a login attempt.
type LoginAttempt struct {
	ID        uuid.UUID `json:"id"`
	Handle    string    `json:"user_id"`
	Success   bool      `json:"success"`
	Reason    string    `json:"reason,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
