// Package guard holds pre-auth protections for the login path: an in-memory
// rate limiter and a failed-attempt lockout backed by login_history.
package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/domain"
)

const (
	// MaxAttempts failed logins within LockoutWindow lock the handle out.
	MaxAttempts   = 5
	LockoutWindow = 15 * time.Minute
)

// RateLimiter is a per-key sliding window limiter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
}

// NewRateLimiter creates a rate limiter allowing limit events per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Allow records the event and reports whether the key is within its budget.
func (rl *RateLimiter) Allow(key string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return &domain.AppError{
			Code:    "RATE_LIMITED",
			Message: fmt.Sprintf("too many requests: limit %d per %s", rl.limit, rl.window),
			Status:  429,
		}
	}

	rl.windows[key] = append(valid, now)
	return nil
}

// CheckLocked rejects a handle with too many recent failed logins. Fails
// open on database errors; the lockout is a throttle, not the auth boundary.
func CheckLocked(ctx context.Context, pool *pgxpool.Pool, handle string) error {
	var count int
	err := pool.QueryRow(ctx, `
		SELECT count(*) FROM login_history
		WHERE handle = $1 AND NOT success AND created_at > $2`,
		handle, time.Now().Add(-LockoutWindow)).Scan(&count)
	if err != nil {
		return nil
	}
	if count >= MaxAttempts {
		return &domain.AppError{
			Code:    "ACCOUNT_LOCKED",
			Message: "too many failed login attempts, try again later",
			Status:  429,
		}
	}
	return nil
}
