// Package settings is a typed, cached key/value configuration store. Reads
// hit a process-local cache; any write invalidates it and records the change.
package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/clock"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/shopspring/decimal"
)

// Recognized keys.
const (
	KeyGameMultiplier = "game_multiplier"
	KeyMaximumLimit   = "maximum_limit"
	KeyGameStartTime  = "game_start_time"
	KeyGameEndTime    = "game_end_time"
	KeyGameResultType = "game_result_type"
)

// defaults apply when a key has no row.
var defaults = map[string]string{
	KeyGameMultiplier: "10",
	KeyMaximumLimit:   "500000",
	KeyGameStartTime:  "08:00",
	KeyGameEndTime:    "22:00",
	KeyGameResultType: string(domain.ResultManual),
}

// publicKeys are exposed without authentication. game_result_type stays
// private so players cannot tell auto from operator-settled rounds.
var publicKeys = []string{KeyGameMultiplier, KeyMaximumLimit, KeyGameStartTime, KeyGameEndTime}

// Store reads and writes settings with a read-mostly cache.
type Store struct {
	pool *pgxpool.Pool

	mu    sync.RWMutex
	cache map[string]string
}

// NewStore creates a settings store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, cache: make(map[string]string)}
}

// Get returns the raw string value for a key, falling back to its default.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	if v, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&v)
	if err == pgx.ErrNoRows {
		d, ok := defaults[key]
		if !ok {
			return "", fmt.Errorf("unknown setting %q", key)
		}
		v = d
	} else if err != nil {
		return "", fmt.Errorf("read setting %q: %w", key, err)
	}

	s.mu.Lock()
	s.cache[key] = v
	s.mu.Unlock()
	return v, nil
}

// Number returns a decimal-valued setting.
func (s *Store) Number(ctx context.Context, key string) (decimal.Decimal, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("setting %q is not a number: %w", key, err)
	}
	return d, nil
}

// Int64 returns an integer-valued setting (e.g. minor-unit limits).
func (s *Store) Int64(ctx context.Context, key string) (int64, error) {
	d, err := s.Number(ctx, key)
	if err != nil {
		return 0, err
	}
	if d.Exponent() < 0 && !d.IsInteger() {
		return 0, fmt.Errorf("setting %q is not an integer: %s", key, d)
	}
	return d.IntPart(), nil
}

// ResultMode returns the configured settlement mode.
func (s *Store) ResultMode(ctx context.Context) (domain.ResultMode, error) {
	raw, err := s.Get(ctx, KeyGameResultType)
	if err != nil {
		return "", err
	}
	mode := domain.ResultMode(raw)
	if mode != domain.ResultAuto && mode != domain.ResultManual {
		return "", fmt.Errorf("setting %s has invalid value %q", KeyGameResultType, raw)
	}
	return mode, nil
}

// DailyWindow returns the configured IST open/close times.
func (s *Store) DailyWindow(ctx context.Context) (open, close string, err error) {
	if open, err = s.Get(ctx, KeyGameStartTime); err != nil {
		return "", "", err
	}
	if close, err = s.Get(ctx, KeyGameEndTime); err != nil {
		return "", "", err
	}
	return open, close, nil
}

// Set validates and writes a setting, logging previous and new values in the
// same transaction, then invalidates the cache.
func (s *Store) Set(ctx context.Context, key, value string, actorID *uuid.UUID) error {
	if err := Validate(key, value); err != nil {
		return domain.ErrValidation(err.Error())
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var prev *string
	err = tx.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1 FOR UPDATE`, key).Scan(&prev)
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("read previous value: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3`,
		key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("write setting: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO settings_log (id, key, prev_value, new_value, actor_id)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), key, prev, value, actorID); err != nil {
		return fmt.Errorf("write settings log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.Invalidate()
	return nil
}

// Invalidate drops the whole cache. Cheap; settings writes are rare.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// All returns every recognized setting, including private ones. Admin use.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(defaults))
	for key := range defaults {
		v, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// Public returns the whitelisted settings for unauthenticated clients.
func (s *Store) Public(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(publicKeys))
	for _, key := range publicKeys {
		v, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// Validate checks a key/value pair against the key's type.
func Validate(key, value string) error {
	switch key {
	case KeyGameMultiplier, KeyMaximumLimit:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("%s must be a number", key)
		}
		if d.Sign() <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	case KeyGameStartTime, KeyGameEndTime:
		if _, _, err := clock.ParseHHMM(value); err != nil {
			return fmt.Errorf("%s must be HH:MM", key)
		}
	case KeyGameResultType:
		if value != string(domain.ResultAuto) && value != string(domain.ResultManual) {
			return fmt.Errorf("%s must be auto or manual", key)
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
