package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luckytwelve/platform/internal/auth"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login, token refresh and session kills.
type AuthService struct {
	pool   *pgxpool.Pool
	users  repository.UserRepository
	tokens *repository.TokenRepository
	audits *repository.AuditRepository
	jwtMgr *auth.Manager
	logger *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	pool *pgxpool.Pool,
	users repository.UserRepository,
	tokens *repository.TokenRepository,
	audits *repository.AuditRepository,
	jwtMgr *auth.Manager,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		pool:   pool,
		users:  users,
		tokens: tokens,
		audits: audits,
		jwtMgr: jwtMgr,
		logger: logger,
	}
}

// RegisterInput holds the registration request fields.
type RegisterInput struct {
	Handle   string `json:"user_id"`
	Password string `json:"password"`
}

// LoginInput holds the login request fields. ForceLogout is honored only for
// admin accounts; for everyone else an existing session blocks the login.
type LoginInput struct {
	Handle      string `json:"user_id"`
	Password    string `json:"password"`
	ForceLogout bool   `json:"force_logout"`
}

// RequestMeta carries per-request client details for audit trails.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user"`
}

// Register creates a new player account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := domain.ValidateHandle(input.Handle); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if len(input.Password) < 8 {
		return nil, domain.ErrValidation("password must be at least 8 characters")
	}

	existing, err := s.users.FindByHandle(ctx, s.pool, input.Handle)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("user id already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Handle:       input.Handle,
		PasswordHash: string(hash),
		Status:       domain.UserActive,
		Type:         domain.TypePlayer,
	}
	if err := s.users.Create(ctx, s.pool, user); err != nil {
		return nil, domain.ErrInternal("create user", err)
	}
	return user, nil
}

// Login authenticates and issues a token pair. A live session blocks the
// login unless the account is an admin logging in with force_logout, in which
// case the old session is revoked first. Revocation failure aborts the login
// rather than risking two live sessions.
func (s *AuthService) Login(ctx context.Context, input LoginInput, meta RequestMeta) (*AuthResult, error) {
	user, err := s.users.FindByHandle(ctx, s.pool, input.Handle)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		s.recordLogin(ctx, input.Handle, false, "unknown user", meta)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordLogin(ctx, input.Handle, false, "bad password", meta)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	if user.Status != domain.UserActive {
		s.recordLogin(ctx, input.Handle, false, "account "+string(user.Status), meta)
		return nil, domain.ErrAccountNotActive(user.Status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	// Serialize concurrent logins for the same account on the user row.
	if _, err := s.users.LockForUpdate(ctx, tx, user.ID); err != nil {
		return nil, domain.ErrInternal("lock user", err)
	}

	now := time.Now().UTC()
	// Housekeeping only: rows linger a week past expiry for support queries;
	// CountLive ignores them either way.
	if err := s.tokens.PruneExpired(ctx, tx, user.ID, now.AddDate(0, 0, -7)); err != nil {
		return nil, domain.ErrInternal("prune tokens", err)
	}
	live, err := s.tokens.CountLive(ctx, tx, user.ID, now)
	if err != nil {
		return nil, domain.ErrInternal("count sessions", err)
	}
	if live > 0 {
		if !user.IsAdmin() || !input.ForceLogout {
			s.recordLogin(ctx, input.Handle, false, "active session exists", meta)
			return nil, domain.ErrActiveSessionExists()
		}
		if _, err := s.tokens.RevokeAll(ctx, tx, user.ID); err != nil {
			return nil, domain.ErrInternal("revoke previous session", err)
		}
	}

	// Bump before issuing so the new tokens carry the fresh version and every
	// older access token dies immediately.
	user, err = s.users.BumpSession(ctx, tx, user.ID, now)
	if err != nil {
		return nil, domain.ErrInternal("bump session", err)
	}

	accessToken, err := s.jwtMgr.IssueAccess(user)
	if err != nil {
		return nil, domain.ErrInternal("issue access token", err)
	}
	refreshToken, tokenID, expiresAt, err := s.jwtMgr.IssueRefresh(user.ID)
	if err != nil {
		return nil, domain.ErrInternal("issue refresh token", err)
	}
	if err := s.tokens.Insert(ctx, tx, &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}); err != nil {
		return nil, domain.ErrInternal("store refresh token", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit", err)
	}

	s.recordLogin(ctx, input.Handle, true, "", meta)
	s.logger.Info("user logged in", "user_id", user.ID, "handle", user.Handle)

	return &AuthResult{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

// RefreshAccess exchanges a live refresh token for a new access token bound
// to the user's current session version. The refresh token itself is not
// rotated; it stays valid until logout or expiry.
func (s *AuthService) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtMgr.ValidateRefresh(refreshToken)
	if err != nil {
		return "", domain.ErrUnauthorized("invalid refresh token")
	}
	stored, err := s.tokens.FindByTokenID(ctx, s.pool, claims.ID)
	if err != nil {
		return "", domain.ErrInternal("find refresh token", err)
	}
	if stored == nil || stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return "", domain.ErrUnauthorized("refresh token is no longer valid")
	}

	user, err := s.users.FindByID(ctx, s.pool, stored.UserID)
	if err != nil {
		return "", domain.ErrInternal("find user", err)
	}
	if user == nil || user.Status != domain.UserActive {
		return "", domain.ErrUnauthorized("account is not active")
	}

	access, err := s.jwtMgr.IssueAccess(user)
	if err != nil {
		return "", domain.ErrInternal("issue access token", err)
	}
	return access, nil
}

// Logout ends the caller's session: refresh tokens are revoked and the
// session version is bumped so outstanding access tokens die too.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.killSessions(ctx, userID)
}

// KillSessions force-terminates every session of the target user and writes
// an audit row naming the acting admin.
func (s *AuthService) KillSessions(ctx context.Context, actor *domain.User, targetID uuid.UUID, meta RequestMeta) error {
	target, err := s.users.FindByID(ctx, s.pool, targetID)
	if err != nil {
		return domain.ErrInternal("find user", err)
	}
	if target == nil {
		return domain.ErrNotFound("user", targetID.String())
	}
	if err := s.killSessions(ctx, targetID); err != nil {
		return err
	}

	s.audit(ctx, &domain.AuditLog{
		ID:         uuid.New(),
		ActorID:    &actor.ID,
		Action:     "kill_sessions",
		TargetType: "user",
		TargetID:   targetID.String(),
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

func (s *AuthService) killSessions(ctx context.Context, userID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.users.LockForUpdate(ctx, tx, userID); err != nil {
		return domain.ErrInternal("lock user", err)
	}
	if _, err := s.tokens.RevokeAll(ctx, tx, userID); err != nil {
		return domain.ErrInternal("revoke tokens", err)
	}
	if _, err := s.users.BumpSession(ctx, tx, userID, time.Now().UTC()); err != nil {
		return domain.ErrInternal("bump session", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit", err)
	}
	return nil
}

// LoginHistory returns recent login attempts for the admin console.
func (s *AuthService) LoginHistory(ctx context.Context, handle string, limit int) ([]domain.LoginAttempt, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.tokens.ListLogins(ctx, s.pool, handle, limit)
}

// recordLogin appends a login_history row. Failures are logged, not returned;
// the history trail never blocks a login.
func (s *AuthService) recordLogin(ctx context.Context, handle string, success bool, reason string, meta RequestMeta) {
	err := s.tokens.RecordLogin(ctx, s.pool, &domain.LoginAttempt{
		ID:        uuid.New(),
		Handle:    handle,
		Success:   success,
		Reason:    reason,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	if err != nil {
		s.logger.Warn("record login attempt failed", "handle", handle, "error", err)
	}
}

func (s *AuthService) audit(ctx context.Context, entry *domain.AuditLog) {
	if err := s.audits.Insert(ctx, s.pool, entry); err != nil {
		s.logger.Warn("audit insert failed", "action", entry.Action, "error", err)
	}
}

// ResetPassword sets a new password on the target account and kills its
// sessions so the old credentials stop working everywhere at once.
func (s *AuthService) ResetPassword(ctx context.Context, actor *domain.User, targetID uuid.UUID, newPassword string, meta RequestMeta) error {
	if len(newPassword) < 8 {
		return domain.ErrValidation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.ErrInternal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, s.pool, targetID, string(hash)); err != nil {
		if _, ok := err.(*domain.AppError); ok {
			return err
		}
		return domain.ErrInternal("update password", err)
	}
	if err := s.killSessions(ctx, targetID); err != nil {
		return err
	}

	s.audit(ctx, &domain.AuditLog{
		ID:         uuid.New(),
		ActorID:    &actor.ID,
		Action:     "password_reset",
		TargetType: "user",
		TargetID:   targetID.String(),
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// SetStatus changes an account's lifecycle state. Moving away from active
// also kills the account's sessions.
func (s *AuthService) SetStatus(ctx context.Context, actor *domain.User, targetID uuid.UUID, status domain.UserStatus, meta RequestMeta) error {
	switch status {
	case domain.UserActive, domain.UserInactive, domain.UserBanned, domain.UserPending:
	default:
		return domain.ErrValidation("unknown status")
	}
	if err := s.users.UpdateStatus(ctx, s.pool, targetID, status); err != nil {
		if _, ok := err.(*domain.AppError); ok {
			return err
		}
		return domain.ErrInternal("update status", err)
	}
	if status != domain.UserActive {
		if err := s.killSessions(ctx, targetID); err != nil {
			return err
		}
	}

	s.audit(ctx, &domain.AuditLog{
		ID:         uuid.New(),
		ActorID:    &actor.ID,
		Action:     "user_status_change",
		TargetType: "user",
		TargetID:   targetID.String(),
		Details:    fmt.Sprintf(`{"status":%q}`, status),
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// ListUsers returns accounts for the admin console.
func (s *AuthService) ListUsers(ctx context.Context, status *domain.UserStatus, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, s.pool, status, limit, offset)
}

// GetUser returns a single account by id.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", id.String())
	}
	return user, nil
}
