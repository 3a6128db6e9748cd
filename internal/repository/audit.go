package repository

import (
	"context"
	"fmt"

	"github.com/luckytwelve/platform/internal/domain"
)

// AuditRepository writes informational audit rows. Failures are logged and
// swallowed by callers; the trail never participates in correctness.
type AuditRepository struct{}

// NewAuditRepository returns a pgx-backed AuditRepository.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Insert appends an audit row.
func (r *AuditRepository) Insert(ctx context.Context, db DBTX, a *domain.AuditLog) error {
	_, err := db.Exec(ctx, `
		INSERT INTO audit_logs (id, actor_id, action, target_type, target_id, details, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ActorID, a.Action, a.TargetType, a.TargetID, a.Details, a.IP, a.UserAgent)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
