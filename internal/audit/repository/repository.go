package repository

import (
	"context"
	"time"

	"portfolio-admin/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListRecent(ctx context.Context, limit, offset int32) ([]*domain.AuditLog, error)
	PurgeOlderThan(ctx context.Context, before time.Time) (int64, error)
}
