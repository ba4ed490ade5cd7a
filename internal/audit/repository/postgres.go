package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"portfolio-admin/internal/audit/domain"
	"portfolio-admin/internal/db"
)

type PostgresRepository struct {
	db db.Querier
}

// NewPostgresRepository returns an audit log repository backed by q.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{db: q}
}

// Create persists a. The audit log must have ID set. Empty metadata is stored as NULL.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	var meta *string
	if a.Metadata != "" {
		meta = &a.Metadata
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_logs (id, actor, action, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Actor, a.Action, a.Resource, a.IP, meta, a.CreatedAt,
	)
	return err
}

// ListRecent returns audit logs newest first, paginated by limit and offset.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, actor, action, resource, ip, COALESCE(metadata::text, ''), created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.AuditLog, error) {
		a := &domain.AuditLog{}
		err := row.Scan(&a.ID, &a.Actor, &a.Action, &a.Resource, &a.IP, &a.Metadata, &a.CreatedAt)
		return a, err
	})
}

// PurgeOlderThan deletes entries created before before and returns how many were removed.
func (r *PostgresRepository) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
