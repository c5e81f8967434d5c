package repositories

import (
	"context"

	"github.com/digitalme/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Log(ctx context.Context, entry models.AuditLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (actor_id, actor_type, action, subject, tx_hash, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ActorID, entry.ActorType, entry.Action, entry.Subject, entry.TxHash, entry.Meta)
	return err
}

const maxAuditPage = 200

// GetBySubject returns the newest entries first. limit is clamped to
// (0, maxAuditPage].
func (r *AuditRepo) GetBySubject(ctx context.Context, subject string, limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	limit = min(limit, maxAuditPage)
	offset = max(offset, 0)

	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_id, actor_type, action, subject, tx_hash, meta, created_at
		FROM audit_log WHERE subject = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, subject, limit, offset)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AuditLog, error) {
		var l models.AuditLog
		err := row.Scan(&l.ID, &l.ActorID, &l.ActorType, &l.Action, &l.Subject, &l.TxHash, &l.Meta, &l.CreatedAt)
		return l, err
	})
}
