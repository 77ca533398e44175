package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-orders/internal/domain/audit"
)

const insertAuditSQL = `INSERT INTO audit_log
	(id, entity, entity_id, action, actor_id, old_value, new_value, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

var _ audit.Recorder = (*AuditRecorder)(nil)

// AuditRecorder implements audit.Recorder backed by PostgreSQL. Writes go
// straight to the pool, never joining a business transaction: audit entries
// are emitted after the mutation committed and must not be rolled back with
// it.
type AuditRecorder struct {
	pool *pgxpool.Pool
}

// NewAuditRecorder returns an AuditRecorder that uses the given pool.
func NewAuditRecorder(pool *pgxpool.Pool) *AuditRecorder {
	return &AuditRecorder{pool: pool}
}

// Record persists a single audit entry.
func (r *AuditRecorder) Record(ctx context.Context, e audit.Entry) error {
	_, err := r.pool.Exec(ctx, insertAuditSQL,
		uuid.New().String(), e.Entity, e.EntityID, e.Action, e.ActorID,
		e.OldValue, e.NewValue, e.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "record audit entry for %s %q", e.Entity, e.EntityID)
	}
	return nil
}
