package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo persistencia append-only de auditoría sobre PostgreSQL.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador de auditoría.
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Create inserta un registro de auditoría.
func (r *AuditRepo) Create(ctx context.Context, rec *entity.AuditRecord) error {
	metadata := rec.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_records (id, business_id, actor_id, action, target_id, before_role, after_role, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.BusinessID, rec.ActorID, rec.Action,
		nullString(rec.TargetID), nullString(rec.BeforeRole), nullString(rec.AfterRole),
		metadata, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// ListByBusiness devuelve registros del negocio, más recientes primero.
func (r *AuditRepo) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.AuditRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, business_id, actor_id, action, target_id, before_role, after_role, metadata, created_at
		FROM audit_records WHERE business_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		businessID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var out []*entity.AuditRecord
	for rows.Next() {
		var rec entity.AuditRecord
		var target, before, after *string
		if err := rows.Scan(&rec.ID, &rec.BusinessID, &rec.ActorID, &rec.Action,
			&target, &before, &after, &rec.Metadata, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.TargetID, rec.BeforeRole, rec.AfterRole = derefString(target), derefString(before), derefString(after)
		out = append(out, &rec)
	}
	return out, rows.Err()
}
