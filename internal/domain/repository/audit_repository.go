package repository

import (
	"context"

	"github.com/jhoicas/bizhub-api/internal/domain/entity"
)

// AuditRepository persistencia append-only de registros de auditoría.
type AuditRepository interface {
	Create(ctx context.Context, rec *entity.AuditRecord) error
	ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.AuditRecord, error)
}
