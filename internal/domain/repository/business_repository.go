package repository

import (
	"context"

	"github.com/jhoicas/bizhub-api/internal/domain/entity"
)

// OrganizationRepository define el puerto de persistencia para Organization (DIP).
type OrganizationRepository interface {
	Create(ctx context.Context, org *entity.Organization) error
	GetByID(ctx context.Context, id string) (*entity.Organization, error)
}

// BusinessRepository define el puerto de persistencia para Business.
// Los métodos devuelven (nil, nil) cuando el negocio no existe.
type BusinessRepository interface {
	Create(ctx context.Context, b *entity.Business) error
	GetByID(ctx context.Context, id string) (*entity.Business, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*entity.Business, error)
	// LockForUpdate bloquea la fila del negocio hasta el fin de la transacción (SELECT FOR UPDATE).
	// Serializa las mutaciones administrativas de un mismo negocio.
	LockForUpdate(ctx context.Context, id string) (*entity.Business, error)
}

// UserRepository define el puerto de persistencia para User.
type UserRepository interface {
	// Upsert registra la identidad verificada; no sobrescribe el email de un usuario existente.
	Upsert(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
