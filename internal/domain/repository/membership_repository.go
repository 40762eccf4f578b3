package repository

import (
	"context"

	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// MembershipRepository define el puerto de persistencia para Membership.
// Todo acceso lleva businessID: no existe consulta de membresías sin filtro de tenant.
//
// Los métodos "guardados" (UpdateRole, UpdateStatus, Delete, SwapOwner) son escrituras
// condicionales: solo aplican si tras la escritura el negocio conserva al menos un
// propietario activo. Devuelven applied=false cuando la guarda bloqueó la escritura
// o la fila no existe.
type MembershipRepository interface {
	Get(ctx context.Context, businessID, userID string) (*entity.Membership, error)
	GetActiveByEmail(ctx context.Context, businessID, email string) (*entity.Membership, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*entity.MemberView, error)
	CountActiveOwners(ctx context.Context, businessID string) (int, error)
	// Create devuelve domain.ErrDuplicate si ya existe la membresía (business, user).
	Create(ctx context.Context, m *entity.Membership) error
	UpdateOverrides(ctx context.Context, businessID, userID string, o role.Overrides) (bool, error)
	UpdateRole(ctx context.Context, businessID, userID string, newRole role.Role) (bool, error)
	UpdateStatus(ctx context.Context, businessID, userID, status string) (bool, error)
	Delete(ctx context.Context, businessID, userID string) (bool, error)
	// SwapOwner promueve toUserID a owner y degrada fromUserID a admin en una sola sentencia.
	SwapOwner(ctx context.Context, businessID, fromUserID, toUserID string) (bool, error)
}
