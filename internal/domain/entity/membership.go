package entity

import (
	"time"

	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// Estados válidos de Membership.
const (
	MembershipActive    = "active"
	MembershipSuspended = "suspended"
	MembershipPending   = "pending"
)

// Membership vincula un usuario con un negocio. Única por (BusinessID, UserID).
// Remover a un miembro borra la fila; el usuario y sus otras membresías no cambian.
type Membership struct {
	BusinessID          string
	UserID              string
	Role                role.Role
	PermissionOverrides role.Overrides
	Status              string // active, suspended, pending
	InvitedBy           string // vacío para el propietario fundador
	InvitedAt           *time.Time
	JoinedAt            *time.Time
	UpdatedAt           time.Time
}

// IsActive informa si la membresía está activa.
func (m *Membership) IsActive() bool { return m != nil && m.Status == MembershipActive }

// IsActiveOwner informa si cuenta para el invariante de último propietario.
func (m *Membership) IsActiveOwner() bool { return m.IsActive() && m.Role == role.Owner }

// Rank rango efectivo: siempre derivado del rol, nunca de los overrides.
func (m *Membership) Rank() int { return role.Rank(m.Role) }

// Permissions permisos efectivos (rol + overrides).
func (m *Membership) Permissions() role.PermissionSet {
	return role.EffectivePermissions(m.Role, m.PermissionOverrides)
}

// MemberView membresía enriquecida con datos del usuario (listados y exportes).
type MemberView struct {
	Membership
	Email       string
	DisplayName string
}
