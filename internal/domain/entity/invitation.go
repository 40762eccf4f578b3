package entity

import (
	"time"

	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// Estados de Invitation. accepted, expired y revoked son terminales
// (salvo el reenvío de una expirada, que la vuelve a pending).
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
	InvitationRevoked  = "revoked"
)

// Invitation invitación a unirse a un negocio. Solo se persiste el hash del token.
type Invitation struct {
	ID          string
	BusinessID  string
	Email       string
	Role        role.Role
	TokenHash   string
	Status      string
	ExpiresAt   time.Time
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResentCount int
	AcceptedBy  string
	AcceptedAt  *time.Time
}

// IsPending informa si la invitación sigue pendiente (sin evaluar expiración).
func (i *Invitation) IsPending() bool { return i != nil && i.Status == InvitationPending }

// ExpiredAt informa si la invitación pendiente ya venció en el instante now.
func (i *Invitation) ExpiredAt(now time.Time) bool {
	return i.IsPending() && !now.Before(i.ExpiresAt)
}
