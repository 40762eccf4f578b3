package team

import (
	"context"
	"time"

	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/repository"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// Repos agrupa los puertos del almacén jerárquico de tenants. Dentro de TxRunner.RunTeam
// todos quedan atados a la misma transacción.
type Repos struct {
	Organizations repository.OrganizationRepository
	Businesses    repository.BusinessRepository
	Users         repository.UserRepository
	Memberships   repository.MembershipRepository
	Invitations   repository.InvitationRepository
	Audit         repository.AuditRepository
}

// TxRunner ejecuta fn dentro de una transacción todo-o-nada. Si fn devuelve error,
// o el contexto vence, nada de lo escrito por fn queda persistido.
type TxRunner interface {
	RunTeam(ctx context.Context, fn func(r Repos) error) error
}

// AuditSink recibe registros de auditoría. El servicio lo invoca después del commit;
// sus errores se registran en el log y no afectan al llamador.
type AuditSink interface {
	Record(ctx context.Context, rec *entity.AuditRecord) error
}

// InvitationMessage datos que necesita el colaborador de entrega para avisar al invitado.
type InvitationMessage struct {
	InvitationID string    `json:"invitation_id"`
	BusinessID   string    `json:"business_id"`
	BusinessName string    `json:"business_name"`
	Email        string    `json:"email"`
	Role         role.Role `json:"role"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	InvitedBy    string    `json:"invited_by"`
}

// InvitationSender entrega la invitación (email). Un error no revierte la invitación.
type InvitationSender interface {
	SendInvitation(ctx context.Context, msg InvitationMessage) error
}

// RosterRenderer genera el documento exportable del equipo de un negocio.
type RosterRenderer interface {
	RenderRoster(ctx context.Context, business *entity.Business, members []*entity.MemberView, generatedAt time.Time) ([]byte, error)
}
