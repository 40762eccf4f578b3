package team

import (
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// RoleView rol y permisos efectivos de un usuario en un negocio.
type RoleView struct {
	BusinessID  string
	UserID      string
	Role        role.Role
	Rank        int
	Status      string
	Permissions []role.Permission
}

// InviteResult resultado de crear o reenviar una invitación. La invitación puede
// quedar creada aunque la entrega falle (éxito parcial).
type InviteResult struct {
	Invitation        *entity.Invitation
	Token             string // texto plano; solo existe en esta respuesta y en el mensaje de entrega
	InvitationCreated bool
	EmailSent         bool
	DeliveryError     error
}

// InvitationState estado observado de la invitación más reciente para un email.
type InvitationState string

const (
	InvitationStateNone     InvitationState = "none"
	InvitationStatePending  InvitationState = "pending"
	InvitationStateExpired  InvitationState = "expired"
	InvitationStateAccepted InvitationState = "accepted"
	InvitationStateRevoked  InvitationState = "revoked"
)

// InvitationStatusView respuesta de CheckStatus.
type InvitationStatusView struct {
	Email      string
	State      InvitationState
	Invitation *entity.Invitation
}

// BulkAction acción aplicable en lote.
type BulkAction string

const (
	BulkSetRole  BulkAction = "set_role"
	BulkRemove   BulkAction = "remove"
	BulkSuspend  BulkAction = "suspend"
	BulkActivate BulkAction = "activate"
)

// BulkUpdate describe la acción de lote. Role solo aplica a BulkSetRole.
type BulkUpdate struct {
	Action BulkAction
	Role   role.Role
}

// BulkItemResult resultado por destinatario.
type BulkItemResult struct {
	UserID    string
	OK        bool
	ErrorCode string
	Message   string
}

// BulkResult resumen del lote: cada destinatario se evalúa y confirma por separado.
type BulkResult struct {
	Total     int
	Succeeded int
	Failed    int
	Items     []BulkItemResult
}

// CreateBusinessInput datos para el alta de un negocio.
// Si OrganizationID viene vacío se crea una organización nueva con OrganizationName.
type CreateBusinessInput struct {
	OrganizationID   string
	OrganizationName string
	Name             string
	Slug             string
}

// BusinessView negocio recién creado junto a la membresía del fundador.
type BusinessView struct {
	Organization *entity.Organization
	Business     *entity.Business
	Membership   *entity.Membership
}
