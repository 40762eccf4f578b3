package entity

import "time"

// Acciones auditadas.
const (
	AuditMemberInvited        = "member.invited"
	AuditInvitationResent     = "invitation.resent"
	AuditInvitationRevoked    = "invitation.revoked"
	AuditInvitationAccepted   = "invitation.accepted"
	AuditMemberRoleUpdated    = "member.role_updated"
	AuditMemberPermissions    = "member.permissions_updated"
	AuditMemberStatusUpdated  = "member.status_updated"
	AuditMemberRemoved        = "member.removed"
	AuditMemberLeft           = "member.left"
	AuditOwnershipTransferred = "business.ownership_transferred"
	AuditBusinessCreated      = "business.created"
)

// AuditRecord registro inmutable de una mutación exitosa: quién, qué, sobre quién, antes/después.
type AuditRecord struct {
	ID         string            `json:"id"`
	BusinessID string            `json:"business_id"`
	ActorID    string            `json:"actor_id"`
	Action     string            `json:"action"`
	TargetID   string            `json:"target_id,omitempty"`
	BeforeRole string            `json:"before_role,omitempty"`
	AfterRole  string            `json:"after_role,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
