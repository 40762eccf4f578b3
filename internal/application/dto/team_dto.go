package dto

import (
	"time"

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateBusinessRequest alta de negocio; el usuario autenticado queda como propietario.
type CreateBusinessRequest struct {
	OrganizationID   string `json:"organization_id,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
	Name             string `json:"name"`
	Slug             string `json:"slug,omitempty"`
}

// UpdateRoleRequest cambio de rol de un miembro.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UpdatePermissionsRequest ajustes de permisos sobre el rol.
type UpdatePermissionsRequest struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

// Overrides convierte el request al tipo de dominio.
func (r UpdatePermissionsRequest) Overrides() role.Overrides {
	o := role.Overrides{}
	for _, p := range r.Allow {
		o.Allow = append(o.Allow, role.Permission(p))
	}
	for _, p := range r.Deny {
		o.Deny = append(o.Deny, role.Permission(p))
	}
	return o
}

// UpdateStatusRequest suspender o reactivar.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// BulkUpdateRequest acción aplicada a varios miembros; cada uno se confirma por separado.
type BulkUpdateRequest struct {
	UserIDs []string `json:"user_ids"`
	Action  string   `json:"action"` // set_role, remove, suspend, activate
	Role    string   `json:"role,omitempty"`
}

// TransferOwnershipRequest la confirmación debe ser el slug del negocio.
type TransferOwnershipRequest struct {
	TargetUserID string `json:"target_user_id"`
	Confirmation string `json:"confirmation"`
}

// InviteRequest invitación por email.
type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AcceptInvitationRequest aceptación con el token recibido.
type AcceptInvitationRequest struct {
	BusinessID string `json:"business_id"`
	Token      string `json:"token"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// RoleResponse rol y permisos efectivos del usuario autenticado.
type RoleResponse struct {
	BusinessID  string   `json:"business_id"`
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	Rank        int      `json:"rank"`
	Status      string   `json:"status"`
	Permissions []string `json:"permissions"`
}

// MemberResponse membresía (con datos del usuario cuando están disponibles).
type MemberResponse struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Permissions []string   `json:"permissions"`
	Allow       []string   `json:"allow,omitempty"`
	Deny        []string   `json:"deny,omitempty"`
	InvitedBy   string     `json:"invited_by,omitempty"`
	JoinedAt    *time.Time `json:"joined_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MemberListResponse listado del equipo.
type MemberListResponse struct {
	Items []MemberResponse `json:"items"`
}

// OrganizationResponse organización.
type OrganizationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// BusinessResponse negocio creado junto a la membresía del fundador.
type BusinessResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Slug         string               `json:"slug"`
	Organization OrganizationResponse `json:"organization"`
	Membership   MemberResponse       `json:"membership"`
	CreatedAt    time.Time            `json:"created_at"`
}

// InvitationResponse invitación (nunca incluye el hash del token).
type InvitationResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	ResentCount int        `json:"resent_count"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
}

// InvitationListResponse invitaciones del negocio.
type InvitationListResponse struct {
	Items []InvitationResponse `json:"items"`
}

// InviteResponse resultado de invitar o reenviar. AcceptURL y Token solo se devuelven
// cuando el email no salió, para que el invitador comparta el enlace por otro medio.
type InviteResponse struct {
	Invitation        InvitationResponse `json:"invitation"`
	InvitationCreated bool               `json:"invitation_created"`
	EmailSent         bool               `json:"email_sent"`
	DeliveryError     string             `json:"delivery_error,omitempty"`
	AcceptURL         string             `json:"accept_url,omitempty"`
	Token             string             `json:"token,omitempty"`
}

// InvitationStatusResponse estado de la invitación más reciente para un email.
type InvitationStatusResponse struct {
	Email      string              `json:"email"`
	State      string              `json:"state"`
	Invitation *InvitationResponse `json:"invitation,omitempty"`
}

// BulkItemResponse resultado por destinatario.
type BulkItemResponse struct {
	UserID  string `json:"user_id"`
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// BulkUpdateResponse resumen del lote.
type BulkUpdateResponse struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Items     []BulkItemResponse `json:"items"`
}

// AuditRecordResponse entrada del registro de auditoría.
type AuditRecordResponse struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actor_id"`
	Action     string            `json:"action"`
	TargetID   string            `json:"target_id,omitempty"`
	BeforeRole string            `json:"before_role,omitempty"`
	AfterRole  string            `json:"after_role,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// AuditListResponse página del registro de auditoría.
type AuditListResponse struct {
	Items []AuditRecordResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func permissionStrings(ps []role.Permission) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, string(p))
	}
	return out
}

// FromRoleView mapea el rol resuelto.
func FromRoleView(v *team.RoleView) RoleResponse {
	return RoleResponse{
		BusinessID:  v.BusinessID,
		UserID:      v.UserID,
		Role:        v.Role.String(),
		Rank:        v.Rank,
		Status:      v.Status,
		Permissions: permissionStrings(v.Permissions),
	}
}

// FromMembership mapea una membresía sin datos del usuario.
func FromMembership(m *entity.Membership) MemberResponse {
	return MemberResponse{
		UserID:      m.UserID,
		Role:        m.Role.String(),
		Status:      m.Status,
		Permissions: permissionStrings(m.Permissions().Sorted()),
		Allow:       permissionStrings(m.PermissionOverrides.Allow),
		Deny:        permissionStrings(m.PermissionOverrides.Deny),
		InvitedBy:   m.InvitedBy,
		JoinedAt:    m.JoinedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromMemberViews mapea el listado del equipo.
func FromMemberViews(views []*entity.MemberView) MemberListResponse {
	items := make([]MemberResponse, 0, len(views))
	for _, v := range views {
		r := FromMembership(&v.Membership)
		r.Email = v.Email
		r.DisplayName = v.DisplayName
		items = append(items, r)
	}
	return MemberListResponse{Items: items}
}

// FromBusinessView mapea el alta de negocio.
func FromBusinessView(v *team.BusinessView) BusinessResponse {
	return BusinessResponse{
		ID:   v.Business.ID,
		Name: v.Business.Name,
		Slug: v.Business.Slug,
		Organization: OrganizationResponse{
			ID:   v.Organization.ID,
			Name: v.Organization.Name,
			Slug: v.Organization.Slug,
		},
		Membership: FromMembership(v.Membership),
		CreatedAt:  v.Business.CreatedAt,
	}
}

// FromInvitation mapea una invitación.
func FromInvitation(inv *entity.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:          inv.ID,
		Email:       inv.Email,
		Role:        inv.Role.String(),
		Status:      inv.Status,
		ExpiresAt:   inv.ExpiresAt,
		CreatedBy:   inv.CreatedBy,
		CreatedAt:   inv.CreatedAt,
		ResentCount: inv.ResentCount,
		AcceptedAt:  inv.AcceptedAt,
	}
}

// FromInvitations mapea el listado de invitaciones.
func FromInvitations(invs []*entity.Invitation) InvitationListResponse {
	items := make([]InvitationResponse, 0, len(invs))
	for _, inv := range invs {
		items = append(items, FromInvitation(inv))
	}
	return InvitationListResponse{Items: items}
}

// FromInviteResult mapea el resultado de invitar. acceptURL solo se usa si el email no salió.
func FromInviteResult(res *team.InviteResult, acceptURL string) InviteResponse {
	out := InviteResponse{
		Invitation:        FromInvitation(res.Invitation),
		InvitationCreated: res.InvitationCreated,
		EmailSent:         res.EmailSent,
	}
	if !res.EmailSent {
		out.Token = res.Token
		out.AcceptURL = acceptURL
		if res.DeliveryError != nil {
			out.DeliveryError = res.DeliveryError.Error()
		}
	}
	return out
}

// FromInvitationStatus mapea CheckStatus.
func FromInvitationStatus(v *team.InvitationStatusView) InvitationStatusResponse {
	out := InvitationStatusResponse{Email: v.Email, State: string(v.State)}
	if v.Invitation != nil {
		inv := FromInvitation(v.Invitation)
		out.Invitation = &inv
	}
	return out
}

// FromBulkResult mapea el resumen del lote.
func FromBulkResult(r *team.BulkResult) BulkUpdateResponse {
	items := make([]BulkItemResponse, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, BulkItemResponse{UserID: it.UserID, OK: it.OK, Code: it.ErrorCode, Message: it.Message})
	}
	return BulkUpdateResponse{Total: r.Total, Succeeded: r.Succeeded, Failed: r.Failed, Items: items}
}

// FromAuditRecords mapea una página de auditoría.
func FromAuditRecords(recs []*entity.AuditRecord, page PageRequest) AuditListResponse {
	items := make([]AuditRecordResponse, 0, len(recs))
	for _, r := range recs {
		items = append(items, AuditRecordResponse{
			ID:         r.ID,
			ActorID:    r.ActorID,
			Action:     r.Action,
			TargetID:   r.TargetID,
			BeforeRole: r.BeforeRole,
			AfterRole:  r.AfterRole,
			Metadata:   r.Metadata,
			CreatedAt:  r.CreatedAt,
		})
	}
	return AuditListResponse{Items: items, Page: PageResponse{Limit: page.Limit, Offset: page.Offset}}
}
