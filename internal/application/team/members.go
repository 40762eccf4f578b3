package team

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// ResolveRole devuelve rol, rango, estado y permisos efectivos del usuario en el negocio.
// Una membresía no activa se reporta con permisos vacíos.
func (s *Service) ResolveRole(ctx context.Context, userID, businessID string) (_ *RoleView, err error) {
	ctx, span := s.startSpan(ctx, "resolve_role", businessID)
	defer func() { endSpan(span, err) }()

	m, err := s.resolver.Resolve(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	view := &RoleView{
		BusinessID:  businessID,
		UserID:      userID,
		Role:        m.Role,
		Rank:        m.Rank(),
		Status:      m.Status,
		Permissions: []role.Permission{},
	}
	if m.IsActive() {
		view.Permissions = m.Permissions().Sorted()
	}
	return view, nil
}

// Can informa si el usuario tiene el permiso en el negocio. No ser miembro activo es false, sin error.
func (s *Service) Can(ctx context.Context, userID, businessID string, perm role.Permission) (bool, error) {
	m, err := s.resolver.ResolveActive(ctx, userID, businessID)
	if errors.Is(err, domain.ErrNotAMember) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Permissions().Has(perm), nil
}

// ListMembers lista el equipo del negocio. Requiere view_team.
func (s *Service) ListMembers(ctx context.Context, actorID, businessID string) (_ []*entity.MemberView, err error) {
	ctx, span := s.startSpan(ctx, "list_members", businessID)
	defer func() { endSpan(span, err) }()

	actor, err := s.resolver.ResolveActive(ctx, actorID, businessID)
	if err != nil {
		return nil, err
	}
	if err := requirePermission(actor, role.PermViewTeam); err != nil {
		return nil, err
	}
	return s.repos.Memberships.ListByBusiness(ctx, businessID)
}

// UpdateMemberRole cambia el rol de otro miembro. El actor debe poder asignar tanto el rol
// nuevo como el rol actual del destino, y el negocio nunca queda sin propietario activo.
// Si el destino está por encima del actor se informa ErrInsufficientRank.
func (s *Service) UpdateMemberRole(ctx context.Context, actorID, businessID, targetID string, newRole role.Role) (_ *entity.Membership, err error) {
	ctx, span := s.startSpan(ctx, "update_member_role", businessID)
	defer func() { endSpan(span, err) }()

	return s.changeRole(ctx, actorID, businessID, targetID, newRole, false)
}

// changeRole aplica las mismas reglas en ambos caminos. ownerFirst solo decide qué
// rechazo se informa cuando el destino es el único propietario: el lote lo reporta
// como ErrLastOwnerViolation para que el resumen nombre la regla del negocio.
func (s *Service) changeRole(ctx context.Context, actorID, businessID, targetID string, newRole role.Role, ownerFirst bool) (_ *entity.Membership, err error) {
	if actorID == targetID {
		return nil, domain.ErrSelfEscalationDenied
	}
	if !newRole.IsValid() {
		return nil, domain.ErrInvalidInput
	}

	var updated *entity.Membership
	var before role.Role
	err = s.withActor(ctx, actorID, businessID, func(r Repos, _ *entity.Business, actor *entity.Membership) error {
		if err := requirePermission(actor, role.PermModifyRoles); err != nil {
			return err
		}
		if !role.CanAssign(actor.Rank(), newRole) {
			return domain.ErrInsufficientRank
		}
		target, err := loadTarget(ctx, r, businessID, targetID)
		if err != nil {
			return err
		}
		outranked := !role.CanAssign(actor.Rank(), target.Role)
		if outranked && !ownerFirst {
			return domain.ErrInsufficientRank
		}
		if newRole != role.Owner {
			sole, err := isSoleActiveOwner(ctx, r, target)
			if err != nil {
				return err
			}
			if sole {
				return domain.ErrLastOwnerViolation
			}
		}
		if outranked {
			return domain.ErrInsufficientRank
		}
		before = target.Role
		if before != newRole {
			applied, err := r.Memberships.UpdateRole(ctx, businessID, targetID, newRole)
			if err != nil {
				return err
			}
			if !applied {
				return domain.ErrLastOwnerViolation
			}
			target.Role = newRole
			target.UpdatedAt = s.now()
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	if before != newRole {
		s.record(ctx, entity.AuditRecord{
			BusinessID: businessID,
			ActorID:    actorID,
			Action:     entity.AuditMemberRoleUpdated,
			TargetID:   targetID,
			BeforeRole: before.String(),
			AfterRole:  newRole.String(),
		})
	}
	return updated, nil
}

// UpdateMemberPermissions reemplaza los overrides de permisos de otro miembro.
// El actor debe superar estrictamente al destino y solo puede otorgar permisos que él mismo tiene.
func (s *Service) UpdateMemberPermissions(ctx context.Context, actorID, businessID, targetID string, overrides role.Overrides) (_ *entity.Membership, err error) {
	ctx, span := s.startSpan(ctx, "update_member_permissions", businessID)
	defer func() { endSpan(span, err) }()

	if actorID == targetID {
		return nil, domain.ErrSelfEscalationDenied
	}
	if !overrides.Validate() {
		return nil, domain.ErrInvalidInput
	}

	var updated *entity.Membership
	err = s.withActor(ctx, actorID, businessID, func(r Repos, _ *entity.Business, actor *entity.Membership) error {
		if err := requirePermission(actor, role.PermModifyRoles); err != nil {
			return err
		}
		target, err := loadTarget(ctx, r, businessID, targetID)
		if err != nil {
			return err
		}
		if !role.Outranks(actor.Rank(), target.Role) {
			return domain.ErrInsufficientRank
		}
		held := actor.Permissions()
		for _, p := range overrides.Allow {
			if !held.Has(p) {
				return domain.ErrInsufficientRank
			}
		}
		applied, err := r.Memberships.UpdateOverrides(ctx, businessID, targetID, overrides)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrNotAMember
		}
		target.PermissionOverrides = overrides
		target.UpdatedAt = s.now()
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, entity.AuditRecord{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     entity.AuditMemberPermissions,
		TargetID:   targetID,
		BeforeRole: updated.Role.String(),
		AfterRole:  updated.Role.String(),
		Metadata:   overridesMetadata(overrides),
	})
	return updated, nil
}

// SetMemberStatus suspende o reactiva a un miembro de rango estrictamente inferior.
func (s *Service) SetMemberStatus(ctx context.Context, actorID, businessID, targetID, status string) (_ *entity.Membership, err error) {
	ctx, span := s.startSpan(ctx, "set_member_status", businessID)
	defer func() { endSpan(span, err) }()

	if status != entity.MembershipActive && status != entity.MembershipSuspended {
		return nil, domain.ErrInvalidInput
	}
	if actorID == targetID {
		return nil, domain.ErrSelfEscalationDenied
	}

	var updated *entity.Membership
	var before string
	err = s.withActor(ctx, actorID, businessID, func(r Repos, _ *entity.Business, actor *entity.Membership) error {
		if err := requirePermission(actor, role.PermRemoveMembers); err != nil {
			return err
		}
		target, err := loadTarget(ctx, r, businessID, targetID)
		if err != nil {
			return err
		}
		if status == entity.MembershipSuspended {
			sole, err := isSoleActiveOwner(ctx, r, target)
			if err != nil {
				return err
			}
			if sole {
				return domain.ErrLastOwnerViolation
			}
		}
		if !role.Outranks(actor.Rank(), target.Role) {
			return domain.ErrInsufficientRank
		}
		before = target.Status
		if before != status {
			applied, err := r.Memberships.UpdateStatus(ctx, businessID, targetID, status)
			if err != nil {
				return err
			}
			if !applied {
				return domain.ErrLastOwnerViolation
			}
			target.Status = status
			target.UpdatedAt = s.now()
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	if before != status {
		s.record(ctx, entity.AuditRecord{
			BusinessID: businessID,
			ActorID:    actorID,
			Action:     entity.AuditMemberStatusUpdated,
			TargetID:   targetID,
			BeforeRole: updated.Role.String(),
			AfterRole:  updated.Role.String(),
			Metadata:   map[string]string{"before_status": before, "after_status": status},
		})
	}
	return updated, nil
}

// RemoveMember elimina la membresía de otro miembro. El usuario y sus demás membresías no se tocan.
func (s *Service) RemoveMember(ctx context.Context, actorID, businessID, targetID string) (err error) {
	ctx, span := s.startSpan(ctx, "remove_member", businessID)
	defer func() { endSpan(span, err) }()

	var removed *entity.Membership
	err = s.withActor(ctx, actorID, businessID, func(r Repos, _ *entity.Business, actor *entity.Membership) error {
		if err := requirePermission(actor, role.PermRemoveMembers); err != nil {
			return err
		}
		target, err := loadTarget(ctx, r, businessID, targetID)
		if err != nil {
			return err
		}
		sole, err := isSoleActiveOwner(ctx, r, target)
		if err != nil {
			return err
		}
		if sole {
			return domain.ErrLastOwnerViolation
		}
		if !role.Outranks(actor.Rank(), target.Role) {
			return domain.ErrInsufficientRank
		}
		applied, err := r.Memberships.Delete(ctx, businessID, targetID)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrLastOwnerViolation
		}
		removed = target
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("business_id", businessID).Str("actor_id", actorID).Str("target_id", targetID).Msg("miembro removido")
	s.record(ctx, entity.AuditRecord{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     entity.AuditMemberRemoved,
		TargetID:   targetID,
		BeforeRole: removed.Role.String(),
	})
	return nil
}

// LeaveBusiness el usuario abandona el negocio (en cualquier estado de membresía).
// El último propietario activo no puede irse sin transferir antes la propiedad.
func (s *Service) LeaveBusiness(ctx context.Context, userID, businessID string) (err error) {
	ctx, span := s.startSpan(ctx, "leave_business", businessID)
	defer func() { endSpan(span, err) }()

	if userID == "" || businessID == "" {
		return domain.ErrNotAMember
	}
	var left *entity.Membership
	err = s.tx.RunTeam(ctx, func(r Repos) error {
		b, err := r.Businesses.LockForUpdate(ctx, businessID)
		if err != nil {
			return err
		}
		if b == nil || !b.IsActive {
			return domain.ErrNotAMember
		}
		m, err := loadTarget(ctx, r, businessID, userID)
		if err != nil {
			return err
		}
		sole, err := isSoleActiveOwner(ctx, r, m)
		if err != nil {
			return err
		}
		if sole {
			return domain.ErrLastOwnerViolation
		}
		applied, err := r.Memberships.Delete(ctx, businessID, userID)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrLastOwnerViolation
		}
		left = m
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, entity.AuditRecord{
		BusinessID: businessID,
		ActorID:    userID,
		Action:     entity.AuditMemberLeft,
		TargetID:   userID,
		BeforeRole: left.Role.String(),
	})
	return nil
}

// TransferOwnership pasa la propiedad a otro miembro activo: el destino queda owner y el
// actor queda admin en la misma escritura. confirmation debe coincidir con el slug del negocio.
func (s *Service) TransferOwnership(ctx context.Context, actorID, businessID, targetID, confirmation string) (err error) {
	ctx, span := s.startSpan(ctx, "transfer_ownership", businessID)
	defer func() { endSpan(span, err) }()

	if actorID == targetID {
		return domain.ErrInvalidInput
	}

	var targetBefore role.Role
	err = s.withActor(ctx, actorID, businessID, func(r Repos, b *entity.Business, actor *entity.Membership) error {
		if actor.Role != role.Owner {
			return domain.ErrNotOwner
		}
		if strings.TrimSpace(confirmation) != b.Slug {
			return domain.ErrConfirmationRequired
		}
		target, err := r.Memberships.Get(ctx, businessID, targetID)
		if err != nil {
			return err
		}
		if !target.IsActive() {
			return domain.ErrNotAMember
		}
		targetBefore = target.Role
		applied, err := r.Memberships.SwapOwner(ctx, businessID, actorID, targetID)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrLastOwnerViolation
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("business_id", businessID).Str("from", actorID).Str("to", targetID).Msg("propiedad transferida")
	s.record(ctx, entity.AuditRecord{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     entity.AuditOwnershipTransferred,
		TargetID:   targetID,
		BeforeRole: targetBefore.String(),
		AfterRole:  role.Owner.String(),
		Metadata:   map[string]string{"previous_owner_role": role.Admin.String()},
	})
	return nil
}

// ListAudit devuelve el historial de auditoría del negocio, del más reciente al más antiguo.
func (s *Service) ListAudit(ctx context.Context, actorID, businessID string, limit, offset int) (_ []*entity.AuditRecord, err error) {
	ctx, span := s.startSpan(ctx, "list_audit", businessID)
	defer func() { endSpan(span, err) }()

	actor, err := s.resolver.ResolveActive(ctx, actorID, businessID)
	if err != nil {
		return nil, err
	}
	if err := requirePermission(actor, role.PermViewAudit); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Audit.ListByBusiness(ctx, businessID, limit, offset)
}

// ExportRoster genera el documento del equipo. Requiere export_data.
func (s *Service) ExportRoster(ctx context.Context, actorID, businessID string) (_ []byte, err error) {
	ctx, span := s.startSpan(ctx, "export_roster", businessID)
	defer func() { endSpan(span, err) }()

	if s.roster == nil {
		return nil, fmt.Errorf("exporte de equipo no configurado")
	}
	actor, err := s.resolver.ResolveActive(ctx, actorID, businessID)
	if err != nil {
		return nil, err
	}
	if err := requirePermission(actor, role.PermExportData); err != nil {
		return nil, err
	}
	b, err := s.repos.Businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotAMember
	}
	members, err := s.repos.Memberships.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return s.roster.RenderRoster(ctx, b, members, s.now())
}

func overridesMetadata(o role.Overrides) map[string]string {
	join := func(ps []role.Permission) string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = string(p)
		}
		return strings.Join(out, ",")
	}
	return map[string]string{"allow": join(o.Allow), "deny": join(o.Deny)}
}
