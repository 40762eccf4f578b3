package team

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// InviteMember crea una invitación pendiente para email con el rol indicado. Una invitación
// pendiente previa para el mismo email queda revocada (reemplazada). La entrega ocurre tras
// el commit: si falla, la invitación sigue creada y el resultado lo indica.
func (s *Service) InviteMember(ctx context.Context, actorID, businessID, email string, r role.Role) (_ *InviteResult, err error) {
	ctx, span := s.startSpan(ctx, "invite_member", businessID)
	defer func() { endSpan(span, err) }()

	email = NormalizeEmail(email)
	if !validEmail(email) || !r.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	token, hash, err := newInvitationToken()
	if err != nil {
		return nil, err
	}

	var inv *entity.Invitation
	var business *entity.Business
	var superseded string
	err = s.withActor(ctx, actorID, businessID, func(repos Repos, b *entity.Business, actor *entity.Membership) error {
		if err := requirePermission(actor, role.PermInviteMembers); err != nil {
			return err
		}
		if !role.CanAssign(actor.Rank(), r) {
			return domain.ErrInsufficientRank
		}
		existing, err := repos.Memberships.GetActiveByEmail(ctx, businessID, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyMember
		}
		now := s.now()
		prev, err := repos.Invitations.GetLatestByEmail(ctx, businessID, email)
		if err != nil {
			return err
		}
		if prev != nil {
			if _, err := s.expireIfDue(ctx, repos, prev); err != nil {
				return err
			}
		}
		if prev.IsPending() {
			prev.Status = entity.InvitationRevoked
			prev.UpdatedAt = now
			if _, err := repos.Invitations.Transition(ctx, prev, entity.InvitationPending); err != nil {
				return err
			}
			superseded = prev.ID
		}
		inv = &entity.Invitation{
			ID:         uuid.New().String(),
			BusinessID: businessID,
			Email:      email,
			Role:       r,
			TokenHash:  hash,
			Status:     entity.InvitationPending,
			ExpiresAt:  now.Add(s.invitationTTL),
			CreatedBy:  actorID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		business = b
		return repos.Invitations.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]string{"email": email, "invitation_id": inv.ID}
	if superseded != "" {
		meta["superseded_invitation_id"] = superseded
	}
	s.record(ctx, entity.AuditRecord{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     entity.AuditMemberInvited,
		AfterRole:  r.String(),
		Metadata:   meta,
	})

	res := &InviteResult{Invitation: inv, Token: token, InvitationCreated: true}
	s.deliver(ctx, res, business, actorID)
	return res, nil
}

// ResendInvitation emite un token nuevo y reinicia la vigencia. Aplica a invitaciones
// pendientes o expiradas; el token anterior deja de servir.
func (s *Service) ResendInvitation(ctx context.Context, actorID, businessID, invitationID string) (_ *InviteResult, err error) {
	ctx, span := s.startSpan(ctx, "resend_invitation", businessID)
	defer func() { endSpan(span, err) }()

	token, hash, err := newInvitationToken()
	if err != nil {
		return nil, err
	}

	var inv *entity.Invitation
	var business *entity.Business
	err = s.withActor(ctx, actorID, businessID, func(repos Repos, b *entity.Business, actor *entity.Membership) error {
		if err := requirePermission(actor, role.PermInviteMembers); err != nil {
			return err
		}
		found, err := repos.Invitations.GetByID(ctx, businessID, invitationID)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrInvitationNotFound
		}
		if !role.CanAssign(actor.Rank(), found.Role) {
			return domain.ErrInsufficientRank
		}
		now := s.now()
		from := found.Status
		if found.ExpiredAt(now) {
			from = entity.InvitationPending
		} else if from != entity.InvitationPending && from != entity.InvitationExpired {
			return domain.ErrInvitationNotPending
		}
		latest, err := repos.Invitations.GetLatestByEmail(ctx, businessID, found.Email)
		if err != nil {
			return err
		}
		if latest != nil && latest.ID != found.ID {
			return domain.ErrInvitationNotPending
		}
		member, err := repos.Memberships.GetActiveByEmail(ctx, businessID, found.Email)
		if err != nil {
			return err
		}
		if member != nil {
			return domain.ErrAlreadyMember
		}
		found.Status = entity.InvitationPending
		found.TokenHash = hash
		found.ExpiresAt = now.Add(s.invitationTTL)
		found.ResentCount++
		found.UpdatedAt = now
		applied, err := repos.Invitations.Transition(ctx, found, from)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrInvitationNotPending
		}
		inv = found
		business = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, entity.AuditRecord{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     entity.AuditInvitationResent,
		AfterRole:  inv.Role.String(),
		Metadata: map[string]string{
			"email":         inv.Email,
			"invitation_id": inv.ID,
			"resent_count":  fmt.Sprint(inv.ResentCount),
		},
	})

	res := &InviteResult{Invitation: inv, Token: token}
	s.deliver(ctx, res, business, actorID)
	return res, nil
}

// RevokeInvitation cancela una invitación pendiente.
func (s *Service) RevokeInvitation(ctx context.Context, actorID, businessID, invitationID string) (err error) {
	ctx, span := s.startSpan(ctx, "revoke_invitation", businessID)
	defer func() { endSpan(span, err) }()

	var inv *entity.Invitation
	var lapsed bool
	err = s.withActor(ctx, actorID, businessID, func(repos Repos, _ *entity.Business, actor *entity.Membership) error {
		if err := requirePermission(actor, role.PermInviteMembers); err != nil {
			return err
		}
		found, err := repos.Invitations.GetByID(ctx, businessID, invitationID)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrInvitationNotFound
		}
		if !role.CanAssign(actor.Rank(), found.Role) {
			return domain.ErrInsufficientRank
		}
		lapsed, err = s.expireIfDue(ctx, repos, found)
		if err != nil || lapsed {
			return err
		}
		if found.Status == entity.InvitationExpired {
			return domain.ErrInvitationLapsed
		}
		if !found.IsPending() {
			return domain.ErrInvitationNotPending
		}
		found.Status = entity.InvitationRevoked
		found.UpdatedAt = s.now()
		applied, err := repos.Invitations.Transition(ctx, found, entity.InvitationPending)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrInvitationNotPending
		}
		inv = found
		return nil
	})
	if err != nil {
		return err
	}
	if lapsed {
		return domain.ErrInvitationLapsed
	}

	s.record(ctx, entity.AuditRecord{
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     entity.AuditInvitationRevoked,
		AfterRole:  inv.Role.String(),
		Metadata:   map[string]string{"email": inv.Email, "invitation_id": inv.ID},
	})
	return nil
}

// AcceptInvitation canjea el token: registra al usuario y crea su membresía activa con el
// rol invitado, todo en una transacción. Un token vencido deja la invitación en expired.
func (s *Service) AcceptInvitation(ctx context.Context, id Identity, businessID, token string) (_ *entity.Membership, err error) {
	ctx, span := s.startSpan(ctx, "accept_invitation", businessID)
	defer func() { endSpan(span, err) }()

	if id.UserID == "" || token == "" || businessID == "" {
		return nil, domain.ErrInvalidInput
	}
	email := NormalizeEmail(id.Email)
	hash := HashToken(token)

	var created *entity.Membership
	var inv *entity.Invitation
	var lapsed bool
	err = s.tx.RunTeam(ctx, func(repos Repos) error {
		b, err := repos.Businesses.LockForUpdate(ctx, businessID)
		if err != nil {
			return err
		}
		if b == nil || !b.IsActive {
			return domain.ErrInvitationNotFound
		}
		found, err := repos.Invitations.GetByTokenHash(ctx, businessID, hash)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrInvitationNotFound
		}
		lapsed, err = s.expireIfDue(ctx, repos, found)
		if err != nil || lapsed {
			return err
		}
		if found.Status == entity.InvitationExpired {
			return domain.ErrInvitationLapsed
		}
		if !found.IsPending() {
			return domain.ErrInvitationNotPending
		}
		if found.Email != email {
			return domain.ErrInvitationEmailMismatch
		}
		now := s.now()
		if err := repos.Users.Upsert(ctx, &entity.User{
			ID:          id.UserID,
			Email:       email,
			DisplayName: id.DisplayName,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		existing, err := repos.Memberships.Get(ctx, businessID, id.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyMember
		}
		invitedAt := found.CreatedAt
		m := &entity.Membership{
			BusinessID: businessID,
			UserID:     id.UserID,
			Role:       found.Role,
			Status:     entity.MembershipActive,
			InvitedBy:  found.CreatedBy,
			InvitedAt:  &invitedAt,
			JoinedAt:   &now,
			UpdatedAt:  now,
		}
		if err := repos.Memberships.Create(ctx, m); err != nil {
			return err
		}
		found.Status = entity.InvitationAccepted
		found.AcceptedBy = id.UserID
		found.AcceptedAt = &now
		found.UpdatedAt = now
		applied, err := repos.Invitations.Transition(ctx, found, entity.InvitationPending)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrInvitationNotPending
		}
		created = m
		inv = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if lapsed {
		return nil, domain.ErrInvitationLapsed
	}

	s.record(ctx, entity.AuditRecord{
		BusinessID: businessID,
		ActorID:    id.UserID,
		Action:     entity.AuditInvitationAccepted,
		TargetID:   id.UserID,
		AfterRole:  created.Role.String(),
		Metadata:   map[string]string{"invitation_id": inv.ID, "invited_by": inv.CreatedBy},
	})
	return created, nil
}

// ListInvitations lista las invitaciones del negocio, marcando como expiradas las vencidas.
func (s *Service) ListInvitations(ctx context.Context, actorID, businessID string) (_ []*entity.Invitation, err error) {
	ctx, span := s.startSpan(ctx, "list_invitations", businessID)
	defer func() { endSpan(span, err) }()

	var out []*entity.Invitation
	err = s.withReader(ctx, actorID, businessID, func(repos Repos, _ *entity.Business, actor *entity.Membership) error {
		if err := requirePermission(actor, role.PermViewTeam); err != nil {
			return err
		}
		list, err := repos.Invitations.ListByBusiness(ctx, businessID)
		if err != nil {
			return err
		}
		for _, inv := range list {
			if _, err := s.expireIfDue(ctx, repos, inv); err != nil {
				return err
			}
		}
		out = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckInvitationStatus informa el estado de la invitación más reciente para un email.
func (s *Service) CheckInvitationStatus(ctx context.Context, actorID, businessID, email string) (_ *InvitationStatusView, err error) {
	ctx, span := s.startSpan(ctx, "check_invitation_status", businessID)
	defer func() { endSpan(span, err) }()

	email = NormalizeEmail(email)
	if !validEmail(email) {
		return nil, domain.ErrInvalidInput
	}

	view := &InvitationStatusView{Email: email, State: InvitationStateNone}
	err = s.withReader(ctx, actorID, businessID, func(repos Repos, _ *entity.Business, actor *entity.Membership) error {
		if err := requirePermission(actor, role.PermViewTeam); err != nil {
			return err
		}
		inv, err := repos.Invitations.GetLatestByEmail(ctx, businessID, email)
		if err != nil || inv == nil {
			return err
		}
		if _, err := s.expireIfDue(ctx, repos, inv); err != nil {
			return err
		}
		view.Invitation = inv
		view.State = InvitationState(inv.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// expireIfDue persiste la transición pending→expired si la invitación ya venció.
func (s *Service) expireIfDue(ctx context.Context, repos Repos, inv *entity.Invitation) (bool, error) {
	now := s.now()
	if !inv.ExpiredAt(now) {
		return false, nil
	}
	inv.Status = entity.InvitationExpired
	inv.UpdatedAt = now
	if _, err := repos.Invitations.Transition(ctx, inv, entity.InvitationPending); err != nil {
		return false, err
	}
	return true, nil
}

// deliver entrega la invitación tras el commit. Un fallo no revierte nada: queda en el resultado.
func (s *Service) deliver(ctx context.Context, res *InviteResult, b *entity.Business, actorID string) {
	if s.sender == nil {
		res.DeliveryError = fmt.Errorf("%w: sin colaborador de entrega", domain.ErrDeliveryFailed)
		return
	}
	msg := InvitationMessage{
		InvitationID: res.Invitation.ID,
		BusinessID:   b.ID,
		BusinessName: b.Name,
		Email:        res.Invitation.Email,
		Role:         res.Invitation.Role,
		Token:        res.Token,
		ExpiresAt:    res.Invitation.ExpiresAt,
		InvitedBy:    actorID,
	}
	if err := s.sender.SendInvitation(ctx, msg); err != nil {
		s.log.Warn().Err(err).
			Str("business_id", b.ID).
			Str("invitation_id", res.Invitation.ID).
			Msg("entrega de invitación fallida; la invitación queda creada")
		res.DeliveryError = fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
		return
	}
	res.EmailSent = true
}
