package team

import (
	"context"

	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
)

// BulkUpdateMembers aplica la misma acción a varios miembros. Cada destinatario se valida
// y confirma en su propia transacción con las mismas reglas que la operación individual:
// el fallo de uno no revierte a los demás.
func (s *Service) BulkUpdateMembers(ctx context.Context, actorID, businessID string, targetIDs []string, upd BulkUpdate) (_ *BulkResult, err error) {
	ctx, span := s.startSpan(ctx, "bulk_update_members", businessID)
	defer func() { endSpan(span, err) }()

	switch upd.Action {
	case BulkSetRole:
		if !upd.Role.IsValid() {
			return nil, domain.ErrInvalidInput
		}
	case BulkRemove, BulkSuspend, BulkActivate:
	default:
		return nil, domain.ErrInvalidInput
	}
	targets := dedupe(targetIDs)
	if len(targets) == 0 {
		return nil, domain.ErrInvalidInput
	}
	// Un no-miembro no obtiene detalle por destinatario.
	if _, err := s.resolver.ResolveActive(ctx, actorID, businessID); err != nil {
		return nil, err
	}

	res := &BulkResult{Total: len(targets), Items: make([]BulkItemResult, 0, len(targets))}
	for _, target := range targets {
		// Con el contexto cancelado los pendientes se reportan como fallidos; los ya
		// confirmados siguen en el resultado.
		opErr := ctx.Err()
		if opErr == nil {
			opErr = s.applyBulk(ctx, actorID, businessID, target, upd)
		}
		item := BulkItemResult{UserID: target, OK: opErr == nil}
		if opErr != nil {
			item.ErrorCode = ErrorCode(opErr)
			item.Message = opErr.Error()
			res.Failed++
		} else {
			res.Succeeded++
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

func (s *Service) applyBulk(ctx context.Context, actorID, businessID, targetID string, upd BulkUpdate) error {
	var err error
	switch upd.Action {
	case BulkSetRole:
		_, err = s.changeRole(ctx, actorID, businessID, targetID, upd.Role, true)
	case BulkRemove:
		err = s.RemoveMember(ctx, actorID, businessID, targetID)
	case BulkSuspend:
		_, err = s.SetMemberStatus(ctx, actorID, businessID, targetID, entity.MembershipSuspended)
	case BulkActivate:
		_, err = s.SetMemberStatus(ctx, actorID, businessID, targetID, entity.MembershipActive)
	}
	return err
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
