package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/repository"
)

var (
	_ repository.InvitationRepository = (*InvitationRepo)(nil)
	_ repository.AuditRepository      = (*AuditRepo)(nil)
)

// InvitationRepo implementación en memoria de InvitationRepository.
type InvitationRepo struct{ base }

func (r *InvitationRepo) Create(_ context.Context, inv *entity.Invitation) error {
	return r.with(func(st *state) error {
		if _, ok := st.invitations[inv.ID]; ok {
			return domain.ErrDuplicate
		}
		st.seq++
		st.invitations[inv.ID] = storedInvitation{Invitation: *inv, seq: st.seq}
		return nil
	})
}

func (r *InvitationRepo) GetByID(_ context.Context, businessID, id string) (*entity.Invitation, error) {
	var out *entity.Invitation
	err := r.with(func(st *state) error {
		if s, ok := st.invitations[id]; ok && s.BusinessID == businessID {
			inv := s.Invitation
			out = &inv
		}
		return nil
	})
	return out, err
}

func (r *InvitationRepo) GetByTokenHash(_ context.Context, businessID, tokenHash string) (*entity.Invitation, error) {
	var out *entity.Invitation
	err := r.with(func(st *state) error {
		for _, s := range st.invitations {
			if s.BusinessID == businessID && s.TokenHash == tokenHash {
				inv := s.Invitation
				out = &inv
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *InvitationRepo) GetLatestByEmail(_ context.Context, businessID, email string) (*entity.Invitation, error) {
	var out *entity.Invitation
	err := r.with(func(st *state) error {
		var best *storedInvitation
		for _, s := range st.invitations {
			if s.BusinessID != businessID || s.Email != email {
				continue
			}
			if best == nil || s.seq > best.seq {
				s := s
				best = &s
			}
		}
		if best != nil {
			inv := best.Invitation
			out = &inv
		}
		return nil
	})
	return out, err
}

func (r *InvitationRepo) ListByBusiness(_ context.Context, businessID string) ([]*entity.Invitation, error) {
	var rows []storedInvitation
	err := r.with(func(st *state) error {
		for _, s := range st.invitations {
			if s.BusinessID == businessID {
				rows = append(rows, s)
			}
		}
		return nil
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]*entity.Invitation, len(rows))
	for i := range rows {
		inv := rows[i].Invitation
		out[i] = &inv
	}
	return out, err
}

func (r *InvitationRepo) Transition(_ context.Context, inv *entity.Invitation, fromStatus string) (bool, error) {
	var applied bool
	err := r.with(func(st *state) error {
		s, ok := st.invitations[inv.ID]
		if !ok || s.BusinessID != inv.BusinessID || s.Status != fromStatus {
			return nil
		}
		s.Invitation = *inv
		st.invitations[inv.ID] = s
		applied = true
		return nil
	})
	return applied, err
}

// AuditRepo implementación en memoria de AuditRepository (append-only).
type AuditRepo struct{ base }

func (r *AuditRepo) Create(_ context.Context, rec *entity.AuditRecord) error {
	return r.with(func(st *state) error {
		st.audit = append(st.audit, *rec)
		return nil
	})
}

func (r *AuditRepo) ListByBusiness(_ context.Context, businessID string, limit, offset int) ([]*entity.AuditRecord, error) {
	var out []*entity.AuditRecord
	err := r.with(func(st *state) error {
		skipped := 0
		for i := len(st.audit) - 1; i >= 0; i-- {
			rec := st.audit[i]
			if rec.BusinessID != businessID {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, &rec)
		}
		return nil
	})
	return out, err
}
