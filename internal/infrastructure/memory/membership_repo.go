package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/repository"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

var _ repository.MembershipRepository = (*MembershipRepo)(nil)

// MembershipRepo implementación en memoria de MembershipRepository.
// Las escrituras guardadas replican las condiciones del SQL de Postgres.
type MembershipRepo struct{ base }

func (r *MembershipRepo) Get(_ context.Context, businessID, userID string) (*entity.Membership, error) {
	var out *entity.Membership
	err := r.with(func(st *state) error {
		if m, ok := st.memberships[memberKey{businessID, userID}]; ok {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r *MembershipRepo) GetActiveByEmail(_ context.Context, businessID, email string) (*entity.Membership, error) {
	var out *entity.Membership
	err := r.with(func(st *state) error {
		for k, m := range st.memberships {
			if k.businessID != businessID || m.Status != entity.MembershipActive {
				continue
			}
			if u, ok := st.users[k.userID]; ok && u.Email == email {
				m := m
				out = &m
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *MembershipRepo) ListByBusiness(_ context.Context, businessID string) ([]*entity.MemberView, error) {
	var out []*entity.MemberView
	err := r.with(func(st *state) error {
		for k, m := range st.memberships {
			if k.businessID != businessID {
				continue
			}
			u := st.users[k.userID]
			out = append(out, &entity.MemberView{Membership: m, Email: u.Email, DisplayName: u.DisplayName})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if ri, rj := out[i].Rank(), out[j].Rank(); ri != rj {
			return ri > rj
		}
		return out[i].Email < out[j].Email
	})
	return out, err
}

func (r *MembershipRepo) CountActiveOwners(_ context.Context, businessID string) (int, error) {
	var n int
	err := r.with(func(st *state) error {
		n = activeOwners(st, businessID, "")
		return nil
	})
	return n, err
}

func (r *MembershipRepo) Create(_ context.Context, m *entity.Membership) error {
	return r.with(func(st *state) error {
		k := memberKey{m.BusinessID, m.UserID}
		if _, ok := st.memberships[k]; ok {
			return domain.ErrDuplicate
		}
		st.memberships[k] = *m
		return nil
	})
}

func (r *MembershipRepo) UpdateOverrides(_ context.Context, businessID, userID string, o role.Overrides) (bool, error) {
	var applied bool
	err := r.with(func(st *state) error {
		k := memberKey{businessID, userID}
		m, ok := st.memberships[k]
		if !ok {
			return nil
		}
		m.PermissionOverrides = o
		st.memberships[k] = m
		applied = true
		return nil
	})
	return applied, err
}

func (r *MembershipRepo) UpdateRole(_ context.Context, businessID, userID string, newRole role.Role) (bool, error) {
	var applied bool
	err := r.with(func(st *state) error {
		k := memberKey{businessID, userID}
		m, ok := st.memberships[k]
		if !ok {
			return nil
		}
		if newRole != role.Owner && !keepsOwner(st, m) {
			return nil
		}
		m.Role = newRole
		st.memberships[k] = m
		applied = true
		return nil
	})
	return applied, err
}

func (r *MembershipRepo) UpdateStatus(_ context.Context, businessID, userID, status string) (bool, error) {
	var applied bool
	err := r.with(func(st *state) error {
		k := memberKey{businessID, userID}
		m, ok := st.memberships[k]
		if !ok {
			return nil
		}
		if status != entity.MembershipActive && !keepsOwner(st, m) {
			return nil
		}
		m.Status = status
		st.memberships[k] = m
		applied = true
		return nil
	})
	return applied, err
}

func (r *MembershipRepo) Delete(_ context.Context, businessID, userID string) (bool, error) {
	var applied bool
	err := r.with(func(st *state) error {
		k := memberKey{businessID, userID}
		m, ok := st.memberships[k]
		if !ok || !keepsOwner(st, m) {
			return nil
		}
		delete(st.memberships, k)
		applied = true
		return nil
	})
	return applied, err
}

func (r *MembershipRepo) SwapOwner(_ context.Context, businessID, fromUserID, toUserID string) (bool, error) {
	var applied bool
	err := r.with(func(st *state) error {
		fk, tk := memberKey{businessID, fromUserID}, memberKey{businessID, toUserID}
		from, okF := st.memberships[fk]
		to, okT := st.memberships[tk]
		if !okF || !okT || fromUserID == toUserID || !from.IsActiveOwner() || !to.IsActive() {
			return nil
		}
		from.Role = role.Admin
		to.Role = role.Owner
		st.memberships[fk] = from
		st.memberships[tk] = to
		applied = true
		return nil
	})
	return applied, err
}

// keepsOwner: quitar a m del conjunto de propietarios activos deja al menos uno.
func keepsOwner(st *state, m entity.Membership) bool {
	if !m.IsActiveOwner() {
		return true
	}
	return activeOwners(st, m.BusinessID, m.UserID) >= 1
}

func activeOwners(st *state, businessID, exceptUserID string) int {
	n := 0
	for k, m := range st.memberships {
		if k.businessID == businessID && k.userID != exceptUserID && m.IsActiveOwner() {
			n++
		}
	}
	return n
}
