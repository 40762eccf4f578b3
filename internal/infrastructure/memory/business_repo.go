package memory

import (
	"context"

	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/repository"
)

var (
	_ repository.OrganizationRepository = (*OrganizationRepo)(nil)
	_ repository.BusinessRepository     = (*BusinessRepo)(nil)
	_ repository.UserRepository         = (*UserRepo)(nil)
)

// OrganizationRepo implementación en memoria de OrganizationRepository.
type OrganizationRepo struct{ base }

func (r *OrganizationRepo) Create(_ context.Context, org *entity.Organization) error {
	return r.with(func(st *state) error {
		for _, o := range st.orgs {
			if o.ID == org.ID || o.Slug == org.Slug {
				return domain.ErrDuplicate
			}
		}
		st.orgs[org.ID] = *org
		return nil
	})
}

func (r *OrganizationRepo) GetByID(_ context.Context, id string) (*entity.Organization, error) {
	var out *entity.Organization
	err := r.with(func(st *state) error {
		if o, ok := st.orgs[id]; ok {
			out = &o
		}
		return nil
	})
	return out, err
}

// BusinessRepo implementación en memoria de BusinessRepository.
type BusinessRepo struct{ base }

func (r *BusinessRepo) Create(_ context.Context, b *entity.Business) error {
	return r.with(func(st *state) error {
		for _, existing := range st.businesses {
			if existing.ID == b.ID || existing.Slug == b.Slug {
				return domain.ErrDuplicate
			}
		}
		st.businesses[b.ID] = *b
		return nil
	})
}

func (r *BusinessRepo) GetByID(_ context.Context, id string) (*entity.Business, error) {
	var out *entity.Business
	err := r.with(func(st *state) error {
		if b, ok := st.businesses[id]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r *BusinessRepo) ListByOrganization(_ context.Context, organizationID string) ([]*entity.Business, error) {
	var out []*entity.Business
	err := r.with(func(st *state) error {
		for _, b := range st.businesses {
			if b.OrganizationID == organizationID {
				b := b
				out = append(out, &b)
			}
		}
		return nil
	})
	return out, err
}

// LockForUpdate en memoria equivale a GetByID: RunTeam ya tiene acceso exclusivo.
func (r *BusinessRepo) LockForUpdate(ctx context.Context, id string) (*entity.Business, error) {
	return r.GetByID(ctx, id)
}

// UserRepo implementación en memoria de UserRepository.
type UserRepo struct{ base }

func (r *UserRepo) Upsert(_ context.Context, u *entity.User) error {
	return r.with(func(st *state) error {
		existing, ok := st.users[u.ID]
		if !ok {
			st.users[u.ID] = *u
			return nil
		}
		if u.DisplayName != "" {
			existing.DisplayName = u.DisplayName
		}
		st.users[u.ID] = existing
		return nil
	})
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.with(func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}
