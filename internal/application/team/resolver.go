package team

import (
	"context"

	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
)

// Resolver obtiene la membresía de un usuario en un negocio. No cachea: cada llamada
// lee el almacén, de modo que un cambio de rol confirmado se ve en la siguiente resolución.
type Resolver struct {
	repos Repos
}

// NewResolver construye el resolver sobre los repositorios fuera de transacción.
func NewResolver(repos Repos) *Resolver {
	return &Resolver{repos: repos}
}

// Resolve devuelve la membresía en cualquier estado. Negocio inexistente, negocio
// inactivo y usuario sin membresía son indistinguibles: todos dan ErrNotAMember.
func (r *Resolver) Resolve(ctx context.Context, userID, businessID string) (*entity.Membership, error) {
	return resolveMembership(ctx, r.repos, userID, businessID)
}

// ResolveActive como Resolve, pero exige status active.
func (r *Resolver) ResolveActive(ctx context.Context, userID, businessID string) (*entity.Membership, error) {
	m, err := r.Resolve(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, domain.ErrNotAMember
	}
	return m, nil
}

func resolveMembership(ctx context.Context, repos Repos, userID, businessID string) (*entity.Membership, error) {
	if userID == "" || businessID == "" {
		return nil, domain.ErrNotAMember
	}
	b, err := repos.Businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if b == nil || !b.IsActive {
		return nil, domain.ErrNotAMember
	}
	m, err := repos.Memberships.Get(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotAMember
	}
	return m, nil
}
