// Package memory implementa los puertos del almacén de equipos en memoria.
// Las transacciones se serializan con un mutex global y se revierten restaurando
// una copia del estado. Útil para desarrollo local (STORE_DRIVER=memory) y tests.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
)

type memberKey struct {
	businessID string
	userID     string
}

type storedInvitation struct {
	entity.Invitation
	seq int64
}

type state struct {
	orgs        map[string]entity.Organization
	businesses  map[string]entity.Business
	users       map[string]entity.User
	memberships map[memberKey]entity.Membership
	invitations map[string]storedInvitation
	audit       []entity.AuditRecord
	seq         int64
}

func newState() *state {
	return &state{
		orgs:        make(map[string]entity.Organization),
		businesses:  make(map[string]entity.Business),
		users:       make(map[string]entity.User),
		memberships: make(map[memberKey]entity.Membership),
		invitations: make(map[string]storedInvitation),
	}
}

func (s *state) clone() *state {
	c := &state{
		orgs:        make(map[string]entity.Organization, len(s.orgs)),
		businesses:  make(map[string]entity.Business, len(s.businesses)),
		users:       make(map[string]entity.User, len(s.users)),
		memberships: make(map[memberKey]entity.Membership, len(s.memberships)),
		invitations: make(map[string]storedInvitation, len(s.invitations)),
		audit:       append([]entity.AuditRecord(nil), s.audit...),
		seq:         s.seq,
	}
	for k, v := range s.orgs {
		c.orgs[k] = v
	}
	for k, v := range s.businesses {
		c.businesses[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.memberships {
		c.memberships[k] = v
	}
	for k, v := range s.invitations {
		c.invitations[k] = v
	}
	return c
}

// Store almacén en memoria. El valor cero no es usable: usar New.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{state: newState()}
}

var _ team.TxRunner = (*Store)(nil)

// Repos devuelve repositorios fuera de transacción: cada llamada toma el lock.
func (s *Store) Repos() team.Repos {
	return s.repos(false)
}

func (s *Store) repos(inTx bool) team.Repos {
	b := base{store: s, inTx: inTx}
	return team.Repos{
		Organizations: &OrganizationRepo{b},
		Businesses:    &BusinessRepo{b},
		Users:         &UserRepo{b},
		Memberships:   &MembershipRepo{b},
		Invitations:   &InvitationRepo{b},
		Audit:         &AuditRepo{b},
	}
}

// RunTeam ejecuta fn con acceso exclusivo al almacén. Si fn falla o el contexto
// vence, el estado vuelve a la copia tomada al inicio.
func (s *Store) RunTeam(ctx context.Context, fn func(r team.Repos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	if err = fn(s.repos(true)); err != nil {
		return err
	}
	return ctx.Err()
}

// base comparte el acceso al estado entre repositorios.
type base struct {
	store *Store
	inTx  bool
}

// with ejecuta fn sobre el estado, tomando el lock salvo dentro de RunTeam (que ya lo tiene).
func (b base) with(fn func(st *state) error) error {
	if !b.inTx {
		b.store.mu.Lock()
		defer b.store.mu.Unlock()
	}
	return fn(b.store.state)
}
