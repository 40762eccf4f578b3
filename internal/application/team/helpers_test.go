package team_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
	"github.com/jhoicas/bizhub-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []team.InvitationMessage
	err  error
}

func (f *fakeSender) SendInvitation(_ context.Context, msg team.InvitationMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) last() team.InvitationMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeAudit struct {
	mu      sync.Mutex
	records []entity.AuditRecord
	err     error
}

func (f *fakeAudit) Record(_ context.Context, rec *entity.AuditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.records))
	for i, r := range f.records {
		out[i] = r.Action
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store      *memory.Store
	svc        *team.Service
	clock      *fakeClock
	sender     *fakeSender
	audit      *fakeAudit
	businessID string
	slug       string
}

const ownerID = "u-owner"

// newFixture crea un negocio "tienda-centro" con u-owner como propietario fundador.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.New(),
		clock:  &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		sender: &fakeSender{},
		audit:  &fakeAudit{},
		slug:   "tienda-centro",
	}
	f.svc = team.NewService(f.store.Repos(), f.store,
		team.WithClock(f.clock.Now),
		team.WithInvitationSender(f.sender),
		team.WithAuditSink(f.audit),
	)
	view, err := f.svc.CreateBusiness(context.Background(),
		team.Identity{UserID: ownerID, Email: "duena@tienda.co", DisplayName: "Dueña"},
		team.CreateBusinessInput{OrganizationName: "Grupo Centro", Name: "Tienda Centro", Slug: f.slug},
	)
	require.NoError(t, err)
	f.businessID = view.Business.ID
	return f
}

// addMember inserta directamente una membresía activa (sin pasar por invitaciones).
func (f *fixture) addMember(t *testing.T, userID string, r role.Role) {
	t.Helper()
	ctx := context.Background()
	repos := f.store.Repos()
	require.NoError(t, repos.Users.Upsert(ctx, &entity.User{ID: userID, Email: userID + "@tienda.co"}))
	now := f.clock.Now()
	require.NoError(t, repos.Memberships.Create(ctx, &entity.Membership{
		BusinessID: f.businessID,
		UserID:     userID,
		Role:       r,
		Status:     entity.MembershipActive,
		InvitedBy:  ownerID,
		JoinedAt:   &now,
		UpdatedAt:  now,
	}))
}

func (f *fixture) membership(t *testing.T, userID string) *entity.Membership {
	t.Helper()
	m, err := f.store.Repos().Memberships.Get(context.Background(), f.businessID, userID)
	require.NoError(t, err)
	return m
}

func (f *fixture) activeOwners(t *testing.T) int {
	t.Helper()
	n, err := f.store.Repos().Memberships.CountActiveOwners(context.Background(), f.businessID)
	require.NoError(t, err)
	return n
}

var errSMTP = errors.New("smtp: conexión rechazada")
