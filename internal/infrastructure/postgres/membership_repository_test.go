package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
	"github.com/jhoicas/bizhub-api/internal/infrastructure/postgres"
)

// Requiere una base desechable: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func newRepos(t *testing.T) team.Repos {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	require.NoError(t, postgres.Migrate(dsn, "up"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return postgres.NewRepos(pool)
}

// seedBusiness crea un negocio aislado (ids y slugs únicos) con los miembros indicados.
func seedBusiness(t *testing.T, repos team.Repos, members map[string]role.Role) string {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	suffix := uuid.NewString()

	org := &entity.Organization{ID: uuid.NewString(), Name: "Grupo", Slug: "grupo-" + suffix, CreatedAt: now}
	require.NoError(t, repos.Organizations.Create(ctx, org))
	b := &entity.Business{
		ID: uuid.NewString(), OrganizationID: org.ID, Name: "Tienda", Slug: "tienda-" + suffix,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Businesses.Create(ctx, b))

	for userID, r := range members {
		require.NoError(t, repos.Users.Upsert(ctx, &entity.User{ID: userID, Email: userID + "@tienda.co", CreatedAt: now}))
		require.NoError(t, repos.Memberships.Create(ctx, &entity.Membership{
			BusinessID: b.ID, UserID: userID, Role: r, Status: entity.MembershipActive,
			JoinedAt: &now, UpdatedAt: now,
		}))
	}
	return b.ID
}

func TestMembershipRepo_UnicoPropietarioNoSeDegradaNiSuspendeNiBorra(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	owner, admin := "pg-owner-"+uuid.NewString(), "pg-admin-"+uuid.NewString()
	businessID := seedBusiness(t, repos, map[string]role.Role{owner: role.Owner, admin: role.Admin})

	applied, err := repos.Memberships.UpdateRole(ctx, businessID, owner, role.Admin)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repos.Memberships.UpdateStatus(ctx, businessID, owner, entity.MembershipSuspended)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repos.Memberships.Delete(ctx, businessID, owner)
	require.NoError(t, err)
	assert.False(t, applied)

	n, err := repos.Memberships.CountActiveOwners(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Los demás miembros no tienen la restricción.
	applied, err = repos.Memberships.UpdateRole(ctx, businessID, admin, role.Viewer)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestMembershipRepo_ConOtroPropietarioLaEscrituraProcede(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	a, b := "pg-a-"+uuid.NewString(), "pg-b-"+uuid.NewString()
	businessID := seedBusiness(t, repos, map[string]role.Role{a: role.Owner, b: role.Owner})

	applied, err := repos.Memberships.UpdateRole(ctx, businessID, a, role.Admin)
	require.NoError(t, err)
	assert.True(t, applied)

	// b quedó solo: ya no puede degradarse.
	applied, err = repos.Memberships.UpdateRole(ctx, businessID, b, role.Admin)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestMembershipRepo_SwapOwnerEsAtomico(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	owner, admin, staff := "pg-o-"+uuid.NewString(), "pg-ad-"+uuid.NewString(), "pg-st-"+uuid.NewString()
	businessID := seedBusiness(t, repos, map[string]role.Role{owner: role.Owner, admin: role.Admin, staff: role.Staff})

	applied, err := repos.Memberships.SwapOwner(ctx, businessID, admin, staff)
	require.NoError(t, err)
	assert.False(t, applied, "solo un propietario activo puede ceder")

	applied, err = repos.Memberships.SwapOwner(ctx, businessID, owner, owner)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repos.Memberships.SwapOwner(ctx, businessID, owner, admin)
	require.NoError(t, err)
	assert.True(t, applied)

	prev, err := repos.Memberships.Get(ctx, businessID, owner)
	require.NoError(t, err)
	next, err := repos.Memberships.Get(ctx, businessID, admin)
	require.NoError(t, err)
	assert.Equal(t, role.Admin, prev.Role)
	assert.Equal(t, role.Owner, next.Role)

	n, err := repos.Memberships.CountActiveOwners(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
