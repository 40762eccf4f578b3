package team_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// ──────────────────────────────────────────────────────────────────────────────
// Lote con éxito parcial
// ──────────────────────────────────────────────────────────────────────────────

func TestBulkUpdateMembers_LoteNoEsAtomico(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, "u-admin", role.Admin)
	f.addMember(t, "u-mgr1", role.Manager)
	f.addMember(t, "u-mgr2", role.Manager)

	res, err := f.svc.BulkUpdateMembers(ctx, "u-admin", f.businessID,
		[]string{"u-mgr1", ownerID, "u-mgr2"},
		team.BulkUpdate{Action: team.BulkSetRole, Role: role.Staff})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, res.Items[0].OK)
	assert.False(t, res.Items[1].OK)
	assert.Equal(t, team.CodeLastOwner, res.Items[1].ErrorCode)
	assert.True(t, res.Items[2].OK)

	assert.Equal(t, role.Staff, f.membership(t, "u-mgr1").Role)
	assert.Equal(t, role.Staff, f.membership(t, "u-mgr2").Role)
	assert.Equal(t, role.Owner, f.membership(t, ownerID).Role)
}

func TestBulkUpdateMembers_RemoverYSuspender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, "u-s1", role.Staff)
	f.addMember(t, "u-s2", role.Staff)

	res, err := f.svc.BulkUpdateMembers(ctx, ownerID, f.businessID,
		[]string{"u-s1", "u-s1", "u-nadie"}, team.BulkUpdate{Action: team.BulkSuspend})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total, "destinatarios duplicados se procesan una vez")
	assert.Equal(t, team.CodeNotAMember, res.Items[1].ErrorCode)

	res, err = f.svc.BulkUpdateMembers(ctx, ownerID, f.businessID,
		[]string{"u-s2"}, team.BulkUpdate{Action: team.BulkRemove})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Nil(t, f.membership(t, "u-s2"))
}

func TestBulkUpdateMembers_EntradaInvalidaYNoMiembro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.BulkUpdateMembers(ctx, ownerID, f.businessID, []string{"x"}, team.BulkUpdate{Action: "promote"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.BulkUpdateMembers(ctx, ownerID, f.businessID, nil, team.BulkUpdate{Action: team.BulkRemove})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.BulkUpdateMembers(ctx, "u-extraño", f.businessID, []string{ownerID}, team.BulkUpdate{Action: team.BulkRemove})
	assert.ErrorIs(t, err, domain.ErrNotAMember)
}

// cancelOnRecord cancela el contexto del lote al auditar la primera operación confirmada.
type cancelOnRecord struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (c *cancelOnRecord) Record(context.Context, *entity.AuditRecord) error {
	c.once.Do(c.cancel)
	return nil
}

func TestBulkUpdateMembers_CancelacionConservaLoConfirmado(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, "u-s1", role.Staff)
	f.addMember(t, "u-s2", role.Staff)
	f.addMember(t, "u-s3", role.Staff)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := team.NewService(f.store.Repos(), f.store,
		team.WithClock(f.clock.Now),
		team.WithAuditSink(&cancelOnRecord{cancel: cancel}),
	)

	res, err := svc.BulkUpdateMembers(ctx, ownerID, f.businessID,
		[]string{"u-s1", "u-s2", "u-s3"}, team.BulkUpdate{Action: team.BulkRemove})
	require.NoError(t, err, "el lote nunca falla como unidad")
	require.NotNil(t, res)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.True(t, res.Items[0].OK)
	assert.Nil(t, f.membership(t, "u-s1"), "la remoción confirmada se mantiene")
	for _, item := range res.Items[1:] {
		assert.False(t, item.OK)
		assert.Equal(t, team.CodeCanceled, item.ErrorCode)
	}
	assert.NotNil(t, f.membership(t, "u-s2"))
	assert.NotNil(t, f.membership(t, "u-s3"))
}
