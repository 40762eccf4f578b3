package team_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/repository"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

func invitee(email string) team.Identity {
	return team.Identity{UserID: "u-" + email, Email: email, DisplayName: "Invitado"}
}

func TestInviteMember_CreaYEntrega(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "  Nuevo@Tienda.CO ", role.Staff)
	require.NoError(t, err)
	assert.True(t, res.InvitationCreated)
	assert.True(t, res.EmailSent)
	assert.NoError(t, res.DeliveryError)
	assert.Equal(t, "nuevo@tienda.co", res.Invitation.Email)
	assert.Equal(t, entity.InvitationPending, res.Invitation.Status)
	assert.Equal(t, f.clock.Now().Add(team.DefaultInvitationTTL), res.Invitation.ExpiresAt)

	msg := f.sender.last()
	assert.Equal(t, res.Token, msg.Token)
	assert.Equal(t, "Tienda Centro", msg.BusinessName)
	assert.NotEqual(t, res.Token, res.Invitation.TokenHash, "solo se guarda el hash")
	assert.Equal(t, team.HashToken(res.Token), res.Invitation.TokenHash)
}

func TestInviteMember_RangoYMembresiaExistente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, "u-admin", role.Admin)
	f.addMember(t, "u-staff", role.Staff)

	_, err := f.svc.InviteMember(ctx, "u-admin", f.businessID, "socio@x.co", role.Owner)
	assert.ErrorIs(t, err, domain.ErrInsufficientRank)

	_, err = f.svc.InviteMember(ctx, "u-staff", f.businessID, "amigo@x.co", role.Viewer)
	assert.ErrorIs(t, err, domain.ErrInsufficientRank, "staff no tiene invite_members")

	_, err = f.svc.InviteMember(ctx, "u-admin", f.businessID, "U-STAFF@tienda.co", role.Viewer)
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)

	for _, bad := range []string{"sin-arroba", "@tienda.co", "ana@", "ana maria@tienda.co", "Ana <ana@tienda.co>"} {
		_, err = f.svc.InviteMember(ctx, "u-admin", f.businessID, bad, role.Viewer)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}

func TestInviteMember_ReemplazaInvitacionPendiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "nuevo@tienda.co", role.Viewer)
	require.NoError(t, err)
	second, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "nuevo@tienda.co", role.Manager)
	require.NoError(t, err)

	_, err = f.svc.AcceptInvitation(ctx, invitee("nuevo@tienda.co"), f.businessID, first.Token)
	assert.ErrorIs(t, err, domain.ErrInvitationNotPending)

	status, err := f.svc.CheckInvitationStatus(ctx, ownerID, f.businessID, "nuevo@tienda.co")
	require.NoError(t, err)
	assert.Equal(t, team.InvitationStatePending, status.State)
	assert.Equal(t, second.Invitation.ID, status.Invitation.ID)
}

func TestInviteMember_FalloDeEntregaEsExitoParcial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sender.err = errSMTP

	res, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "nuevo@tienda.co", role.Staff)
	require.NoError(t, err)
	assert.True(t, res.InvitationCreated)
	assert.False(t, res.EmailSent)
	assert.ErrorIs(t, res.DeliveryError, domain.ErrDeliveryFailed)

	invs, err := f.svc.ListInvitations(ctx, ownerID, f.businessID)
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, entity.InvitationPending, invs[0].Status, "la invitación no se revierte")

	m, err := f.svc.AcceptInvitation(ctx, invitee("nuevo@tienda.co"), f.businessID, res.Token)
	require.NoError(t, err)
	assert.Equal(t, role.Staff, m.Role)
}

func TestAcceptInvitation_CreaMembresiaActiva(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "nuevo@tienda.co", role.Manager)
	require.NoError(t, err)

	id := invitee("NUEVO@tienda.co")
	m, err := f.svc.AcceptInvitation(ctx, id, f.businessID, res.Token)
	require.NoError(t, err)
	assert.Equal(t, role.Manager, m.Role)
	assert.Equal(t, entity.MembershipActive, m.Status)
	assert.Equal(t, ownerID, m.InvitedBy)
	require.NotNil(t, m.JoinedAt)

	ok, err := f.svc.Can(ctx, id.UserID, f.businessID, role.PermViewTeam)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.AcceptInvitation(ctx, id, f.businessID, res.Token)
	assert.ErrorIs(t, err, domain.ErrInvitationNotPending, "un token se canjea una sola vez")

	status, err := f.svc.CheckInvitationStatus(ctx, ownerID, f.businessID, "nuevo@tienda.co")
	require.NoError(t, err)
	assert.Equal(t, team.InvitationStateAccepted, status.State)
	assert.Equal(t, id.UserID, status.Invitation.AcceptedBy)
}

func TestAcceptInvitation_Errores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "nuevo@tienda.co", role.Viewer)
	require.NoError(t, err)

	_, err = f.svc.AcceptInvitation(ctx, invitee("intruso@x.co"), f.businessID, res.Token)
	assert.ErrorIs(t, err, domain.ErrInvitationEmailMismatch)

	_, err = f.svc.AcceptInvitation(ctx, invitee("nuevo@tienda.co"), f.businessID, "token-inventado")
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)

	_, err = f.svc.AcceptInvitation(ctx, invitee("nuevo@tienda.co"), "otro-negocio", res.Token)
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound, "el token no sirve en otro negocio")

	require.NoError(t, f.svc.RevokeInvitation(ctx, ownerID, f.businessID, res.Invitation.ID))
	_, err = f.svc.AcceptInvitation(ctx, invitee("nuevo@tienda.co"), f.businessID, res.Token)
	assert.ErrorIs(t, err, domain.ErrInvitationNotPending)

	err = f.svc.RevokeInvitation(ctx, ownerID, f.businessID, res.Invitation.ID)
	assert.ErrorIs(t, err, domain.ErrInvitationNotPending)
}

// ──────────────────────────────────────────────────────────────────────────────
// Expiración y reenvío
// ──────────────────────────────────────────────────────────────────────────────

func TestInvitacion_ExpiraYSeReenvia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := invitee("nuevo@tienda.co")

	res, err := f.svc.InviteMember(ctx, ownerID, f.businessID, id.Email, role.Staff)
	require.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)

	_, err = f.svc.AcceptInvitation(ctx, id, f.businessID, res.Token)
	assert.ErrorIs(t, err, domain.ErrInvitationExpired)
	assert.ErrorIs(t, err, domain.ErrInvitationNotPending)

	status, err := f.svc.CheckInvitationStatus(ctx, ownerID, f.businessID, id.Email)
	require.NoError(t, err)
	assert.Equal(t, team.InvitationStateExpired, status.State, "la expiración quedó persistida")

	again, err := f.svc.ResendInvitation(ctx, ownerID, f.businessID, res.Invitation.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationPending, again.Invitation.Status)
	assert.Equal(t, 1, again.Invitation.ResentCount)
	assert.Equal(t, f.clock.Now().Add(team.DefaultInvitationTTL), again.Invitation.ExpiresAt)
	assert.NotEqual(t, res.Token, again.Token)

	_, err = f.svc.AcceptInvitation(ctx, id, f.businessID, res.Token)
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound, "el token anterior quedó invalidado")

	m, err := f.svc.AcceptInvitation(ctx, id, f.businessID, again.Token)
	require.NoError(t, err)
	assert.Equal(t, role.Staff, m.Role)
}

func TestResendInvitation_NoAplicaAAceptadas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := invitee("nuevo@tienda.co")

	res, err := f.svc.InviteMember(ctx, ownerID, f.businessID, id.Email, role.Staff)
	require.NoError(t, err)
	_, err = f.svc.AcceptInvitation(ctx, id, f.businessID, res.Token)
	require.NoError(t, err)

	_, err = f.svc.ResendInvitation(ctx, ownerID, f.businessID, res.Invitation.ID)
	assert.ErrorIs(t, err, domain.ErrInvitationNotPending)

	_, err = f.svc.ResendInvitation(ctx, ownerID, f.businessID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)
}

func TestRevokeInvitation_VencidaQuedaExpirada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "nuevo@tienda.co", role.Staff)
	require.NoError(t, err)
	f.clock.Advance(team.DefaultInvitationTTL)

	err = f.svc.RevokeInvitation(ctx, ownerID, f.businessID, res.Invitation.ID)
	assert.ErrorIs(t, err, domain.ErrInvitationNotPending)

	status, err := f.svc.CheckInvitationStatus(ctx, ownerID, f.businessID, "nuevo@tienda.co")
	require.NoError(t, err)
	assert.Equal(t, team.InvitationStateExpired, status.State)
}

func TestCheckInvitationStatus_SinInvitacion(t *testing.T) {
	f := newFixture(t)

	status, err := f.svc.CheckInvitationStatus(context.Background(), ownerID, f.businessID, "nadie@x.co")
	require.NoError(t, err)
	assert.Equal(t, team.InvitationStateNone, status.State)
	assert.Nil(t, status.Invitation)
}

func TestAcceptInvitation_VencidaMismoErrorLeidaONo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := invitee("nuevo@tienda.co")

	res, err := f.svc.InviteMember(ctx, ownerID, f.businessID, id.Email, role.Staff)
	require.NoError(t, err)
	f.clock.Advance(8 * 24 * time.Hour)

	// Primera lectura: la expiración se aplica y se persiste en esta misma llamada.
	_, first := f.svc.AcceptInvitation(ctx, id, f.businessID, res.Token)
	// Segunda: la invitación ya está guardada como expired.
	_, second := f.svc.AcceptInvitation(ctx, id, f.businessID, res.Token)

	for _, err := range []error{first, second} {
		assert.ErrorIs(t, err, domain.ErrInvitationNotPending)
		assert.ErrorIs(t, err, domain.ErrInvitationExpired)
	}
	assert.Equal(t, team.ErrorCode(first), team.ErrorCode(second))
	assert.Equal(t, team.CodeInvitationExpired, team.ErrorCode(second))
	assert.Nil(t, f.membership(t, id.UserID))
}

func TestInviteMember_PreviaVencidaQuedaExpiradaNoRevocada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "nuevo@tienda.co", role.Viewer)
	require.NoError(t, err)
	f.clock.Advance(team.DefaultInvitationTTL + time.Hour)

	second, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "nuevo@tienda.co", role.Staff)
	require.NoError(t, err)

	prev, err := f.store.Repos().Invitations.GetByID(ctx, f.businessID, first.Invitation.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationExpired, prev.Status, "el historial conserva la expiración")

	prevFresh, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "otro@tienda.co", role.Viewer)
	require.NoError(t, err)
	_, err = f.svc.InviteMember(ctx, ownerID, f.businessID, "otro@tienda.co", role.Staff)
	require.NoError(t, err)
	replaced, err := f.store.Repos().Invitations.GetByID(ctx, f.businessID, prevFresh.Invitation.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationRevoked, replaced.Status, "una pendiente vigente sí se revoca")

	assert.Equal(t, entity.InvitationPending, second.Invitation.Status)
}

// lockCounter envuelve el almacén y cuenta los bloqueos de negocio por transacción.
type lockCounter struct {
	team.TxRunner
	mu    sync.Mutex
	locks int
}

type countingBusinesses struct {
	repository.BusinessRepository
	c *lockCounter
}

func (b countingBusinesses) LockForUpdate(ctx context.Context, id string) (*entity.Business, error) {
	b.c.mu.Lock()
	b.c.locks++
	b.c.mu.Unlock()
	return b.BusinessRepository.LockForUpdate(ctx, id)
}

func (c *lockCounter) RunTeam(ctx context.Context, fn func(r team.Repos) error) error {
	return c.TxRunner.RunTeam(ctx, func(r team.Repos) error {
		r.Businesses = countingBusinesses{BusinessRepository: r.Businesses, c: c}
		return fn(r)
	})
}

func (c *lockCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locks
}

func TestConsultasDeInvitacionNoBloqueanElNegocio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.InviteMember(ctx, ownerID, f.businessID, "nuevo@tienda.co", role.Staff)
	require.NoError(t, err)
	f.clock.Advance(8 * 24 * time.Hour)

	counter := &lockCounter{TxRunner: f.store}
	svc := team.NewService(f.store.Repos(), counter, team.WithClock(f.clock.Now))

	list, err := svc.ListInvitations(ctx, ownerID, f.businessID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.InvitationExpired, list[0].Status, "la expiración se persiste igual")

	status, err := svc.CheckInvitationStatus(ctx, ownerID, f.businessID, "nuevo@tienda.co")
	require.NoError(t, err)
	assert.Equal(t, team.InvitationStateExpired, status.State)
	assert.Zero(t, counter.count())

	_, err = svc.InviteMember(ctx, ownerID, f.businessID, "otro@tienda.co", role.Viewer)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.count(), "las mutaciones sí bloquean")
}
