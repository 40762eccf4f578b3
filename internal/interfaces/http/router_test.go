package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bizhub-api/internal/application/dto"
	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
	"github.com/jhoicas/bizhub-api/internal/infrastructure/audit"
	"github.com/jhoicas/bizhub-api/internal/infrastructure/memory"
	"github.com/jhoicas/bizhub-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/bizhub-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: API completa sobre el almacén en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	ownerID    = "u-owner"
	ownerEmail = "duena@tienda.co"
	acceptBase = "https://app.bizhub.co/invitations/accept"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []team.InvitationMessage
	err  error
}

func (s *captureSender) SendInvitation(_ context.Context, msg team.InvitationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

type apiFixture struct {
	app        *fiber.App
	store      *memory.Store
	sender     *captureSender
	businessID string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{store: memory.New(), sender: &captureSender{}}
	svc := team.NewService(f.store.Repos(), f.store,
		team.WithInvitationSender(f.sender),
		team.WithRosterRenderer(pdf.NewRosterGenerator()),
		team.WithAuditSink(audit.NewRepositorySink(f.store.Repos().Audit)),
	)
	f.app = fiber.New()
	apphttp.Router(f.app, apphttp.RouterDeps{
		Team:      svc,
		JWTSecret: testJWTSecret,
		AcceptURL: acceptBase,
		Logger:    zerolog.Nop(),
	})

	resp := f.do(t, http.MethodPost, "/api/businesses", ownerID, ownerEmail,
		dto.CreateBusinessRequest{Name: "Tienda Centro", OrganizationName: "Grupo Centro"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.BusinessResponse
	decode(t, resp, &created)
	assert.Equal(t, "tienda-centro", created.Slug)
	assert.Equal(t, "owner", created.Membership.Role)
	f.businessID = created.ID
	return f
}

func (f *apiFixture) addMember(t *testing.T, userID string, r role.Role) {
	t.Helper()
	ctx := context.Background()
	repos := f.store.Repos()
	require.NoError(t, repos.Users.Upsert(ctx, &entity.User{ID: userID, Email: userID + "@tienda.co"}))
	now := time.Now().UTC()
	require.NoError(t, repos.Memberships.Create(ctx, &entity.Membership{
		BusinessID: f.businessID, UserID: userID, Role: r,
		Status: entity.MembershipActive, InvitedBy: ownerID, JoinedAt: &now, UpdatedAt: now,
	}))
}

func (f *apiFixture) do(t *testing.T, method, path, userID, email string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", bearer(t, userID, email))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (f *apiFixture) path(suffix string) string {
	return "/api/businesses/" + f.businessID + suffix
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	decode(t, resp, &e)
	return e
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolución y aislamiento
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	f := newAPI(t)
	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMe_PropietarioConTodosLosPermisos(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodGet, f.path("/me"), ownerID, ownerEmail, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.RoleResponse
	decode(t, resp, &out)
	assert.Equal(t, "owner", out.Role)
	assert.Equal(t, 5, out.Rank)
	assert.Len(t, out.Permissions, len(role.AllPermissions))
}

func TestMe_NoMiembroYNegocioInexistenteResponden404(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodGet, f.path("/me"), "u-extrano", "x@otro.co", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	notMember := decodeError(t, resp)

	resp = f.do(t, http.MethodGet, "/api/businesses/"+uuid.NewString()+"/me", "u-extrano", "x@otro.co", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	missing := decodeError(t, resp)

	assert.Equal(t, notMember, missing, "no se distingue negocio inexistente de no miembro")
	assert.Equal(t, team.CodeNotFound, missing.Code)

	resp = f.do(t, http.MethodGet, "/api/businesses/no-es-uuid/me", ownerID, ownerEmail, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListMembers_RequierePermisoViewTeam(t *testing.T) {
	f := newAPI(t)
	f.addMember(t, "u-viewer", role.Viewer)
	f.addMember(t, "u-admin", role.Admin)

	resp := f.do(t, http.MethodGet, f.path("/members"), "u-viewer", "u-viewer@tienda.co", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Code)

	resp = f.do(t, http.MethodGet, f.path("/members"), "u-admin", "u-admin@tienda.co", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.MemberListResponse
	decode(t, resp, &out)
	require.Len(t, out.Items, 3)
	assert.Equal(t, ownerID, out.Items[0].UserID, "ordenado por rango")
}

// ──────────────────────────────────────────────────────────────────────────────
// Gestión de miembros
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateRole_MapeoDeErrores(t *testing.T) {
	f := newAPI(t)
	f.addMember(t, "u-admin", role.Admin)
	f.addMember(t, "u-staff", role.Staff)

	resp := f.do(t, http.MethodPatch, f.path("/members/u-staff/role"), "u-admin", "u-admin@tienda.co",
		dto.UpdateRoleRequest{Role: "owner"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, team.CodeInsufficientRank, decodeError(t, resp).Code)

	resp = f.do(t, http.MethodPatch, f.path("/members/u-admin/role"), "u-admin", "u-admin@tienda.co",
		dto.UpdateRoleRequest{Role: "viewer"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, team.CodeSelfEscalation, decodeError(t, resp).Code)

	resp = f.do(t, http.MethodPatch, f.path("/members/u-staff/role"), "u-admin", "u-admin@tienda.co",
		dto.UpdateRoleRequest{Role: "bodeguero"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, f.path("/members/u-staff/role"), "u-admin", "u-admin@tienda.co",
		dto.UpdateRoleRequest{Role: "manager"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.MemberResponse
	decode(t, resp, &out)
	assert.Equal(t, "manager", out.Role)
	assert.Contains(t, out.Permissions, "view_team")
}

func TestLeave_UltimoPropietarioRecibe409(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodPost, f.path("/leave"), ownerID, ownerEmail, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, team.CodeLastOwner, decodeError(t, resp).Code)
}

func TestTransferOwnership_ConfirmacionYExito(t *testing.T) {
	f := newAPI(t)
	f.addMember(t, "u-admin", role.Admin)

	resp := f.do(t, http.MethodPost, f.path("/ownership/transfer"), ownerID, ownerEmail,
		dto.TransferOwnershipRequest{TargetUserID: "u-admin", Confirmation: "otra-cosa"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, team.CodeConfirmationRequired, decodeError(t, resp).Code)

	resp = f.do(t, http.MethodPost, f.path("/ownership/transfer"), ownerID, ownerEmail,
		dto.TransferOwnershipRequest{TargetUserID: "u-admin", Confirmation: "tienda-centro"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, f.path("/me"), ownerID, ownerEmail, nil)
	var me dto.RoleResponse
	decode(t, resp, &me)
	assert.Equal(t, "admin", me.Role)
}

func TestBulk_ResumenParcial(t *testing.T) {
	f := newAPI(t)
	f.addMember(t, "u-admin", role.Admin)
	f.addMember(t, "u-mgr1", role.Manager)
	f.addMember(t, "u-mgr2", role.Manager)

	resp := f.do(t, http.MethodPost, f.path("/members/bulk"), "u-admin", "u-admin@tienda.co",
		dto.BulkUpdateRequest{UserIDs: []string{"u-mgr1", ownerID, "u-mgr2"}, Action: "set_role", Role: "staff"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.BulkUpdateResponse
	decode(t, resp, &out)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, ownerID, out.Items[1].UserID)
	assert.False(t, out.Items[1].OK)
}

func TestRemoveMember_YAuditoria(t *testing.T) {
	f := newAPI(t)
	f.addMember(t, "u-staff", role.Staff)

	resp := f.do(t, http.MethodDelete, f.path("/members/u-staff"), ownerID, ownerEmail, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, f.path("/audit?limit=10"), ownerID, ownerEmail, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.AuditListResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Items)
	assert.Equal(t, entity.AuditMemberRemoved, out.Items[0].Action)
	assert.Equal(t, "u-staff", out.Items[0].TargetID)
	assert.Equal(t, 10, out.Page.Limit)
}

func TestExport_DevuelvePDF(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodGet, f.path("/members/export"), ownerID, ownerEmail, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Invitaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestInvitarYAceptar(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodPost, f.path("/invitations"), ownerID, ownerEmail,
		dto.InviteRequest{Email: "Nuevo@Tienda.co", Role: "staff"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var inv dto.InviteResponse
	decode(t, resp, &inv)
	assert.True(t, inv.EmailSent)
	assert.Empty(t, inv.Token, "con email entregado el token no viaja en la respuesta")
	assert.Equal(t, "pending", inv.Invitation.Status)
	require.Len(t, f.sender.msgs, 1)
	token := f.sender.msgs[0].Token

	// Otro email no puede aceptarla.
	resp = f.do(t, http.MethodPost, "/api/invitations/accept", "u-intruso", "intruso@otro.co",
		dto.AcceptInvitationRequest{BusinessID: f.businessID, Token: token})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, team.CodeEmailMismatch, decodeError(t, resp).Code)

	resp = f.do(t, http.MethodPost, "/api/invitations/accept", "u-nuevo", "nuevo@tienda.co",
		dto.AcceptInvitationRequest{BusinessID: f.businessID, Token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m dto.MemberResponse
	decode(t, resp, &m)
	assert.Equal(t, "staff", m.Role)
	assert.Equal(t, "active", m.Status)

	resp = f.do(t, http.MethodPost, "/api/invitations/accept", "u-nuevo", "nuevo@tienda.co",
		dto.AcceptInvitationRequest{BusinessID: f.businessID, Token: token})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodGet, f.path("/invitations/status?email=nuevo@tienda.co"), ownerID, ownerEmail, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st dto.InvitationStatusResponse
	decode(t, resp, &st)
	assert.Equal(t, "accepted", st.State)
}

func TestInvitar_FalloDeEntregaResponde202ConEnlace(t *testing.T) {
	f := newAPI(t)
	f.sender.err = errors.New("smtp caído")

	resp := f.do(t, http.MethodPost, f.path("/invitations"), ownerID, ownerEmail,
		dto.InviteRequest{Email: "nuevo@tienda.co", Role: "viewer"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out dto.InviteResponse
	decode(t, resp, &out)
	assert.True(t, out.InvitationCreated)
	assert.False(t, out.EmailSent)
	assert.NotEmpty(t, out.DeliveryError)
	require.NotEmpty(t, out.Token)

	u, err := url.Parse(out.AcceptURL)
	require.NoError(t, err)
	assert.Equal(t, out.Token, u.Query().Get("token"))
	assert.Equal(t, f.businessID, u.Query().Get("business_id"))
}

func TestRevocarInvitacion(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodPost, f.path("/invitations"), ownerID, ownerEmail,
		dto.InviteRequest{Email: "nuevo@tienda.co", Role: "staff"})
	var inv dto.InviteResponse
	decode(t, resp, &inv)

	resp = f.do(t, http.MethodDelete, f.path("/invitations/"+inv.Invitation.ID), ownerID, ownerEmail, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, f.path("/invitations/"+inv.Invitation.ID), ownerID, ownerEmail, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, team.CodeInvitationNotPending, decodeError(t, resp).Code)

	resp = f.do(t, http.MethodGet, f.path("/invitations"), ownerID, ownerEmail, nil)
	var list dto.InvitationListResponse
	decode(t, resp, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "revoked", list.Items[0].Status)
}
