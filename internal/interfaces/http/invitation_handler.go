package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bizhub-api/internal/application/dto"
	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
	"github.com/jhoicas/bizhub-api/internal/infrastructure/delivery"
)

// InvitationHandler ciclo de vida de invitaciones.
type InvitationHandler struct {
	svc       *team.Service
	acceptURL string
	log       zerolog.Logger
}

// NewInvitationHandler construye el handler. acceptURL es la base del enlace de aceptación.
func NewInvitationHandler(svc *team.Service, acceptURL string, log zerolog.Logger) *InvitationHandler {
	return &InvitationHandler{svc: svc, acceptURL: acceptURL, log: log}
}

// respondInvite 201 si el email salió, 202 con el enlace para compartir si no.
func (h *InvitationHandler) respondInvite(c *fiber.Ctx, businessID string, res *team.InviteResult, created int) error {
	if res.EmailSent {
		return c.Status(created).JSON(dto.FromInviteResult(res, ""))
	}
	link, err := delivery.AcceptLink(h.acceptURL, team.InvitationMessage{BusinessID: businessID, Token: res.Token})
	if err != nil {
		h.log.Warn().Err(err).Msg("no se pudo armar el enlace de aceptación")
		link = ""
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.FromInviteResult(res, link))
}

// Invite godoc
// @Summary      Invitar a un miembro
// @Description  201 si el email se entregó; 202 con accept_url si la invitación quedó creada pero el email falló.
// @Tags         invitations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        businessID  path  string             true  "ID del negocio"
// @Param        body        body  dto.InviteRequest  true  "Email y rol"
// @Success      201  {object}  dto.InviteResponse
// @Success      202  {object}  dto.InviteResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/invitations [post]
func (h *InvitationHandler) Invite(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	var in dto.InviteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	r, valid := role.Parse(in.Role)
	if !valid {
		return validation(c, "role inválido")
	}
	res, err := h.svc.InviteMember(c.UserContext(), GetUserID(c), businessID, in.Email, r)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return h.respondInvite(c, businessID, res, fiber.StatusCreated)
}

// List godoc
// @Summary      Listar invitaciones
// @Tags         invitations
// @Security     Bearer
// @Produce      json
// @Param        businessID  path  string  true  "ID del negocio"
// @Success      200  {object}  dto.InvitationListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/invitations [get]
func (h *InvitationHandler) List(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	invs, err := h.svc.ListInvitations(c.UserContext(), GetUserID(c), businessID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromInvitations(invs))
}

// Status godoc
// @Summary      Estado de la invitación más reciente para un email
// @Tags         invitations
// @Security     Bearer
// @Produce      json
// @Param        businessID  path   string  true  "ID del negocio"
// @Param        email       query  string  true  "Email del invitado"
// @Success      200  {object}  dto.InvitationStatusResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/invitations/status [get]
func (h *InvitationHandler) Status(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	email := c.Query("email")
	if email == "" {
		return validation(c, "email es requerido")
	}
	out, err := h.svc.CheckInvitationStatus(c.UserContext(), GetUserID(c), businessID, email)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromInvitationStatus(out))
}

// Resend godoc
// @Summary      Reenviar invitación
// @Description  Emite un token nuevo y reinicia la expiración; el token anterior deja de servir.
// @Tags         invitations
// @Security     Bearer
// @Produce      json
// @Param        businessID    path  string  true  "ID del negocio"
// @Param        invitationID  path  string  true  "ID de la invitación"
// @Success      200  {object}  dto.InviteResponse
// @Success      202  {object}  dto.InviteResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/invitations/{invitationID}/resend [post]
func (h *InvitationHandler) Resend(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	invitationID, ok := uuidParam(c, "invitationID")
	if !ok {
		return notFound(c)
	}
	res, err := h.svc.ResendInvitation(c.UserContext(), GetUserID(c), businessID, invitationID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return h.respondInvite(c, businessID, res, fiber.StatusOK)
}

// Revoke godoc
// @Summary      Revocar invitación
// @Tags         invitations
// @Security     Bearer
// @Param        businessID    path  string  true  "ID del negocio"
// @Param        invitationID  path  string  true  "ID de la invitación"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/invitations/{invitationID} [delete]
func (h *InvitationHandler) Revoke(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	invitationID, ok := uuidParam(c, "invitationID")
	if !ok {
		return notFound(c)
	}
	if err := h.svc.RevokeInvitation(c.UserContext(), GetUserID(c), businessID, invitationID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Accept godoc
// @Summary      Aceptar invitación
// @Description  El email del token JWT debe coincidir con el de la invitación.
// @Tags         invitations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AcceptInvitationRequest  true  "Negocio y token"
// @Success      200  {object}  dto.MemberResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      410  {object}  dto.ErrorResponse
// @Router       /api/invitations/accept [post]
func (h *InvitationHandler) Accept(c *fiber.Ctx) error {
	var in dto.AcceptInvitationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Token == "" || in.BusinessID == "" {
		return validation(c, "business_id y token son requeridos")
	}
	businessID, err := parseUUID(in.BusinessID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: team.CodeInvitationNotFound, Message: "invitación no encontrada"})
	}
	m, err := h.svc.AcceptInvitation(c.UserContext(), GetIdentity(c), businessID, in.Token)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromMembership(m))
}
