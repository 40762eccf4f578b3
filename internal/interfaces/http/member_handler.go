package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bizhub-api/internal/application/dto"
	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// MemberHandler gestión del equipo de un negocio.
type MemberHandler struct {
	svc *team.Service
	log zerolog.Logger
}

// NewMemberHandler construye el handler.
func NewMemberHandler(svc *team.Service, log zerolog.Logger) *MemberHandler {
	return &MemberHandler{svc: svc, log: log}
}

// memberParams valida :businessID y :userID.
func memberParams(c *fiber.Ctx) (businessID, userID string, ok bool) {
	businessID, ok = businessParam(c)
	userID = c.Params("userID")
	return businessID, userID, ok && userID != ""
}

// List godoc
// @Summary      Listar miembros
// @Tags         members
// @Security     Bearer
// @Produce      json
// @Param        businessID  path  string  true  "ID del negocio"
// @Success      200  {object}  dto.MemberListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/members [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	views, err := h.svc.ListMembers(c.UserContext(), GetUserID(c), businessID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromMemberViews(views))
}

// Export godoc
// @Summary      Exportar el equipo en PDF
// @Tags         members
// @Security     Bearer
// @Produce      application/pdf
// @Param        businessID  path  string  true  "ID del negocio"
// @Success      200  {file}  binary
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/members/export [get]
func (h *MemberHandler) Export(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	out, err := h.svc.ExportRoster(c.UserContext(), GetUserID(c), businessID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="equipo-`+businessID+`.pdf"`)
	return c.Send(out)
}

// UpdateRole godoc
// @Summary      Cambiar el rol de un miembro
// @Tags         members
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        businessID  path  string                 true  "ID del negocio"
// @Param        userID      path  string                 true  "ID del miembro"
// @Param        body        body  dto.UpdateRoleRequest  true  "Nuevo rol"
// @Success      200  {object}  dto.MemberResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/members/{userID}/role [patch]
func (h *MemberHandler) UpdateRole(c *fiber.Ctx) error {
	businessID, userID, ok := memberParams(c)
	if !ok {
		return notFound(c)
	}
	var in dto.UpdateRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	r, valid := role.Parse(in.Role)
	if !valid {
		return validation(c, "role inválido")
	}
	m, err := h.svc.UpdateMemberRole(c.UserContext(), GetUserID(c), businessID, userID, r)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromMembership(m))
}

// UpdatePermissions godoc
// @Summary      Ajustar permisos de un miembro
// @Tags         members
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        businessID  path  string                        true  "ID del negocio"
// @Param        userID      path  string                        true  "ID del miembro"
// @Param        body        body  dto.UpdatePermissionsRequest  true  "Permisos agregados y retirados"
// @Success      200  {object}  dto.MemberResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/members/{userID}/permissions [patch]
func (h *MemberHandler) UpdatePermissions(c *fiber.Ctx) error {
	businessID, userID, ok := memberParams(c)
	if !ok {
		return notFound(c)
	}
	var in dto.UpdatePermissionsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.svc.UpdateMemberPermissions(c.UserContext(), GetUserID(c), businessID, userID, in.Overrides())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromMembership(m))
}

// UpdateStatus godoc
// @Summary      Suspender o reactivar un miembro
// @Tags         members
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        businessID  path  string                   true  "ID del negocio"
// @Param        userID      path  string                   true  "ID del miembro"
// @Param        body        body  dto.UpdateStatusRequest  true  "active o suspended"
// @Success      200  {object}  dto.MemberResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/members/{userID}/status [patch]
func (h *MemberHandler) UpdateStatus(c *fiber.Ctx) error {
	businessID, userID, ok := memberParams(c)
	if !ok {
		return notFound(c)
	}
	var in dto.UpdateStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.svc.SetMemberStatus(c.UserContext(), GetUserID(c), businessID, userID, in.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromMembership(m))
}

// Remove godoc
// @Summary      Remover un miembro
// @Tags         members
// @Security     Bearer
// @Param        businessID  path  string  true  "ID del negocio"
// @Param        userID      path  string  true  "ID del miembro"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/members/{userID} [delete]
func (h *MemberHandler) Remove(c *fiber.Ctx) error {
	businessID, userID, ok := memberParams(c)
	if !ok {
		return notFound(c)
	}
	if err := h.svc.RemoveMember(c.UserContext(), GetUserID(c), businessID, userID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Bulk godoc
// @Summary      Actualización en lote
// @Description  Cada miembro se evalúa y confirma por separado; el resumen informa éxitos y fallos.
// @Tags         members
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        businessID  path  string                 true  "ID del negocio"
// @Param        body        body  dto.BulkUpdateRequest  true  "Miembros y acción"
// @Success      200  {object}  dto.BulkUpdateResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/members/bulk [post]
func (h *MemberHandler) Bulk(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	var in dto.BulkUpdateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	upd := team.BulkUpdate{Action: team.BulkAction(in.Action)}
	if upd.Action == team.BulkSetRole {
		r, valid := role.Parse(in.Role)
		if !valid {
			return validation(c, "role inválido")
		}
		upd.Role = r
	}
	res, err := h.svc.BulkUpdateMembers(c.UserContext(), GetUserID(c), businessID, in.UserIDs, upd)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromBulkResult(res))
}
