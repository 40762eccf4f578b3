package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bizhub-api/internal/application/dto"
	"github.com/jhoicas/bizhub-api/internal/application/team"
)

// BusinessHandler alta de negocios y operaciones del usuario sobre su propia membresía.
type BusinessHandler struct {
	svc *team.Service
	log zerolog.Logger
}

// NewBusinessHandler construye el handler.
func NewBusinessHandler(svc *team.Service, log zerolog.Logger) *BusinessHandler {
	return &BusinessHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Crear negocio
// @Description  El usuario autenticado queda como propietario activo.
// @Tags         businesses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBusinessRequest  true  "Datos del negocio"
// @Success      201   {object}  dto.BusinessResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/businesses [post]
func (h *BusinessHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBusinessRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Name == "" {
		return validation(c, "name es requerido")
	}
	if in.OrganizationID != "" {
		if _, err := uuid.Parse(in.OrganizationID); err != nil {
			return notFound(c)
		}
	}
	out, err := h.svc.CreateBusiness(c.UserContext(), GetIdentity(c), team.CreateBusinessInput{
		OrganizationID:   in.OrganizationID,
		OrganizationName: in.OrganizationName,
		Name:             in.Name,
		Slug:             in.Slug,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromBusinessView(out))
}

// Me godoc
// @Summary      Rol y permisos efectivos del usuario autenticado
// @Tags         businesses
// @Security     Bearer
// @Produce      json
// @Param        businessID  path  string  true  "ID del negocio"
// @Success      200  {object}  dto.RoleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/me [get]
func (h *BusinessHandler) Me(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	out, err := h.svc.ResolveRole(c.UserContext(), GetUserID(c), businessID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromRoleView(out))
}

// Leave godoc
// @Summary      Abandonar el negocio
// @Tags         businesses
// @Security     Bearer
// @Param        businessID  path  string  true  "ID del negocio"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/leave [post]
func (h *BusinessHandler) Leave(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	if err := h.svc.LeaveBusiness(c.UserContext(), GetUserID(c), businessID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// TransferOwnership godoc
// @Summary      Transferir la propiedad
// @Description  El propietario promueve a otro miembro activo y queda como admin. confirmation debe ser el slug del negocio.
// @Tags         businesses
// @Security     Bearer
// @Accept       json
// @Param        businessID  path  string                         true  "ID del negocio"
// @Param        body        body  dto.TransferOwnershipRequest  true  "Destino y confirmación"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/ownership/transfer [post]
func (h *BusinessHandler) TransferOwnership(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	var in dto.TransferOwnershipRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.TargetUserID == "" {
		return validation(c, "target_user_id es requerido")
	}
	err := h.svc.TransferOwnership(c.UserContext(), GetUserID(c), businessID, in.TargetUserID, in.Confirmation)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Audit godoc
// @Summary      Registro de auditoría del negocio
// @Tags         businesses
// @Security     Bearer
// @Produce      json
// @Param        businessID  path   string  true   "ID del negocio"
// @Param        limit       query  int     false  "Límite"  default(50)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.AuditListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/businesses/{businessID}/audit [get]
func (h *BusinessHandler) Audit(c *fiber.Ctx) error {
	businessID, ok := businessParam(c)
	if !ok {
		return notFound(c)
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 50), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	recs, err := h.svc.ListAudit(c.UserContext(), GetUserID(c), businessID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.FromAuditRecords(recs, page))
}
