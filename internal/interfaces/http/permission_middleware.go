package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/bizhub-api/internal/application/dto"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// permissionChecker contrato mínimo del middleware. Lo implementa *team.Service.
type permissionChecker interface {
	Can(ctx context.Context, userID, businessID string, perm role.Permission) (bool, error)
}

// RequirePermission verifica que el usuario del token tenga el permiso en el negocio
// de la ruta (:businessID). Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 404 Not Found → businessID mal formado.
//   - 403 Forbidden → sin el permiso; también para no miembros y negocios inexistentes,
//     de modo que la respuesta no revela si el negocio existe.
//   - 503 Service Unavailable → fallo al consultar el almacén.
func RequirePermission(perm role.Permission, checker permissionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "user_id no encontrado en el token",
			})
		}
		businessID, ok := businessParam(c)
		if !ok {
			return notFound(c)
		}

		allowed, err := checker.Can(c.UserContext(), userID, businessID, perm)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "PERMISSION_CHECK_FAILED",
				Message: "no se pudo verificar el permiso, intente más tarde",
			})
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "permiso '" + string(perm) + "' requerido",
			})
		}
		return c.Next()
	}
}
