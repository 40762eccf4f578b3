package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bizhub-api/internal/application/dto"
	"github.com/jhoicas/bizhub-api/internal/application/team"
)

// statusFor traduce el código estable al status HTTP.
func statusFor(code string) int {
	switch code {
	case team.CodeNotAMember, team.CodeInvitationNotFound, team.CodeNotFound:
		return fiber.StatusNotFound
	case team.CodeInsufficientRank, team.CodeSelfEscalation, team.CodeEmailMismatch:
		return fiber.StatusForbidden
	case team.CodeLastOwner, team.CodeAlreadyMember, team.CodeInvitationNotPending, team.CodeDuplicate:
		return fiber.StatusConflict
	case team.CodeInvitationExpired:
		return fiber.StatusGone
	case team.CodeInvalidInput, team.CodeConfirmationRequired:
		return fiber.StatusBadRequest
	case team.CodeDeliveryFailed:
		return fiber.StatusBadGateway
	case team.CodeCanceled:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError escribe el error de dominio. NotAMember sale como NOT_FOUND para no
// revelar si el negocio existe; los errores internos no exponen su detalle.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	code := team.ErrorCode(err)
	status := statusFor(code)
	msg := err.Error()
	switch code {
	case team.CodeNotAMember, team.CodeNotFound:
		code = team.CodeNotFound
		msg = "recurso no encontrado"
	case team.CodeInternal:
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: team.CodeNotFound, Message: "recurso no encontrado"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func validation(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: team.CodeInvalidInput, Message: msg})
}

// uuidParam devuelve el parámetro de ruta si es un UUID válido.
func uuidParam(c *fiber.Ctx, name string) (string, bool) {
	id, err := parseUUID(c.Params(name))
	return id, err == nil
}

func businessParam(c *fiber.Ctx) (string, bool) { return uuidParam(c, "businessID") }

func parseUUID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
