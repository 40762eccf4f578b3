package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Team      *team.Service
	JWTSecret string
	AcceptURL string
	Logger    zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Todas las rutas requieren Bearer Token; el rol se resuelve por negocio.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	businessHandler := NewBusinessHandler(deps.Team, deps.Logger)
	memberHandler := NewMemberHandler(deps.Team, deps.Logger)
	invitationHandler := NewInvitationHandler(deps.Team, deps.AcceptURL, deps.Logger)

	protected.Post("/businesses", businessHandler.Create)
	protected.Post("/invitations/accept", invitationHandler.Accept)

	biz := protected.Group("/businesses/:businessID")
	biz.Get("/me", businessHandler.Me)
	biz.Post("/leave", businessHandler.Leave)
	biz.Post("/ownership/transfer", businessHandler.TransferOwnership)
	biz.Get("/audit", businessHandler.Audit)

	// Members
	biz.Get("/members", RequirePermission(role.PermViewTeam, deps.Team), memberHandler.List)
	biz.Get("/members/export", RequirePermission(role.PermExportData, deps.Team), memberHandler.Export)
	biz.Post("/members/bulk", memberHandler.Bulk)
	biz.Patch("/members/:userID/role", memberHandler.UpdateRole)
	biz.Patch("/members/:userID/permissions", memberHandler.UpdatePermissions)
	biz.Patch("/members/:userID/status", memberHandler.UpdateStatus)
	biz.Delete("/members/:userID", memberHandler.Remove)

	// Invitations
	biz.Post("/invitations", invitationHandler.Invite)
	biz.Get("/invitations", invitationHandler.List)
	biz.Get("/invitations/status", invitationHandler.Status)
	biz.Post("/invitations/:invitationID/resend", invitationHandler.Resend)
	biz.Delete("/invitations/:invitationID", invitationHandler.Revoke)
}
