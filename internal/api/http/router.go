package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	StaffAuth      *handlers.StaffAuthHandler
	PortalTickets  *handlers.PortalTicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/files/thumb/:key", cfg.Uploads.ServeThumbnail)
	app.Get("/files/:key", cfg.Uploads.ServeFile)

	authGroup := app.Group("/auth")
	authGroup.Post("/portal/register", cfg.Accounts.Register)
	authGroup.Post("/portal/login", cfg.Accounts.Login)
	authGroup.Post("/staff/login", cfg.StaffAuth.Login)
	authGroup.Post("/password/reset/request", cfg.StaffAuth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.StaffAuth.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/password/change", cfg.StaffAuth.ChangePassword)

	uploads := app.Group("/uploads", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	uploads.Post("", cfg.Uploads.Upload)

	portal := app.Group("/portal", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	portal.Post("/tickets", cfg.PortalTickets.CreateTicket)
	portal.Get("/tickets", cfg.PortalTickets.ListTickets)
	portal.Get("/tickets/:id", cfg.PortalTickets.GetTicket)
	portal.Post("/tickets/:id/messages", cfg.PortalTickets.Reply)
	portal.Get("/tickets/:id/history", cfg.PortalTickets.History)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Post("/tickets", cfg.StaffTickets.CreateTicket)
	staff.Get("/tickets", cfg.StaffTickets.ListTickets)
	staff.Get("/tickets/:id", cfg.StaffTickets.GetTicket)
	staff.Post("/tickets/:id/messages", cfg.StaffTickets.Reply)
	staff.Post("/tickets/:id/status", cfg.StaffTickets.ChangeStatus)
	staff.Post("/tickets/:id/priority", cfg.StaffTickets.ChangePriority)
	staff.Post("/tickets/:id/assign", cfg.StaffTickets.Assign)
	staff.Get("/tickets/:id/history", cfg.StaffTickets.History)
	staff.Get("/members", cfg.StaffTickets.ListStaff)
}
