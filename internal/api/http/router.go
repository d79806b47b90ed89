package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soportek/helpdesk/internal/api/http/handlers"
	"github.com/soportek/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	profile := protected.Group("/profile")
	profile.Get("", cfg.Users.GetProfile)
	profile.Put("/photo", cfg.Users.UpdateProfilePhoto)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.EditTicket)
	tickets.Post("/:id/cancel", cfg.Tickets.CancelTicket)
	tickets.Get("/:id/cancellation", cfg.Tickets.GetCancellation)
	tickets.Get("/:id/hold", cfg.Tickets.GetHoldReason)
	tickets.Get("/:id/report", cfg.Tickets.GetReport)

	operator := tickets.Group("", auth.RequireOperator())
	operator.Post("/:id/accept", cfg.Tickets.AcceptTicket)
	operator.Post("/:id/complete", cfg.Tickets.CompleteTicket)

	admin := tickets.Group("", auth.RequireAdmin())
	admin.Post("/:id/assign", cfg.Tickets.AssignTicket)
	admin.Post("/:id/reassign", cfg.Tickets.ReassignTicket)
	admin.Post("/:id/hold", cfg.Tickets.HoldTicket)
	admin.Patch("/:id/status", cfg.Tickets.ChangeStatus)
	admin.Patch("/:id/urgency", cfg.Tickets.ChangeUrgency)
	admin.Delete("/:id", cfg.Tickets.DeleteTicket)

	dashboard := protected.Group("/dashboard")
	dashboard.Get("/tickets", cfg.Dashboard.PersonalTickets)
	dashboard.Get("/counts", cfg.Dashboard.StatusCounts)
	dashboard.Get("/reports/pending", cfg.Dashboard.PendingReports)
	dashboard.Get("/reports/seen", cfg.Dashboard.SeenReports)
	dashboard.Get("/assigned", auth.RequireOperator(), cfg.Dashboard.AssignedTickets)
	dashboard.Get("/queue", auth.RequireOperator(), cfg.Dashboard.DepartmentQueue)
	dashboard.Get("/active", auth.RequireAdmin(), cfg.Dashboard.ActiveBoard)

	users := protected.Group("/users", auth.RequireAdmin())
	users.Get("", cfg.Users.ListUsers)
	users.Get("/:id", cfg.Users.GetUser)
	users.Post("/:id/admit", cfg.Users.AdmitUser)
	users.Patch("/:id", cfg.Users.UpdateUser)
	users.Delete("/:id", cfg.Users.DeleteUser)
}
