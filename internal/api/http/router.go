package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Issues         *handlers.IssuesHandler
	Triage         *handlers.TriageHandler
	Users          *handlers.UsersHandler
	Payments       *handlers.PaymentsHandler
	Images         *handlers.ImagesHandler
	AuthMiddleware *auth.AuthMiddleware
	Redis          *persistence.Redis
	Logger         *zap.Logger
	BurstLimit     int
	BurstWindow    time.Duration
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authed := cfg.AuthMiddleware.Handle
	notBlocked := auth.RequireNotBlocked()
	adminOnly := auth.RequireRole(domain.RoleAdmin)
	staffOrAdmin := auth.RequireRole(domain.RoleStaff, domain.RoleAdmin)
	burstLimiter := ReportBurstLimiter(cfg.Redis, cfg.Logger, cfg.BurstLimit, cfg.BurstWindow)

	issues := app.Group("/issues")
	issues.Get("", cfg.Issues.ListIssues)
	// static paths before the :id wildcard
	issues.Get("/mine", authed, cfg.Issues.ListMyIssues)
	issues.Get("/assigned", authed, staffOrAdmin, cfg.Issues.ListAssignedIssues)
	issues.Get("/:id", cfg.AuthMiddleware.HandleOptional, cfg.Issues.GetIssue)

	issues.Post("", authed, notBlocked, burstLimiter, cfg.Issues.ReportIssue)
	issues.Patch("/:id", authed, notBlocked, cfg.Issues.EditIssue)
	issues.Delete("/:id", authed, notBlocked, cfg.Issues.DeleteIssue)
	issues.Put("/:id/upvote", authed, notBlocked, cfg.Issues.ToggleUpvote)

	issues.Patch("/:id/assign", authed, adminOnly, cfg.Triage.AssignStaff)
	issues.Patch("/:id/reject", authed, adminOnly, cfg.Triage.RejectIssue)
	issues.Patch("/:id/status", authed, staffOrAdmin, cfg.Triage.UpdateStatus)

	issues.Post("/:id/boost/session", authed, notBlocked, cfg.Payments.CreateBoostSession)
	issues.Patch("/:id/boost/confirm", authed, cfg.Payments.ConfirmBoost)

	app.Post("/images", authed, notBlocked, cfg.Images.Upload)

	payments := app.Group("/payments", authed)
	payments.Post("/premium/session", notBlocked, cfg.Payments.CreatePremiumSession)
	payments.Patch("/premium/confirm", cfg.Payments.ConfirmPremium)
	payments.Get("/history", adminOnly, cfg.Payments.ListPayments)

	users := app.Group("/users")
	users.Get("/me", authed, cfg.Users.Me)
	users.Get("", authed, adminOnly, cfg.Users.ListUsers)
	users.Get("/:id", authed, adminOnly, cfg.Users.GetUser)
	users.Patch("/:id/block", authed, adminOnly, cfg.Users.SetBlocked)
	users.Delete("/:id", authed, adminOnly, cfg.Users.DeleteUser)

	staff := app.Group("/staff", authed, adminOnly)
	staff.Get("", cfg.Users.ListStaff)
	staff.Post("", cfg.Users.CreateStaff)
}
