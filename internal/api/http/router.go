package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/storefront-identity/internal/api/http/handlers"
	"github.com/spec-kit/storefront-identity/internal/auth"
	"github.com/spec-kit/storefront-identity/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	CustomerStatus *handlers.CustomerStatusHandler
	Admins         *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Gate           auth.CustomerGate
	LoginLimiter   *RateLimiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	limit := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.LoginLimiter != nil {
		limit = cfg.LoginLimiter.Handler()
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", limit, cfg.Users.Register)
	authGroup.Post("/login", limit, cfg.Users.Login)
	authGroup.Post("/admin/login", limit, cfg.Admins.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Users.Logout)

	account := app.Group("/account", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	account.Get("/status", cfg.Users.Status)
	account.Get("/order-eligibility", auth.OrderGate(cfg.Gate), cfg.Users.OrderEligibility)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	users.Get("/:id/status", cfg.CustomerStatus.Status)
	users.Put("/:id/block", cfg.CustomerStatus.Block)
	users.Put("/:id/suspend", cfg.CustomerStatus.Suspend)
	users.Put("/:id/unblock", cfg.CustomerStatus.Unblock)
	users.Put("/:id/activate", cfg.CustomerStatus.Activate)

	// Mutations stay open to every admin so the owner-protection check can
	// answer before the role check; the service enforces MAIN_ADMIN.
	management := app.Group("/admin-management/admins", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	management.Get("/", auth.RequireMainAdmin(), cfg.Admins.List)
	management.Get("/:id", auth.RequireMainAdmin(), cfg.Admins.Get)
	management.Post("/", cfg.Admins.Create)
	management.Put("/:id", cfg.Admins.Update)
	management.Delete("/:id", cfg.Admins.Delete)
}
