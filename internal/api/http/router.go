package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/edge-gateway/internal/api/http/handlers"
	"github.com/spec-kit/edge-gateway/internal/auth"
	"github.com/spec-kit/edge-gateway/internal/proxy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Events         *handlers.EventsHandler
	AuthMiddleware *auth.AuthMiddleware
	Dispatcher     *proxy.Dispatcher
	ProxyRoutes    []proxy.Route
	RateLimit      fiber.Handler
}

// RegisterRoutes wires HTTP routes. Routes registered without the auth
// middleware are public; everything else verifies the bearer token before
// any permission check runs.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	if cfg.RateLimit != nil {
		authGroup.Use(cfg.RateLimit)
	}
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	users := app.Group("/api/users", cfg.AuthMiddleware.Handle)
	users.Get("/", auth.RequirePermission(auth.PermUsersRead), cfg.Users.List)
	users.Patch("/me", cfg.Users.UpdateMe)
	users.Post("/:id/roles", auth.RequirePermission(auth.PermUsersAssignRole), cfg.Users.AssignRole)

	eventsGroup := app.Group("/api/events", cfg.AuthMiddleware.Handle)
	eventsGroup.Post("/publish", auth.RequirePermission(auth.PermEventsPublish), cfg.Events.Publish)
	eventsGroup.Get("/recent", auth.RequirePermission(auth.PermEventsRead), cfg.Events.Recent)

	for _, route := range cfg.ProxyRoutes {
		app.All(route.Prefix+"/*",
			cfg.AuthMiddleware.Handle,
			auth.RequirePermission(route.RequiredPermissions...),
			cfg.Dispatcher.Handler(route),
		)
	}
}
