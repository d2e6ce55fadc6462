package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zvms-dev/zvms-api/internal/config"
	"github.com/zvms-dev/zvms-api/internal/handler"
	"github.com/zvms-dev/zvms-api/internal/middleware"
	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	UserHandler         *handler.UserHandler
	ActivityHandler     *handler.ActivityHandler
	TrophyHandler       *handler.TrophyHandler
	GroupHandler        *handler.GroupHandler
	NotificationHandler *handler.NotificationHandler
	ExportHandler       *handler.ExportHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.UserHandler != nil {
		// Login stays outside the JWT guard and gets its own limiter.
		login := api.Group("", middleware.RateLimit("login", 5, time.Minute))
		deps.UserHandler.RegisterLogin(login)

		users := api.Group("/users", jwtMiddleware)
		deps.UserHandler.Register(users)
	}

	if deps.ActivityHandler != nil {
		activities := api.Group("/activities", jwtMiddleware)
		deps.ActivityHandler.Register(activities)
	}

	if deps.TrophyHandler != nil {
		trophies := api.Group("/trophies", jwtMiddleware)
		deps.TrophyHandler.Register(trophies)
	}

	if deps.GroupHandler != nil {
		groups := api.Group("/groups", jwtMiddleware)
		deps.GroupHandler.Register(groups)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.ExportHandler != nil {
		exports := api.Group("/exports", jwtMiddleware,
			middleware.RequireRole(string(models.RoleAdmin), string(models.RoleDepartment), string(models.RoleAuditor)))
		deps.ExportHandler.Register(exports)
	}
}
