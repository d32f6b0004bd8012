package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/student-registry/internal/config"
	"github.com/noah-isme/student-registry/internal/handler"
	"github.com/noah-isme/student-registry/internal/middleware"
	"github.com/noah-isme/student-registry/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler  *handler.StudentHandler
	ArchiveHandler  *handler.ArchiveHandler
	ActivityHandler *handler.ActivityHandler
	SettingHandler  *handler.SettingHandler
	AuthHandler     *handler.AuthHandler
	StoragePing     handler.StoragePinger
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.StoragePing))
	api.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("login", 5, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware))
	}

	if deps.ArchiveHandler != nil {
		deps.ArchiveHandler.Register(api.Group("/archive", jwtMiddleware))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity", jwtMiddleware))
	}

	if deps.SettingHandler != nil {
		deps.SettingHandler.Register(api.Group("/settings", jwtMiddleware))
	}
}
