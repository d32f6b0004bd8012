package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/student-registry/internal/config"
	"github.com/noah-isme/student-registry/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Storage     string    `json:"storage"`
}

// StoragePinger reports whether the record store is reachable.
type StoragePinger func() error

// HealthCheck returns a handler that reports application health information.
// A failing ping downgrades the status to "degraded" with a 503.
func HealthCheck(cfg config.Config, ping StoragePinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Storage:     "ok",
		}

		if ping != nil {
			if err := ping(); err != nil {
				payload.Status = "degraded"
				payload.Storage = "unavailable"
				return utils.Fail(c, fiber.StatusServiceUnavailable, codeStorageUnavailable, "record store unavailable", payload)
			}
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
