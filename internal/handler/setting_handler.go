package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/service"
	"github.com/noah-isme/student-registry/internal/utils"
)

// SettingHandler exposes key/value settings.
type SettingHandler struct {
	service service.SettingService
	logger  zerolog.Logger
}

// NewSettingHandler constructs the handler.
func NewSettingHandler(service service.SettingService, logger zerolog.Logger) *SettingHandler {
	return &SettingHandler{
		service: service,
		logger:  logger.With().Str("component", "setting_handler").Logger(),
	}
}

// Register attaches settings routes.
func (h *SettingHandler) Register(router fiber.Router) {
	router.Get("/:key", h.get)
	router.Put("/:key", h.put)
}

func (h *SettingHandler) get(c *fiber.Ctx) error {
	setting, err := h.service.Get(c.UserContext(), c.Params("key"))
	if err != nil {
		return h.settingError(c, err)
	}

	return utils.SendSuccess(c, "setting retrieved", setting)
}

func (h *SettingHandler) put(c *fiber.Ctx) error {
	var payload dto.SettingPutRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	setting, err := h.service.Put(c.UserContext(), c.Params("key"), payload)
	if err != nil {
		return h.settingError(c, err)
	}

	return utils.SendSuccess(c, "setting saved", setting)
}

func (h *SettingHandler) settingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSettingNotFound):
		return utils.Fail(c, fiber.StatusNotFound, codeNotFound, "setting not found", nil)
	case errors.Is(err, service.ErrInvalidRecord), isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, codeInvalidRecord, err.Error(), nil)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("setting operation failed")
		return utils.Fail(c, fiber.StatusServiceUnavailable, codeStorageUnavailable, "settings store unavailable", nil)
	}
}
