package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/middleware"
	"github.com/noah-isme/student-registry/internal/service"
	"github.com/noah-isme/student-registry/internal/utils"
)

// ActivityHandler exposes the activity log.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	entries, err := h.service.List(c.UserContext(), limit)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list activity")
		return utils.Fail(c, fiber.StatusServiceUnavailable, codeStorageUnavailable, "failed to list activity", nil)
	}

	return utils.SendSuccess(c, "activity retrieved", entries)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if payload.Metadata == nil {
		payload.Metadata = map[string]interface{}{}
	}
	if operator := middleware.OperatorFromContext(c); operator != "" {
		payload.Metadata["operator"] = operator
	}

	entry, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		if isValidationError(err) || errors.Is(err, service.ErrInvalidRecord) {
			return utils.Fail(c, fiber.StatusBadRequest, codeInvalidRecord, err.Error(), nil)
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to record activity")
		return utils.Fail(c, fiber.StatusServiceUnavailable, codeStorageUnavailable, "failed to record activity", nil)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity recorded", entry)
}
