package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-registry/internal/service"
	"github.com/noah-isme/student-registry/internal/utils"
)

// ArchiveHandler serves the archived student collection.
type ArchiveHandler struct {
	service service.LifecycleService
	logger  zerolog.Logger
}

// NewArchiveHandler constructs the handler.
func NewArchiveHandler(service service.LifecycleService, logger zerolog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		service: service,
		logger:  logger.With().Str("component", "archive_handler").Logger(),
	}
}

// Register attaches archive routes to the router group.
func (h *ArchiveHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/restore", h.restore)
	router.Delete("/:id", h.purge)
}

func (h *ArchiveHandler) list(c *fiber.Ctx) error {
	req, err := parseListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ListArchived(c.UserContext(), req)
	if err != nil {
		return lifecycleError(c, h.logger, "list archive", err)
	}

	return utils.SendSuccess(c, "archived students retrieved", response)
}

func (h *ArchiveHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	record, err := h.service.GetArchived(c.UserContext(), id)
	if err != nil {
		return lifecycleError(c, h.logger, "fetch archived student", err)
	}

	return utils.SendSuccess(c, "archived student retrieved", record)
}

func (h *ArchiveHandler) restore(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	confirmation, err := h.service.Restore(c.UserContext(), id)
	if err != nil {
		return lifecycleError(c, h.logger, "restore student", err)
	}

	return utils.SendSuccess(c, "student restored", confirmation)
}

func (h *ArchiveHandler) purge(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	confirmation, err := h.service.Purge(c.UserContext(), id)
	if err != nil {
		return lifecycleError(c, h.logger, "purge student", err)
	}

	requestLogger(h.logger, c).Warn().
		Str("student_id", confirmation.StudentID).
		Uint("archived_id", id).
		Msg("archived student purged")

	return utils.SendSuccess(c, "archived student purged", confirmation)
}
