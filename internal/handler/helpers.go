package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/middleware"
	"github.com/noah-isme/student-registry/internal/service"
	"github.com/noah-isme/student-registry/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	codeDuplicateIdentifier    = "duplicate_identifier"
	codeNotFound               = "not_found"
	codeReconciliationRequired = "reconciliation_required"
	codeStorageUnavailable     = "storage_unavailable"
	codeInvalidRecord          = "invalid_record"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func parseListRequest(c *fiber.Ctx) (dto.ListRequest, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return dto.ListRequest{}, errors.New("invalid page")
	}
	if page <= 0 {
		page = 1
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return dto.ListRequest{}, errors.New("invalid page size")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	} else if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return dto.ListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	}, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
		if operator := middleware.OperatorFromContext(c); operator != "" {
			logger = logger.With().Str("operator", operator).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// lifecycleError translates lifecycle failures into their HTTP representation.
// Partial moves are checked first since they also carry the storage cause.
func lifecycleError(c *fiber.Ctx, logger zerolog.Logger, action string, err error) error {
	var duplicate *service.DuplicateIdentifierError
	var partial *service.PartialMoveError

	switch {
	case errors.As(err, &partial):
		requestLogger(logger, c).Error().Err(err).
			Str("student_id", partial.StudentID).
			Uint("active_id", partial.ActiveID).
			Uint("archived_id", partial.ArchivedID).
			Msgf("%s left record in both collections", action)
		return utils.Fail(c, fiber.StatusInternalServerError, codeReconciliationRequired,
			"record exists in both active and archived collections; reconciliation required",
			dto.DuplicatePairResponse{StudentID: partial.StudentID, ActiveID: partial.ActiveID, ArchivedID: partial.ArchivedID})
	case errors.Is(err, service.ErrPartialArchive):
		requestLogger(logger, c).Error().Err(err).Msgf("%s left inconsistent state", action)
		return utils.Fail(c, fiber.StatusInternalServerError, codeReconciliationRequired,
			"record exists in both active and archived collections; reconciliation required", nil)
	case errors.As(err, &duplicate):
		return utils.Fail(c, fiber.StatusConflict, codeDuplicateIdentifier,
			"student identifier already registered", dto.NewStudentResponse(duplicate.Existing))
	case errors.Is(err, service.ErrDuplicateIdentifier):
		return utils.Fail(c, fiber.StatusConflict, codeDuplicateIdentifier, "student identifier already registered", nil)
	case errors.Is(err, service.ErrNotFound):
		return utils.Fail(c, fiber.StatusNotFound, codeNotFound, "student record not found", nil)
	case errors.Is(err, service.ErrInvalidRecord), isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, codeInvalidRecord, err.Error(), nil)
	case errors.Is(err, service.ErrStorageUnavailable):
		requestLogger(logger, c).Error().Err(err).Msgf("%s failed: storage unavailable", action)
		return utils.Fail(c, fiber.StatusServiceUnavailable, codeStorageUnavailable, "record store unavailable, retry later", nil)
	default:
		requestLogger(logger, c).Error().Err(err).Msgf("%s failed", action)
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
