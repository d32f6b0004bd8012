package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/models"
	"github.com/noah-isme/student-registry/internal/observability"
	"github.com/noah-isme/student-registry/internal/repository"
)

// LifecycleService moves student records between the active and archived collections.
type LifecycleService interface {
	Register(ctx context.Context, req dto.StudentRegisterRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Archive(ctx context.Context, id uint) (dto.Confirmation, error)
	Restore(ctx context.Context, archivedID uint) (dto.Confirmation, error)
	Purge(ctx context.Context, archivedID uint) (dto.Confirmation, error)
	GetActive(ctx context.Context, id uint) (dto.StudentResponse, error)
	GetArchived(ctx context.Context, archivedID uint) (dto.ArchivedStudentResponse, error)
	ListActive(ctx context.Context, req dto.ListRequest) (dto.StudentListResponse, error)
	ListArchived(ctx context.Context, req dto.ListRequest) (dto.ArchivedStudentListResponse, error)
}

// LifecycleOptions tunes the lifecycle service.
type LifecycleOptions struct {
	// StorageTimeout bounds each operation; zero disables the bound.
	StorageTimeout time.Duration
	Now            func() time.Time
}

type lifecycleService struct {
	store     repository.RecordStore
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	tracer    trace.Tracer
	timeout   time.Duration
	now       func() time.Time
}

// removeStepError marks a failure of the second step of a move.
type removeStepError struct {
	err error
}

func (e *removeStepError) Error() string { return e.err.Error() }
func (e *removeStepError) Unwrap() error { return e.err }

// NewLifecycleService constructs the lifecycle service. activity may be nil.
func NewLifecycleService(store repository.RecordStore, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger, opts LifecycleOptions) LifecycleService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &lifecycleService{
		store:     store,
		validator: validator,
		activity:  activity,
		logger:    logger.With().Str("component", "lifecycle_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/student-registry/internal/service/lifecycle"),
		timeout:   opts.StorageTimeout,
		now:       now,
	}
}

func (s *lifecycleService) Register(ctx context.Context, req dto.StudentRegisterRequest) (dto.StudentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.register")
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req = normalizeRegisterRequest(req)
	span.SetAttributes(attribute.String("student.id", req.StudentID))

	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, s.finish(span, "register", invalidRecord(err))
	}
	if err := validatePhoto(req.Photo); err != nil {
		return dto.StudentResponse{}, s.finish(span, "register", invalidRecord(err))
	}

	existing, err := s.store.FindActiveByStudentID(ctx, req.StudentID)
	switch {
	case err == nil:
		return dto.StudentResponse{}, s.finish(span, "register", &DuplicateIdentifierError{Existing: existing})
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.StudentResponse{}, s.finish(span, "register", storageError(err))
	}

	registeredAt := s.now()
	if req.RegisteredAt != nil && !req.RegisteredAt.IsZero() {
		registeredAt = *req.RegisteredAt
	}

	record := models.StudentRecord{
		StudentID:      req.StudentID,
		Name:           req.Name,
		Gender:         req.Gender,
		Course:         req.Course,
		Year:           req.Year,
		Section:        req.Section,
		Email:          req.Email,
		Phone:          req.Phone,
		Birthday:       req.Birthday,
		ValidUntil:     req.ValidUntil,
		Photo:          req.Photo,
		RegisteredDate: registeredAt.Format(models.DateLayout),
		RegisteredTime: registeredAt.Format(models.TimeLayout),
		RegisteredAt:   registeredAt.UTC(),
		IsNew:          true,
	}

	if err := s.store.InsertActive(ctx, &record); err != nil {
		if errors.Is(err, repository.ErrConstraintViolation) {
			// Lost a race with a concurrent registration of the same identifier.
			return dto.StudentResponse{}, s.finish(span, "register", s.duplicateOf(ctx, req.StudentID))
		}
		return dto.StudentResponse{}, s.finish(span, "register", storageError(err))
	}

	s.recordActivity(ctx, ActivityEntry{
		Action:     "record.registered",
		Details:    fmt.Sprintf("Registered %s (%s)", record.Name, record.StudentID),
		EntityType: "student",
		EntityID:   &record.ID,
		Metadata:   map[string]interface{}{"student_id": record.StudentID},
	})

	return dto.NewStudentResponse(record), s.finish(span, "register", nil)
}

func (s *lifecycleService) Update(ctx context.Context, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.update")
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	span.SetAttributes(attribute.Int64("student.active_id", int64(id)))

	req = normalizeUpdateRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, s.finish(span, "update", invalidRecord(err))
	}
	if req.Photo != nil {
		if err := validatePhoto(*req.Photo); err != nil {
			return dto.StudentResponse{}, s.finish(span, "update", invalidRecord(err))
		}
	}

	updates := make(map[string]interface{})
	changedFields := make([]string, 0)
	setField := func(column string, value *string) {
		if value != nil {
			updates[column] = *value
			changedFields = append(changedFields, column)
		}
	}

	setField("name", req.Name)
	setField("gender", req.Gender)
	setField("course", req.Course)
	setField("year", req.Year)
	setField("section", req.Section)
	setField("email", req.Email)
	setField("phone", req.Phone)
	setField("birthday", req.Birthday)
	setField("valid_until", req.ValidUntil)
	setField("photo", req.Photo)
	if req.IsNew != nil {
		updates["is_new"] = *req.IsNew
		changedFields = append(changedFields, "is_new")
	}

	if len(updates) == 0 {
		record, err := s.store.GetActive(ctx, id)
		if err != nil {
			return dto.StudentResponse{}, s.finish(span, "update", lookupError(err))
		}
		return dto.NewStudentResponse(record), s.finish(span, "update", nil)
	}

	record, err := s.store.UpdateActive(ctx, id, updates)
	if err != nil {
		return dto.StudentResponse{}, s.finish(span, "update", lookupError(err))
	}

	s.recordActivity(ctx, ActivityEntry{
		Action:     "record.updated",
		Details:    fmt.Sprintf("Updated %s (%s): %s", record.Name, record.StudentID, strings.Join(changedFields, ", ")),
		EntityType: "student",
		EntityID:   &record.ID,
		Metadata:   map[string]interface{}{"student_id": record.StudentID, "fields": changedFields},
	})

	return dto.NewStudentResponse(record), s.finish(span, "update", nil)
}

func (s *lifecycleService) Archive(ctx context.Context, id uint) (dto.Confirmation, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.archive")
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	span.SetAttributes(attribute.Int64("student.active_id", int64(id)))

	record, err := s.store.GetActive(ctx, id)
	if err != nil {
		return dto.Confirmation{}, s.finish(span, "archive", lookupError(err))
	}

	archived := models.NewArchivedRecord(record, s.now())
	inserted := false
	err = s.store.Transaction(ctx, func(tx repository.RecordStore) error {
		if err := tx.InsertArchived(ctx, &archived); err != nil {
			return err
		}
		inserted = true
		if err := tx.RemoveActive(ctx, record.ID); err != nil {
			return &removeStepError{err: err}
		}
		return nil
	})
	if err != nil {
		if !inserted {
			return dto.Confirmation{}, s.finish(span, "archive", storageError(err))
		}
		if err := s.verifyArchive(ctx, record, archived, err); err != nil {
			return dto.Confirmation{}, s.finish(span, "archive", err)
		}
	}

	s.recordActivity(ctx, ActivityEntry{
		Action:     "record.archived",
		Details:    fmt.Sprintf("Archived %s (%s)", record.Name, record.StudentID),
		EntityType: "student",
		EntityID:   &archived.ID,
		Metadata:   map[string]interface{}{"student_id": record.StudentID, "original_id": record.ID},
	})

	return dto.Confirmation{
		Operation:  "archive",
		ArchivedID: &archived.ID,
		StudentID:  record.StudentID,
	}, s.finish(span, "archive", nil)
}

func (s *lifecycleService) Restore(ctx context.Context, archivedID uint) (dto.Confirmation, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.restore")
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	span.SetAttributes(attribute.Int64("student.archived_id", int64(archivedID)))

	archived, err := s.store.GetArchived(ctx, archivedID)
	if err != nil {
		return dto.Confirmation{}, s.finish(span, "restore", lookupError(err))
	}

	record := archived.ToActive()
	inserted := false
	err = s.store.Transaction(ctx, func(tx repository.RecordStore) error {
		if err := tx.InsertActive(ctx, &record); err != nil {
			return err
		}
		inserted = true
		if err := tx.RemoveArchived(ctx, archived.ID); err != nil {
			return &removeStepError{err: err}
		}
		return nil
	})
	if err != nil {
		if !inserted {
			if errors.Is(err, repository.ErrConstraintViolation) {
				return dto.Confirmation{}, s.finish(span, "restore", s.restoreConflict(ctx, archived))
			}
			return dto.Confirmation{}, s.finish(span, "restore", storageError(err))
		}
		if err := s.verifyRestore(ctx, record, archived, err); err != nil {
			return dto.Confirmation{}, s.finish(span, "restore", err)
		}
	}

	s.recordActivity(ctx, ActivityEntry{
		Action:     "record.restored",
		Details:    fmt.Sprintf("Restored %s (%s)", record.Name, record.StudentID),
		EntityType: "student",
		EntityID:   &record.ID,
		Metadata:   map[string]interface{}{"student_id": record.StudentID, "archived_id": archived.ID},
	})

	return dto.Confirmation{
		Operation:  "restore",
		ActiveID:   &record.ID,
		ArchivedID: &archived.ID,
		StudentID:  record.StudentID,
	}, s.finish(span, "restore", nil)
}

func (s *lifecycleService) Purge(ctx context.Context, archivedID uint) (dto.Confirmation, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.purge")
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	span.SetAttributes(attribute.Int64("student.archived_id", int64(archivedID)))

	archived, err := s.store.GetArchived(ctx, archivedID)
	if err != nil {
		return dto.Confirmation{}, s.finish(span, "purge", lookupError(err))
	}

	if err := s.store.RemoveArchived(ctx, archived.ID); err != nil {
		return dto.Confirmation{}, s.finish(span, "purge", lookupError(err))
	}

	s.recordActivity(ctx, ActivityEntry{
		Action:     "record.purged",
		Details:    fmt.Sprintf("Permanently deleted %s (%s)", archived.Name, archived.StudentID),
		EntityType: "student",
		EntityID:   &archived.ID,
		Metadata:   map[string]interface{}{"student_id": archived.StudentID},
	})

	return dto.Confirmation{
		Operation:  "purge",
		ArchivedID: &archived.ID,
		StudentID:  archived.StudentID,
	}, s.finish(span, "purge", nil)
}

func (s *lifecycleService) GetActive(ctx context.Context, id uint) (dto.StudentResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	record, err := s.store.GetActive(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, lookupError(err)
	}

	return dto.NewStudentResponse(record), nil
}

func (s *lifecycleService) GetArchived(ctx context.Context, archivedID uint) (dto.ArchivedStudentResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	record, err := s.store.GetArchived(ctx, archivedID)
	if err != nil {
		return dto.ArchivedStudentResponse{}, lookupError(err)
	}

	return dto.NewArchivedStudentResponse(record), nil
}

func (s *lifecycleService) ListActive(ctx context.Context, req dto.ListRequest) (dto.StudentListResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	records, total, err := s.store.ListActive(ctx, listFilter(req))
	if err != nil {
		return dto.StudentListResponse{}, storageError(err)
	}

	items := make([]dto.StudentResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NewStudentResponse(record))
	}

	return dto.StudentListResponse{Items: items, Pagination: paginationMeta(req, total)}, nil
}

func (s *lifecycleService) ListArchived(ctx context.Context, req dto.ListRequest) (dto.ArchivedStudentListResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	records, total, err := s.store.ListArchived(ctx, listFilter(req))
	if err != nil {
		return dto.ArchivedStudentListResponse{}, storageError(err)
	}

	items := make([]dto.ArchivedStudentResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NewArchivedStudentResponse(record))
	}

	return dto.ArchivedStudentListResponse{Items: items, Pagination: paginationMeta(req, total)}, nil
}

// verifyArchive inspects the store after a failed archive whose insert step ran.
// A clean rollback leaves only the active row; both rows present is a partial move.
func (s *lifecycleService) verifyArchive(ctx context.Context, record models.StudentRecord, archived models.ArchivedRecord, cause error) error {
	var removeErr *removeStepError
	if errors.As(cause, &removeErr) && errors.Is(removeErr.err, gorm.ErrRecordNotFound) {
		if _, err := s.store.GetArchived(ctx, archived.ID); errors.Is(err, gorm.ErrRecordNotFound) {
			// Another caller archived the record first.
			return ErrNotFound
		}
	}

	activeExists, activeErr := s.exists(ctx, func(ctx context.Context) error {
		_, err := s.store.GetActive(ctx, record.ID)
		return err
	})
	archivedExists, archivedErr := s.exists(ctx, func(ctx context.Context) error {
		_, err := s.store.GetArchived(ctx, archived.ID)
		return err
	})

	switch {
	case activeErr != nil || archivedErr != nil:
		return s.partialMove("archive", record.StudentID, record.ID, archived.ID, cause)
	case activeExists && archivedExists:
		return s.partialMove("archive", record.StudentID, record.ID, archived.ID, cause)
	case activeExists:
		return storageError(cause)
	case archivedExists:
		// The commit landed despite the reported error.
		return nil
	default:
		return storageError(cause)
	}
}

// verifyRestore mirrors verifyArchive for the archived to active direction.
func (s *lifecycleService) verifyRestore(ctx context.Context, record models.StudentRecord, archived models.ArchivedRecord, cause error) error {
	var removeErr *removeStepError
	if errors.As(cause, &removeErr) && errors.Is(removeErr.err, gorm.ErrRecordNotFound) {
		if _, err := s.store.GetActive(ctx, record.ID); errors.Is(err, gorm.ErrRecordNotFound) {
			// Another caller restored or purged the record first.
			return ErrNotFound
		}
	}

	activeExists, activeErr := s.exists(ctx, func(ctx context.Context) error {
		_, err := s.store.GetActive(ctx, record.ID)
		return err
	})
	archivedExists, archivedErr := s.exists(ctx, func(ctx context.Context) error {
		_, err := s.store.GetArchived(ctx, archived.ID)
		return err
	})

	switch {
	case activeErr != nil || archivedErr != nil:
		return s.partialMove("restore", archived.StudentID, record.ID, archived.ID, cause)
	case activeExists && archivedExists:
		return s.partialMove("restore", archived.StudentID, record.ID, archived.ID, cause)
	case archivedExists:
		return storageError(cause)
	case activeExists:
		return nil
	default:
		return storageError(cause)
	}
}

func (s *lifecycleService) exists(ctx context.Context, lookup func(context.Context) error) (bool, error) {
	err := lookup(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *lifecycleService) partialMove(operation, studentID string, activeID, archivedID uint, cause error) error {
	err := &PartialMoveError{
		Operation:  operation,
		StudentID:  studentID,
		ActiveID:   activeID,
		ArchivedID: archivedID,
		Err:        cause,
	}
	s.logger.Error().Err(cause).
		Str("operation", operation).
		Str("student_id", studentID).
		Uint("active_id", activeID).
		Uint("archived_id", archivedID).
		Msg("record move incomplete, reconciliation required")
	return err
}

// restoreConflict explains why an archived record could not re-enter the active
// collection. If the holder is the record's own origin, an earlier archive never
// finished removing it.
func (s *lifecycleService) restoreConflict(ctx context.Context, archived models.ArchivedRecord) error {
	existing, err := s.store.FindActiveByStudentID(ctx, archived.StudentID)
	if err != nil {
		return &DuplicateIdentifierError{Existing: models.StudentRecord{StudentID: archived.StudentID}}
	}
	if existing.ID == archived.OriginalID && existing.RegisteredAt.Equal(archived.RegisteredAt) {
		return s.partialMove("archive", archived.StudentID, existing.ID, archived.ID, ErrDuplicateIdentifier)
	}
	return &DuplicateIdentifierError{Existing: existing}
}

func (s *lifecycleService) duplicateOf(ctx context.Context, studentID string) error {
	existing, err := s.store.FindActiveByStudentID(ctx, studentID)
	if err != nil {
		return &DuplicateIdentifierError{Existing: models.StudentRecord{StudentID: studentID}}
	}
	return &DuplicateIdentifierError{Existing: existing}
}

func (s *lifecycleService) recordActivity(ctx context.Context, entry ActivityEntry) {
	if s.activity == nil {
		return
	}

	// The primary operation already succeeded; a cancelled request must not drop the entry.
	ctx, cancel := s.withTimeout(context.WithoutCancel(ctx))
	defer cancel()

	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to record activity")
	}
}

func (s *lifecycleService) finish(span trace.Span, operation string, err error) error {
	outcome := outcomeOf(err)
	observability.LifecycleOperations().WithLabelValues(operation, outcome).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if outcome == "storage_unavailable" {
			s.logger.Error().Err(err).Str("operation", operation).Msg("record store failure")
		}
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *lifecycleService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicateIdentifier) && !errors.Is(err, ErrPartialArchive):
		return "duplicate_identifier"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPartialArchive):
		return "partial_archive"
	case errors.Is(err, ErrInvalidRecord):
		return "invalid"
	default:
		return "storage_unavailable"
	}
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return storageError(err)
}

func listFilter(req dto.ListRequest) repository.StudentFilter {
	return repository.StudentFilter{
		Search:   strings.TrimSpace(req.Search),
		Page:     req.Page,
		PageSize: req.PageSize,
	}
}

func paginationMeta(req dto.ListRequest, total int64) dto.PaginationMeta {
	pagination := dto.PaginationMeta{
		Page:       maxInt(req.Page, 1),
		PageSize:   req.PageSize,
		TotalItems: total,
	}
	if req.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	} else {
		pagination.TotalPages = 1
	}
	return pagination
}

func normalizeRegisterRequest(req dto.StudentRegisterRequest) dto.StudentRegisterRequest {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	req.Gender = strings.TrimSpace(req.Gender)
	req.Course = strings.TrimSpace(req.Course)
	req.Year = strings.TrimSpace(req.Year)
	req.Section = strings.TrimSpace(req.Section)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Birthday = strings.TrimSpace(req.Birthday)
	req.ValidUntil = strings.TrimSpace(req.ValidUntil)
	req.Photo = strings.TrimSpace(req.Photo)
	return req
}

func normalizeUpdateRequest(req dto.StudentUpdateRequest) dto.StudentUpdateRequest {
	trim := func(value *string) *string {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		return &trimmed
	}

	req.Name = trim(req.Name)
	req.Gender = trim(req.Gender)
	req.Course = trim(req.Course)
	req.Year = trim(req.Year)
	req.Section = trim(req.Section)
	req.Email = trim(req.Email)
	if req.Email != nil {
		lower := strings.ToLower(*req.Email)
		req.Email = &lower
	}
	req.Phone = trim(req.Phone)
	req.Birthday = trim(req.Birthday)
	req.ValidUntil = trim(req.ValidUntil)
	req.Photo = trim(req.Photo)
	return req
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
