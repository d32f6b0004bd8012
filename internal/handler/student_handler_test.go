package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/handler"
	"github.com/noah-isme/student-registry/internal/models"
	"github.com/noah-isme/student-registry/internal/service"
)

func newStudentApp(svc service.LifecycleService) *fiber.App {
	app := fiber.New()
	handler.NewStudentHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/students"))
	return app
}

func TestStudentHandlerRegisterCreated(t *testing.T) {
	var received dto.StudentRegisterRequest
	svc := &stubLifecycleService{
		registerFn: func(req dto.StudentRegisterRequest) (dto.StudentResponse, error) {
			received = req
			return dto.StudentResponse{ID: 1, StudentID: req.StudentID, Name: req.Name, IsNew: true}, nil
		},
	}

	resp := doJSON(t, newStudentApp(svc), http.MethodPost, "/api/v1/students", map[string]string{
		"student_id": "S-100",
		"name":       "Ann",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	require.True(t, env.Success)

	var student dto.StudentResponse
	require.NoError(t, json.Unmarshal(env.Data, &student))
	require.Equal(t, "S-100", student.StudentID)
	require.True(t, student.IsNew)
	require.Equal(t, "Ann", received.Name)
}

func TestStudentHandlerErrorMapping(t *testing.T) {
	existing := models.StudentRecord{ID: 7, StudentID: "S-100", Name: "Ann", RegisteredAt: time.Now()}

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate", &service.DuplicateIdentifierError{Existing: existing}, fiber.StatusConflict, "duplicate_identifier"},
		{"not found", service.ErrNotFound, fiber.StatusNotFound, "not_found"},
		{"invalid", fmt.Errorf("%w: name is required", service.ErrInvalidRecord), fiber.StatusBadRequest, "invalid_record"},
		{"validator", validator.ValidationErrors{}, fiber.StatusBadRequest, "invalid_record"},
		{"storage", fmt.Errorf("%w: database is locked", service.ErrStorageUnavailable), fiber.StatusServiceUnavailable, "storage_unavailable"},
		{"partial", &service.PartialMoveError{
			Operation:  "archive",
			StudentID:  "S-100",
			ActiveID:   7,
			ArchivedID: 3,
			Err:        fmt.Errorf("%w: disk I/O error", service.ErrStorageUnavailable),
		}, fiber.StatusInternalServerError, "reconciliation_required"},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubLifecycleService{
				registerFn: func(dto.StudentRegisterRequest) (dto.StudentResponse, error) {
					return dto.StudentResponse{}, tc.err
				},
			}

			resp := doJSON(t, newStudentApp(svc), http.MethodPost, "/api/v1/students", map[string]string{
				"student_id": "S-100",
				"name":       "Ann",
			})
			require.Equal(t, tc.status, resp.StatusCode)

			env := decodeEnvelope(t, resp)
			require.False(t, env.Success)
			require.Equal(t, tc.code, env.Code)
		})
	}
}

func TestStudentHandlerDuplicateCarriesExistingRecord(t *testing.T) {
	existing := models.StudentRecord{ID: 7, StudentID: "S-100", Name: "Ann"}
	svc := &stubLifecycleService{
		registerFn: func(dto.StudentRegisterRequest) (dto.StudentResponse, error) {
			return dto.StudentResponse{}, &service.DuplicateIdentifierError{Existing: existing}
		},
	}

	resp := doJSON(t, newStudentApp(svc), http.MethodPost, "/api/v1/students", map[string]string{
		"student_id": "S-100",
		"name":       "Someone Else",
	})
	env := decodeEnvelope(t, resp)

	var student dto.StudentResponse
	require.NoError(t, json.Unmarshal(env.Data, &student))
	require.Equal(t, uint(7), student.ID)
	require.Equal(t, "Ann", student.Name)
}

func TestStudentHandlerRejectsInvalidIdentifier(t *testing.T) {
	app := newStudentApp(&stubLifecycleService{})

	for _, path := range []string{"/api/v1/students/abc", "/api/v1/students/0"} {
		resp := doJSON(t, app, http.MethodGet, path, nil)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
	}

	resp := doJSON(t, app, http.MethodPost, "/api/v1/students/-1/archive", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStudentHandlerUpdatePassesPartialFields(t *testing.T) {
	var gotID uint
	var got dto.StudentUpdateRequest
	svc := &stubLifecycleService{
		updateFn: func(id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error) {
			gotID = id
			got = req
			return dto.StudentResponse{ID: id, StudentID: "S-100", Name: "Ann", Course: *req.Course}, nil
		},
	}

	resp := doJSON(t, newStudentApp(svc), http.MethodPatch, "/api/v1/students/5", map[string]interface{}{
		"course": "BSCS",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(5), gotID)
	require.NotNil(t, got.Course)
	require.Equal(t, "BSCS", *got.Course)
	require.Nil(t, got.Name)
	require.Nil(t, got.Email)
}

func TestStudentHandlerListParsesPagination(t *testing.T) {
	var got dto.ListRequest
	svc := &stubLifecycleService{
		listActiveFn: func(req dto.ListRequest) (dto.StudentListResponse, error) {
			got = req
			return dto.StudentListResponse{Items: []dto.StudentResponse{}}, nil
		},
	}
	app := newStudentApp(svc)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/students?page=2&page_size=500&search=%20ann%20", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, dto.ListRequest{Page: 2, PageSize: 100, Search: "ann"}, got)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/students", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, dto.ListRequest{Page: 1, PageSize: 20}, got)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/students?page=two", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStudentHandlerArchiveReturnsConfirmation(t *testing.T) {
	archivedID := uint(11)
	svc := &stubLifecycleService{
		archiveFn: func(id uint) (dto.Confirmation, error) {
			return dto.Confirmation{Operation: "archive", ArchivedID: &archivedID, StudentID: "S-100"}, nil
		},
	}

	resp := doJSON(t, newStudentApp(svc), http.MethodPost, "/api/v1/students/4/archive", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	var confirmation dto.Confirmation
	require.NoError(t, json.Unmarshal(env.Data, &confirmation))
	require.Equal(t, "archive", confirmation.Operation)
	require.NotNil(t, confirmation.ArchivedID)
	require.Equal(t, archivedID, *confirmation.ArchivedID)
}
