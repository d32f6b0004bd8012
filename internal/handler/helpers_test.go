package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-registry/internal/dto"
)

type stubLifecycleService struct {
	registerFn     func(dto.StudentRegisterRequest) (dto.StudentResponse, error)
	updateFn       func(uint, dto.StudentUpdateRequest) (dto.StudentResponse, error)
	archiveFn      func(uint) (dto.Confirmation, error)
	restoreFn      func(uint) (dto.Confirmation, error)
	purgeFn        func(uint) (dto.Confirmation, error)
	getActiveFn    func(uint) (dto.StudentResponse, error)
	getArchivedFn  func(uint) (dto.ArchivedStudentResponse, error)
	listActiveFn   func(dto.ListRequest) (dto.StudentListResponse, error)
	listArchivedFn func(dto.ListRequest) (dto.ArchivedStudentListResponse, error)
}

func (s *stubLifecycleService) Register(_ context.Context, req dto.StudentRegisterRequest) (dto.StudentResponse, error) {
	return s.registerFn(req)
}

func (s *stubLifecycleService) Update(_ context.Context, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	return s.updateFn(id, req)
}

func (s *stubLifecycleService) Archive(_ context.Context, id uint) (dto.Confirmation, error) {
	return s.archiveFn(id)
}

func (s *stubLifecycleService) Restore(_ context.Context, id uint) (dto.Confirmation, error) {
	return s.restoreFn(id)
}

func (s *stubLifecycleService) Purge(_ context.Context, id uint) (dto.Confirmation, error) {
	return s.purgeFn(id)
}

func (s *stubLifecycleService) GetActive(_ context.Context, id uint) (dto.StudentResponse, error) {
	return s.getActiveFn(id)
}

func (s *stubLifecycleService) GetArchived(_ context.Context, id uint) (dto.ArchivedStudentResponse, error) {
	return s.getArchivedFn(id)
}

func (s *stubLifecycleService) ListActive(_ context.Context, req dto.ListRequest) (dto.StudentListResponse, error) {
	return s.listActiveFn(req)
}

func (s *stubLifecycleService) ListArchived(_ context.Context, req dto.ListRequest) (dto.ArchivedStudentListResponse, error) {
	return s.listArchivedFn(req)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}
