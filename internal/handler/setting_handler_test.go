package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/handler"
	"github.com/noah-isme/student-registry/internal/service"
)

type memorySettingService struct {
	values map[string]string
}

func (s *memorySettingService) Get(_ context.Context, key string) (dto.SettingResponse, error) {
	value, ok := s.values[key]
	if !ok {
		return dto.SettingResponse{}, service.ErrSettingNotFound
	}
	return dto.SettingResponse{Key: key, Value: value}, nil
}

func (s *memorySettingService) Put(_ context.Context, key string, req dto.SettingPutRequest) (dto.SettingResponse, error) {
	s.values[key] = req.Value
	return dto.SettingResponse{Key: key, Value: req.Value}, nil
}

func TestSettingHandlerPutThenGet(t *testing.T) {
	svc := &memorySettingService{values: map[string]string{}}
	app := fiber.New()
	handler.NewSettingHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/settings"))

	resp := doJSON(t, app, http.MethodGet, "/api/v1/settings/school_name", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPut, "/api/v1/settings/school_name", dto.SettingPutRequest{Value: "North High"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPut, "/api/v1/settings/school_name", dto.SettingPutRequest{Value: "South High"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/settings/school_name", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var setting dto.SettingResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &setting))
	require.Equal(t, "South High", setting.Value)
}
