package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-registry/internal/config"
	"github.com/noah-isme/student-registry/internal/database"
	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/handler"
	"github.com/noah-isme/student-registry/internal/middleware"
	"github.com/noah-isme/student-registry/internal/repository"
	"github.com/noah-isme/student-registry/internal/router"
	"github.com/noah-isme/student-registry/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func (c *client) do(method, path string, payload interface{}) (int, envelope) {
	c.t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := config.Config{
		AppName:          "Student Registry",
		AppEnv:           "test",
		JWTSecret:        "router-secret",
		AdminUsername:    "librarian",
		AdminPassword:    "hunter2",
		StorageTimeout:   2 * time.Second,
		SettingsCacheTTL: time.Minute,
	}

	db, err := database.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	store := repository.NewRecordStore(db)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), validate, nil, logger)
	lifecycle := service.NewLifecycleService(store, validate, activity, logger, service.LifecycleOptions{StorageTimeout: cfg.StorageTimeout})
	settings := service.NewSettingService(repository.NewSettingRepository(db), cache, cfg.SettingsCacheTTL, validate, logger)
	auth := service.NewAuthService(service.Credentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword}, cfg.JWTSecret, time.Hour, validate, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: logger})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:  handler.NewStudentHandler(lifecycle, logger),
		ArchiveHandler:  handler.NewArchiveHandler(lifecycle, logger),
		ActivityHandler: handler.NewActivityHandler(activity, logger),
		SettingHandler:  handler.NewSettingHandler(settings, logger),
		AuthHandler:     handler.NewAuthHandler(auth, logger),
		StoragePing: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
	})
	return app
}

func TestRouterProtectsRecordRoutes(t *testing.T) {
	c := &client{t: t, app: setupApp(t)}

	status, _ := c.do(http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = c.do(http.MethodGet, "/api/v1/students", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = c.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Username: "librarian", Password: "wrong"})
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRouterLifecycleScenario(t *testing.T) {
	c := &client{t: t, app: setupApp(t)}

	status, env := c.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Username: "librarian", Password: "hunter2"})
	require.Equal(t, fiber.StatusOK, status)
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	c.token = login.Token

	status, env = c.do(http.MethodPost, "/api/v1/students", dto.StudentRegisterRequest{StudentID: "2024-0001", Name: "Ann"})
	require.Equal(t, fiber.StatusCreated, status)
	var ann dto.StudentResponse
	require.NoError(t, json.Unmarshal(env.Data, &ann))
	require.True(t, ann.IsNew)

	status, env = c.do(http.MethodPost, "/api/v1/students", dto.StudentRegisterRequest{StudentID: "2024-0001", Name: "Bob"})
	require.Equal(t, fiber.StatusConflict, status)
	var existing dto.StudentResponse
	require.NoError(t, json.Unmarshal(env.Data, &existing))
	require.Equal(t, "Ann", existing.Name)

	status, env = c.do(http.MethodPost, fmt.Sprintf("/api/v1/students/%d/archive", ann.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	var archived dto.Confirmation
	require.NoError(t, json.Unmarshal(env.Data, &archived))
	require.NotNil(t, archived.ArchivedID)

	status, _ = c.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d", ann.ID), nil)
	require.Equal(t, fiber.StatusNotFound, status)

	status, env = c.do(http.MethodPost, "/api/v1/students", dto.StudentRegisterRequest{StudentID: "2024-0001", Name: "Bob"})
	require.Equal(t, fiber.StatusCreated, status)
	var bob dto.StudentResponse
	require.NoError(t, json.Unmarshal(env.Data, &bob))

	status, env = c.do(http.MethodPost, fmt.Sprintf("/api/v1/archive/%d/restore", *archived.ArchivedID), nil)
	require.Equal(t, fiber.StatusConflict, status)
	require.Equal(t, "duplicate_identifier", env.Code)

	status, _ = c.do(http.MethodGet, fmt.Sprintf("/api/v1/archive/%d", *archived.ArchivedID), nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/api/v1/archive/%d", *archived.ArchivedID), nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/api/v1/archive/%d", *archived.ArchivedID), nil)
	require.Equal(t, fiber.StatusNotFound, status)

	status, env = c.do(http.MethodGet, "/api/v1/students", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list dto.StudentListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 1)
	require.Equal(t, bob.ID, list.Items[0].ID)

	status, env = c.do(http.MethodGet, "/api/v1/activity?limit=10", nil)
	require.Equal(t, fiber.StatusOK, status)
	var entries []dto.ActivityResponse
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 4)
	require.Equal(t, "record.purged", entries[0].Action)

	resp, err := c.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	scrape, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(scrape), "registry_lifecycle_operations_total")
}

func TestRouterSettingsRoundTrip(t *testing.T) {
	c := &client{t: t, app: setupApp(t)}

	_, env := c.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Username: "librarian", Password: "hunter2"})
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	c.token = login.Token

	status, _ := c.do(http.MethodPut, "/api/v1/settings/card_footer", dto.SettingPutRequest{Value: "Property of the library"})
	require.Equal(t, fiber.StatusOK, status)

	status, env = c.do(http.MethodGet, "/api/v1/settings/card_footer", nil)
	require.Equal(t, fiber.StatusOK, status)
	var setting dto.SettingResponse
	require.NoError(t, json.Unmarshal(env.Data, &setting))
	require.Equal(t, "Property of the library", setting.Value)
}
