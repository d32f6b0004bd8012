package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-registry/internal/config"
	"github.com/noah-isme/student-registry/internal/database"
	"github.com/noah-isme/student-registry/internal/handler"
	"github.com/noah-isme/student-registry/internal/middleware"
	"github.com/noah-isme/student-registry/internal/repository"
	"github.com/noah-isme/student-registry/internal/router"
	"github.com/noah-isme/student-registry/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error().Err(err).Msg("failed to close database")
		}
	}()

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := database.ConnectRedis(startupCtx, cfg.RedisURL)
	cancelStartup()
	if err != nil {
		logger.Warn().Err(err).Msg("settings cache disabled")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("activity events disabled")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	store := repository.NewRecordStore(db)
	activityRepo := repository.NewActivityLogRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	var publisher service.EventPublisher
	if natsConn != nil {
		publisher = service.NewNATSPublisher(natsConn, cfg.NATSSubject)
	}

	activityService := service.NewActivityService(activityRepo, validate, publisher, logger)
	lifecycleService := service.NewLifecycleService(store, validate, activityService, logger, service.LifecycleOptions{
		StorageTimeout: cfg.StorageTimeout,
	})
	settingService := service.NewSettingService(settingRepo, redisClient, cfg.SettingsCacheTTL, validate, logger)
	authService := service.NewAuthService(service.Credentials{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
	}, cfg.JWTSecret, cfg.TokenTTL, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: logger, AllowOrigins: cfg.AllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:  handler.NewStudentHandler(lifecycleService, logger),
		ArchiveHandler:  handler.NewArchiveHandler(lifecycleService, logger),
		ActivityHandler: handler.NewActivityHandler(activityService, logger),
		SettingHandler:  handler.NewSettingHandler(settingService, logger),
		AuthHandler:     handler.NewAuthHandler(authService, logger),
		StoragePing: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
