package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/repository"
)

// ErrSettingNotFound indicates no value is stored under the key.
var ErrSettingNotFound = errors.New("setting not found")

// SettingService reads and writes key/value settings.
type SettingService interface {
	Get(ctx context.Context, key string) (dto.SettingResponse, error)
	Put(ctx context.Context, key string, req dto.SettingPutRequest) (dto.SettingResponse, error)
}

type settingService struct {
	repo      repository.SettingRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSettingService constructs the settings service. cache may be nil.
func NewSettingService(repo repository.SettingRepository, cache *redis.Client, cacheTTL time.Duration, validator *validator.Validate, logger zerolog.Logger) SettingService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	return &settingService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validator,
		logger:    logger.With().Str("component", "setting_service").Logger(),
	}
}

func (s *settingService) Get(ctx context.Context, key string) (dto.SettingResponse, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return dto.SettingResponse{}, ErrSettingNotFound
	}

	if s.cache != nil {
		if cached, ok := s.readCache(ctx, key); ok {
			cached.CacheHit = true
			return cached, nil
		}
	}

	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SettingResponse{}, ErrSettingNotFound
		}
		return dto.SettingResponse{}, storageError(err)
	}

	response := dto.NewSettingResponse(setting)
	s.writeCache(ctx, response)

	return response, nil
}

func (s *settingService) Put(ctx context.Context, key string, req dto.SettingPutRequest) (dto.SettingResponse, error) {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 128 {
		return dto.SettingResponse{}, invalidRecord(fmt.Errorf("setting key must be 1-128 characters"))
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SettingResponse{}, invalidRecord(err)
	}

	setting, err := s.repo.Put(ctx, key, req.Value)
	if err != nil {
		return dto.SettingResponse{}, storageError(err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, settingCacheKey(key)).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to invalidate setting cache")
		}
	}

	return dto.NewSettingResponse(setting), nil
}

func (s *settingService) readCache(ctx context.Context, key string) (dto.SettingResponse, bool) {
	raw, err := s.cache.Get(ctx, settingCacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("setting cache read failed")
		}
		return dto.SettingResponse{}, false
	}

	var cached dto.SettingResponse
	if err := json.Unmarshal(raw, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed setting cache entry")
		return dto.SettingResponse{}, false
	}

	return cached, true
}

func (s *settingService) writeCache(ctx context.Context, response dto.SettingResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, settingCacheKey(response.Key), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", response.Key).Msg("setting cache write failed")
	}
}

func settingCacheKey(key string) string {
	return "registry:setting:" + key
}
