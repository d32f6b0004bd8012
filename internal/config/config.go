package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the registry service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	SettingsCacheTTL time.Duration
	StorageTimeout   time.Duration
	JWTSecret        string
	TokenTTL         time.Duration
	AdminUsername    string
	AdminPassword    string
	NATSURL          string
	NATSSubject      string
	AllowOrigins     string
	LogLevel         string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("REGISTRY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Student Registry")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "file:data/registry.db")
	v.SetDefault("settings.cache_ttl", "10m")
	v.SetDefault("storage.timeout", "5s")
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("nats.subject", "registry.activity")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("log.level", "info")

	cacheTTL, err := parseDuration(v, "settings.cache_ttl")
	if err != nil {
		return Config{}, err
	}

	storageTimeout, err := parseDuration(v, "storage.timeout")
	if err != nil {
		return Config{}, err
	}

	tokenTTL, err := parseDuration(v, "jwt.ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		SettingsCacheTTL: cacheTTL,
		StorageTimeout:   storageTimeout,
		JWTSecret:        v.GetString("jwt.secret"),
		TokenTTL:         tokenTTL,
		AdminUsername:    v.GetString("admin.username"),
		AdminPassword:    v.GetString("admin.password"),
		NATSURL:          v.GetString("nats.url"),
		NATSSubject:      v.GetString("nats.subject"),
		AllowOrigins:     v.GetString("cors.origins"),
		LogLevel:         strings.ToLower(v.GetString("log.level")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("admin credentials must be provided")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}

	return d, nil
}
