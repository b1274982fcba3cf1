// Package config содержит конфигурацию сервиса заметок.
package config

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	pkgconfig "nicenote/pkg/config"
	"nicenote/pkg/logger"
)

// Константы ошибок и сообщений для конфигурации.
const (
	LogLoadingConfig    = "loading notes service configuration"
	LogConfigLoaded     = "configuration loaded successfully"
	ErrFailedLoadConfig = "failed to load configuration"
	ErrInvalidConfig    = "invalid configuration"

	// EnvConfigFile - необязательный путь к файлу конфигурации.
	EnvConfigFile = "NOTES_CONFIG_FILE"
)

// Config представляет полную конфигурацию сервиса заметок.
type Config struct {
	Postgres   PostgresConfig   `yaml:"postgres"`
	Redis      RedisConfig      `yaml:"redis"`
	HTTP       HTTPConfig       `yaml:"http"`
	Pagination PaginationConfig `yaml:"pagination"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Shutdown   ShutdownConfig   `yaml:"shutdown"`
}

// Load загружает конфигурацию из переменных окружения.
func Load(ctx context.Context) (*Config, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogLoadingConfig)

	cfg, err := pkgconfig.Load[Config](ctx, "notes", os.Getenv(EnvConfigFile))
	if err != nil {
		log.Error(ctx, ErrFailedLoadConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		log.Error(ctx, ErrInvalidConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrInvalidConfig, err)
	}

	log.Info(ctx, LogConfigLoaded,
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Int("default_page_limit", cfg.Pagination.DefaultLimit),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Int("shutdown_timeout_seconds", cfg.Shutdown.Timeout))

	return cfg, nil
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	if c.Postgres.MinConn > c.Postgres.MaxConn {
		return fmt.Errorf("postgres min_conn %d exceeds max_conn %d", c.Postgres.MinConn, c.Postgres.MaxConn)
	}
	if c.Pagination.MaxLimit < 1 || c.Pagination.DefaultLimit < 1 || c.Pagination.DefaultLimit > c.Pagination.MaxLimit {
		return fmt.Errorf("pagination default %d must be within 1..%d", c.Pagination.DefaultLimit, c.Pagination.MaxLimit)
	}
	if c.Auth.Enabled && c.Auth.SecretKey == "" {
		return fmt.Errorf("auth is enabled but NOTES_AUTH_SECRET_KEY is empty")
	}
	return nil
}
