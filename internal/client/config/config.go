// Package config содержит конфигурацию клиента notesync.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgconfig "nicenote/pkg/config"
	"nicenote/pkg/logger"
)

// Константы ошибок.
const (
	ErrFailedLoadConfig = "failed to load notesync configuration"
	ErrInvalidConfig    = "invalid notesync configuration"
)

// ErrEmptyAPIURL возвращается, если адрес API не задан.
var ErrEmptyAPIURL = errors.New("api url is empty")

// Config - настройки клиента.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Logging  LoggingConfig  `yaml:"logging"`
	// ShutdownTimeout ограничивает ожидание финальных сохранений при выходе.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"NOTESYNC_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// APIConfig - параметры подключения к серверу.
type APIConfig struct {
	URL      string        `yaml:"url" env:"NOTESYNC_API_URL" env-default:"http://localhost:8787"`
	Token    string        `yaml:"token" env:"NOTESYNC_TOKEN" env-default:""`
	Language string        `yaml:"language" env:"NOTESYNC_LANGUAGE" env-default:"en"`
	Timeout  time.Duration `yaml:"timeout" env:"NOTESYNC_HTTP_TIMEOUT" env-default:"30s"`
	PageSize int           `yaml:"page_size" env:"NOTESYNC_PAGE_SIZE" env-default:"50"`
}

// AutosaveConfig - параметры автосохранения.
type AutosaveConfig struct {
	Debounce    time.Duration `yaml:"debounce" env:"NOTESYNC_DEBOUNCE" env-default:"1s"`
	RetryDelays string        `yaml:"retry_delays" env:"NOTESYNC_RETRY_DELAYS" env-default:"1s,2s"`
	MaxAttempts int           `yaml:"max_attempts" env:"NOTESYNC_MAX_ATTEMPTS" env-default:"3"`
	SavedHold   time.Duration `yaml:"saved_hold" env:"NOTESYNC_SAVED_HOLD" env-default:"2s"`
	ToastTTL    time.Duration `yaml:"toast_ttl" env:"NOTESYNC_TOAST_TTL" env-default:"5s"`
}

// GetRetryDelays разбирает список пауз между попытками.
func (c *AutosaveConfig) GetRetryDelays() ([]time.Duration, error) {
	var delays []time.Duration
	for _, part := range strings.Split(c.RetryDelays, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("retry delay %q: %w", part, err)
		}
		delays = append(delays, d)
	}
	return delays, nil
}

// LoggingConfig - настройки логирования клиента.
type LoggingConfig struct {
	Level string `yaml:"level" env:"NOTESYNC_LOGGER_LEVEL" env-default:"warn"`
	Mode  string `yaml:"mode" env:"NOTESYNC_LOGGER_MODE" env-default:"development"`
}

// GetEnvironment возвращает режим логгера.
func (l *LoggingConfig) GetEnvironment() logger.Environment {
	if l.Mode == "production" {
		return logger.Production
	}
	return logger.Development
}

// Load читает конфигурацию из файла path (если задан) и окружения.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, "notesync", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate проверяет значения.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.URL) == "" {
		return ErrEmptyAPIURL
	}
	if c.Autosave.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be positive, got %d", c.Autosave.MaxAttempts)
	}
	delays, err := c.Autosave.GetRetryDelays()
	if err != nil {
		return err
	}
	if len(delays) < c.Autosave.MaxAttempts-1 {
		return fmt.Errorf("need %d retry delays for %d attempts, got %d",
			c.Autosave.MaxAttempts-1, c.Autosave.MaxAttempts, len(delays))
	}
	return nil
}
