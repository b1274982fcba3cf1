// Package config предоставляет загрузку конфигурации из файла и переменных окружения.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"nicenote/pkg/logger"
)

const (
	msgLoadingConfiguration = "loading configuration"
	msgConfigFileMissing    = "configuration file not found, using environment only"

	errFailedLoadConfiguration = "failed to load configuration"

	attrService = "service"
	attrPath    = "path"
)

// Load заполняет T из файла path (yaml, json, toml или .env) и переменных окружения.
// Окружение имеет приоритет над файлом. Пустой или отсутствующий path означает только окружение.
func Load[T any](ctx context.Context, serviceName, path string) (*T, error) {
	log := logger.Log(ctx).With(zap.String(attrService, serviceName))

	var cfg T
	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			log.Debug(ctx, msgLoadingConfiguration, zap.String(attrPath, path))
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
			}
			return &cfg, nil
		case errors.Is(err, fs.ErrNotExist):
			log.Warn(ctx, msgConfigFileMissing, zap.String(attrPath, path))
		default:
			return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
		}
	}

	log.Debug(ctx, msgLoadingConfiguration)
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
	}
	return &cfg, nil
}
