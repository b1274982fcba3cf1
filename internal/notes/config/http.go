package config

import (
	"fmt"
	"strings"
	"time"
)

// HTTPConfig представляет конфигурацию HTTP сервера.
type HTTPConfig struct {
	Host         string        `yaml:"host" env:"NOTES_HTTP_HOST" env-default:"0.0.0.0"`
	Port         int           `yaml:"port" env:"NOTES_HTTP_PORT" env-default:"8787"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"NOTES_HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"NOTES_HTTP_WRITE_TIMEOUT" env-default:"10s"`
	CORSOrigins  string        `yaml:"cors_origins" env:"NOTES_HTTP_CORS_ORIGINS" env-default:"http://localhost:5173"`
	BodyLimit    int           `yaml:"body_limit" env:"NOTES_HTTP_BODY_LIMIT" env-default:"1048576"`
}

// GetAddress возвращает адрес HTTP сервера.
func (c *HTTPConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetCORSOrigins возвращает список разрешенных origin без пустых элементов.
func (c *HTTPConfig) GetCORSOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// PaginationConfig задает границы размера страницы списка.
type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit" env:"NOTES_PAGE_DEFAULT_LIMIT" env-default:"50"`
	MaxLimit     int `yaml:"max_limit" env:"NOTES_PAGE_MAX_LIMIT" env-default:"100"`
}
