// Package main реализует точку входа HTTP API заметок.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	cacheadapter "nicenote/internal/notes/adapters/cache"
	notehttp "nicenote/internal/notes/adapters/http"
	"nicenote/internal/notes/adapters/postgres"
	"nicenote/internal/notes/adapters/services"
	"nicenote/internal/notes/app"
	"nicenote/internal/notes/config"
	"nicenote/internal/notes/db"
	portservices "nicenote/internal/notes/ports/services"
	"nicenote/pkg/db/redis"
	"nicenote/pkg/logger"
	"nicenote/pkg/resilience"
	"nicenote/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "NOTES_LOGGER_MODE"
	EnvLoggerLevel = "NOTES_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitDB               = "failed to initialize database"
	ErrInitRedis            = "failed to initialize redis, continuing without cache"
	ErrStartHTTP            = "HTTP server stopped with error"
	ErrShutdown             = "graceful shutdown finished with errors"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "notes API started"
	LogServiceShutdownDone = "notes API shutdown complete"
	LogClosingDB           = "closing database connections"
	LogClosingRedis        = "closing redis connection"
	LogStoppingHTTP        = "stopping HTTP server"
	LogCacheEnabled        = "note cache enabled"
	LogAuthEnabled         = "bearer authentication enabled"
)

const appName = "nicenote-api"

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}
	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	exitCode := run(ctx, log)

	if err := logger.Log(ctx).Sync(); err != nil {
		msg := err.Error()
		if !strings.Contains(msg, ErrSyncStderr) && !strings.Contains(msg, ErrSyncStdout) {
			_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err)
		}
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func run(ctx context.Context, log *logger.Logger) int {
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, ErrLoadConfig, zap.Error(err))
		return 1
	}

	finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
	if err != nil {
		log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
		return 1
	}
	logger.SetGlobalLogger(finalLogger)
	log = finalLogger

	database, err := db.New(ctx, &cfg.Postgres)
	if err != nil {
		log.Error(ctx, ErrInitDB, zap.Error(err))
		return 1
	}

	hooks := []shutdown.Hook{
		func(ctx context.Context) error {
			log.Info(ctx, LogClosingDB)
			return database.Close(ctx)
		},
	}

	opts := []app.Option{app.WithPageLimits(cfg.Pagination.DefaultLimit, cfg.Pagination.MaxLimit)}
	if cfg.Redis.Enabled {
		client, err := redis.New(ctx, redis.Config{
			Address:      cfg.Redis.GetAddress(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn(ctx, ErrInitRedis, zap.Error(err))
		} else {
			breaker := resilience.NewCircuitBreaker("note-cache", resilience.DefaultCircuitBreakerConfig())
			opts = append(opts, app.WithCache(cacheadapter.NewRedisCache(client, cfg.Redis.DefaultTTL), breaker))
			hooks = append(hooks, func(ctx context.Context) error {
				log.Info(ctx, LogClosingRedis)
				return client.Close()
			})
			log.Info(ctx, LogCacheEnabled, zap.Duration("ttl", cfg.Redis.DefaultTTL))
		}
	}

	noteUseCase := app.NewNoteUseCase(postgres.NewNoteRepository(database.Pool()), opts...)

	var tokens portservices.TokenService
	if cfg.Auth.Enabled {
		var jwtOpts []services.Option
		if cfg.Auth.Issuer != "" {
			jwtOpts = append(jwtOpts, services.WithIssuer(cfg.Auth.Issuer))
		}
		tokens = services.NewJWT(cfg.Auth.SecretKey, jwtOpts...)
		log.Info(ctx, LogAuthEnabled)
	}

	server := notehttp.NewApp(notehttp.AppConfig{
		Name:         appName,
		BodyLimit:    cfg.HTTP.BodyLimit,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	})
	notehttp.SetupRouter(server, noteUseCase, notehttp.RouterConfig{
		CORSOrigins: cfg.HTTP.GetCORSOrigins(),
		Tokens:      tokens,
	})

	waitCtx, stop := context.WithCancel(ctx)
	defer stop()

	var serveFailed atomic.Bool
	go func() {
		if err := server.Listen(cfg.HTTP.GetAddress(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			log.Error(ctx, ErrStartHTTP, zap.Error(err))
			serveFailed.Store(true)
			stop()
		}
	}()

	log.Info(ctx, LogServiceStarted,
		zap.String("address", cfg.HTTP.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("startup_time", time.Now().Format(time.RFC3339)))

	// HTTP останавливается первым, чтобы пул БД не закрылся под активными запросами.
	closeAll := func(ctx context.Context) error {
		log.Info(ctx, LogStoppingHTTP)
		if err := server.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to stop HTTP server: %w", err)
		}
		return shutdown.Run(ctx, cfg.Shutdown.GetTimeout(), hooks...)
	}

	exitCode := 0
	if err := shutdown.Wait(waitCtx, cfg.Shutdown.GetTimeout(), closeAll); err != nil {
		log.Error(ctx, ErrShutdown, zap.Error(err))
		exitCode = 1
	}
	if serveFailed.Load() {
		exitCode = 1
	}

	log.Info(ctx, LogServiceShutdownDone)
	return exitCode
}
