package http

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nicenote/internal/notes/ports/services"
	"nicenote/pkg/logger"
)

// Ключи fiber.Locals.
const (
	localsUserContext = "userContext"
	localsUserID      = "userID"
)

// HeaderRequestID - заголовок с идентификатором запроса.
const HeaderRequestID = "X-Request-ID"

// Константы для логирования.
const (
	LogRequestCompleted = "request completed"
	LogRequestFailed    = "request failed"
	LogServerPanic      = "server panic"

	ErrorNoAuthHeader       = "no authorization header provided"
	ErrorInvalidTokenFormat = "invalid token format"
)

// requestContext возвращает контекст запроса с request id и логгером.
func requestContext(c fiber.Ctx) context.Context {
	if ctx, ok := c.Locals(localsUserContext).(context.Context); ok {
		return ctx
	}
	return c.Context()
}

// NewRequestIDMiddleware кладет в контекст идентификатор запроса из заголовка или новый.
func NewRequestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx := logger.NewRequestIDContext(c.Context(), c.Get(HeaderRequestID))
		id, _ := logger.GetRequestID(ctx)
		c.Set(HeaderRequestID, id)
		c.Locals(localsUserContext, ctx)
		return c.Next()
	}
}

// NewLoggerMiddleware логирует завершение запросов. /health не логируется.
func NewLoggerMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		ctx := requestContext(c)
		log := logger.Log(ctx).With(
			zap.String("path", c.Path()),
			zap.String("http_method", c.Method()),
			zap.String("ip", c.IP()),
		)
		fields := []zap.Field{
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			log.Error(ctx, LogRequestFailed, append(fields, zap.Error(err))...)
			return err
		}
		log.Info(ctx, LogRequestCompleted, fields...)
		return nil
	}
}

// NewRecoveryMiddleware превращает панику обработчика в ответ 500.
func NewRecoveryMiddleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				ctx := requestContext(c)
				logger.Log(ctx).Error(ctx, LogServerPanic,
					zap.String("error", fmt.Sprintf("%v", r)),
					zap.String("stack", string(debug.Stack())))
				err = writeError(c, fiber.StatusInternalServerError, MsgInternalServerError, "")
			}
		}()
		return c.Next()
	}
}

// NewAuthMiddleware проверяет Bearer-токен.
func NewAuthMiddleware(tokens services.TokenService) fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx := requestContext(c)
		log := logger.Log(ctx).With(zap.String("middleware", "auth"))

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			log.Debug(ctx, ErrorNoAuthHeader)
			return writeError(c, fiber.StatusUnauthorized, MsgUnauthorized, ErrorNoAuthHeader)
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			log.Debug(ctx, ErrorInvalidTokenFormat)
			return writeError(c, fiber.StatusUnauthorized, MsgUnauthorized, ErrorInvalidTokenFormat)
		}

		principal, err := tokens.ValidateAccessToken(ctx, strings.TrimSpace(token))
		if err != nil {
			log.Debug(ctx, "token rejected", zap.Error(err))
			return writeError(c, fiber.StatusUnauthorized, MsgUnauthorized, "")
		}

		c.Locals(localsUserID, principal.Subject)
		c.Locals(localsUserContext, logger.NewContext(ctx, logger.Log(ctx).With(zap.String("user_id", principal.Subject))))
		return c.Next()
	}
}
