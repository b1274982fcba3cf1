package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nicenote/internal/notes/app"
	v1 "nicenote/pkg/api/notes/v1"
	"nicenote/pkg/logger"
)

// writeError пишет локализованную ошибку. detail добавляется к сообщению через двоеточие.
func writeError(c fiber.Ctx, status int, key MessageKey, detail string) error {
	msg := Translate(key, ResolveLocale(c.Get(fiber.HeaderAcceptLanguage)))
	if detail != "" {
		msg = msg + ": " + detail
	}
	if err := c.Status(status).JSON(v1.ErrorResponse{Error: msg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}
	return nil
}

// handleError преобразует ошибку бизнес-логики в HTTP-ответ.
func handleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, MsgNotFound, "")
	case errors.Is(err, app.ErrInvalidParams):
		return writeError(c, fiber.StatusBadRequest, MsgInvalidRequest, err.Error())
	default:
		ctx := requestContext(c)
		logger.Log(ctx).Error(ctx, "unhandled error", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, MsgInternalServerError, "")
	}
}

// ErrorHandler - обработчик ошибок fiber по умолчанию.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return writeError(c, fe.Code, MsgNotFound, "")
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusMethodNotAllowed:
			return writeError(c, fe.Code, MsgInvalidRequest, fe.Message)
		}
	}
	return handleError(c, err)
}
