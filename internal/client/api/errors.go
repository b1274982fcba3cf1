package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Ошибки транспорта.
var (
	ErrNotFound   = errors.New("note not found")
	ErrValidation = errors.New("request rejected by server")
	ErrServer     = errors.New("server error")
	ErrTransport  = errors.New("transport error")
)

// Error - ответ сервера с кодом ошибки.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("notes api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("notes api: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap относит ответ к одной из категорий ошибок.
func (e *Error) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return ErrServer
	default:
		return ErrValidation
	}
}

// IsNotFound сообщает, что заметки нет на сервере.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable сообщает, имеет ли смысл повторять запрос.
// Не повторяются 404 и прочие 4xx, кроме 408 и 429, а также отмена контекста.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation):
		return false
	case errors.Is(err, context.Canceled):
		return false
	}
	return true
}
