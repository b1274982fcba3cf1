// Package resilience содержит повтор с задержками и Circuit Breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nicenote/pkg/logger"
)

// RetryConfig содержит настройки повторов.
type RetryConfig struct {
	// MaxAttempts - максимальное количество попыток, включая первую.
	MaxAttempts int
	// Delays - явное расписание пауз: Delays[i] выдерживается после неудачной попытки i+1.
	// Если расписание короче, дальше используется экспоненциальный отступ.
	Delays []time.Duration
	// InitialBackoff - начальная задержка экспоненциального отступа.
	InitialBackoff time.Duration
	// MaxBackoff - верхняя граница задержки.
	MaxBackoff time.Duration
	// BackoffFactor - множитель экспоненциального отступа.
	BackoffFactor float64
	// ShouldRetry решает, стоит ли повторять после данной ошибки.
	ShouldRetry func(error) bool
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
		ShouldRetry:    defaultShouldRetry,
	}
}

// ErrContextCanceled возвращается, если контекст отменен во время ожидания.
var ErrContextCanceled = errors.New("context was canceled during retry")

func defaultShouldRetry(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Константы для логирования.
const (
	LogRetryAttempt     = "retry attempt failed, backing off"
	LogRetrySuccess     = "retry succeeded"
	LogRetryMaxAttempts = "retry max attempts reached"
	LogRetryPermanent   = "retry stopped on permanent error"
)

// Retry выполняет операцию с повторами.
type Retry struct {
	name   string
	config RetryConfig
}

// NewRetry создает механизм повторов. Пустые поля конфигурации заполняются значениями по умолчанию.
func NewRetry(name string, config RetryConfig) *Retry {
	def := DefaultRetryConfig()
	if config.MaxAttempts < 1 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = def.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = def.MaxBackoff
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = def.BackoffFactor
	}
	if config.ShouldRetry == nil {
		config.ShouldRetry = def.ShouldRetry
	}
	return &Retry{name: name, config: config}
}

// MaxAttempts возвращает число попыток.
func (r *Retry) MaxAttempts() int {
	return r.config.MaxAttempts
}

// Delay возвращает паузу после неудачной попытки с номером attempt (с единицы).
func (r *Retry) Delay(attempt int) time.Duration {
	if attempt <= len(r.config.Delays) {
		return r.config.Delays[attempt-1]
	}
	backoff := r.config.InitialBackoff
	for i := len(r.config.Delays) + 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * r.config.BackoffFactor)
		if backoff > r.config.MaxBackoff {
			return r.config.MaxBackoff
		}
	}
	return backoff
}

// Execute выполняет операцию с повторами.
func (r *Retry) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	_, err := Do(ctx, r, func(ctx context.Context, _ int) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}

// Do выполняет операцию с повторами и возвращает результат успешной попытки.
// После последней неудачи пауза не выдерживается.
func Do[T any](ctx context.Context, r *Retry, operation func(ctx context.Context, attempt int) (T, error)) (T, error) {
	log := logger.Log(ctx).With(zap.String("retry", r.name))

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := operation(ctx, attempt)
		if err == nil {
			if attempt > 1 {
				log.Info(ctx, LogRetrySuccess, zap.Int("attempts", attempt))
			}
			return result, nil
		}

		if !r.config.ShouldRetry(err) {
			log.Debug(ctx, LogRetryPermanent, zap.Int("attempt", attempt), zap.Error(err))
			return zero, err
		}

		if attempt >= r.config.MaxAttempts {
			log.Warn(ctx, LogRetryMaxAttempts, zap.Int("attempts", attempt), zap.Error(err))
			return zero, err
		}

		delay := r.Delay(attempt)
		log.Info(ctx, LogRetryAttempt,
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		}
	}
}
