// Package services описывает внешние сервисы, нужные заметкам.
package services

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidJWTToken = errors.New("invalid JWT token")
	ErrExpiredJWTToken = errors.New("JWT token has expired")
)

// Principal - владелец запроса, извлеченный из токена доступа.
type Principal struct {
	Subject string
	Issuer  string
	// ExpiresAt нулевое, если токен бессрочный.
	ExpiresAt time.Time
}

// TokenService проверяет Bearer-токен на входе в /notes.
type TokenService interface {
	ValidateAccessToken(ctx context.Context, token string) (Principal, error)
}
