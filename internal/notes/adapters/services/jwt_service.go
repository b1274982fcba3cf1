// Package services содержит реализации сервисных портов.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"nicenote/internal/notes/ports/services"
	"nicenote/pkg/logger"
)

// Константы для работы с JWT.
const (
	methodValidateToken = "ServiceJWT.ValidateAccessToken"
	msgTokenValidated   = "token validated"
	msgTokenExpired     = "token has expired"
	msgErrParsingToken  = "error parsing token" //nolint:gosec
	msgEmptySubject     = "token subject is empty"
	errCtxValidating    = "validating token"
	errCtxSigning       = "signing token"
)

// Claims - набор утверждений токена доступа. Владелец берется из sub, user_id поддерживается для старых токенов.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) owner() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// ServiceJWT реализует services.TokenService на HMAC-подписи.
type ServiceJWT struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

// Option настраивает ServiceJWT.
type Option func(*ServiceJWT)

// WithIssuer требует совпадения claim iss.
func WithIssuer(issuer string) Option {
	return func(s *ServiceJWT) { s.issuer = issuer }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *ServiceJWT) { s.now = now }
}

// NewJWT создает сервис проверки токенов.
func NewJWT(secretKey string, opts ...Option) *ServiceJWT {
	s := &ServiceJWT{secretKey: []byte(secretKey), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateAccessToken проверяет токен и возвращает его владельца.
func (s *ServiceJWT) ValidateAccessToken(ctx context.Context, tokenString string) (services.Principal, error) {
	log := logger.Log(ctx).With(zap.String("method", methodValidateToken))

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secretKey, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug(ctx, msgTokenExpired)
			return services.Principal{}, fmt.Errorf("%s: %w", errCtxValidating, services.ErrExpiredJWTToken)
		}
		log.Debug(ctx, msgErrParsingToken, zap.Error(err))
		return services.Principal{}, fmt.Errorf("%s: %w", errCtxValidating, services.ErrInvalidJWTToken)
	}

	owner := claims.owner()
	if owner == "" {
		log.Debug(ctx, msgEmptySubject)
		return services.Principal{}, fmt.Errorf("%s: %w", errCtxValidating, services.ErrInvalidJWTToken)
	}

	principal := services.Principal{Subject: owner, Issuer: claims.Issuer}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	log.Debug(ctx, msgTokenValidated, zap.String("subject", owner))
	return principal, nil
}

// IssueAccessToken подписывает токен для subject со сроком жизни ttl.
func (s *ServiceJWT) IssueAccessToken(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtxSigning, err)
	}
	return signed, nil
}
