package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/spec-kit/request-analytics/internal/auth"
	"github.com/spec-kit/request-analytics/internal/config"
	"github.com/spec-kit/request-analytics/internal/domain"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates the analytics operator.
type AuthService struct {
	operator domain.Operator
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service. When no hash is configured the plain
// operator password is hashed once here; with neither set, login is disabled.
func NewAuthService(cfg config.AuthConfig) (*AuthService, error) {
	op := domain.Operator{Username: cfg.OperatorUsername, PasswordHash: cfg.OperatorPasswordHash}
	if op.PasswordHash == "" && cfg.OperatorPassword != "" {
		hash, err := auth.HashPassword(cfg.OperatorPassword, cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash operator password: %w", err)
		}
		op.PasswordHash = hash
	}
	return &AuthService{
		operator: op,
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}, nil
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// LoginEnabled reports whether operator credentials are configured.
func (s *AuthService) LoginEnabled() bool {
	return s.operator.Username != "" && s.operator.PasswordHash != ""
}

// LoginOperator checks the credentials and issues an operator token.
func (s *AuthService) LoginOperator(_ context.Context, username, password string) (domain.Token, error) {
	if !s.LoginEnabled() {
		return domain.Token{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.operator.Username)) != 1 {
		return domain.Token{}, ErrInvalidCredentials
	}
	if err := auth.ComparePassword(s.operator.PasswordHash, password); err != nil {
		return domain.Token{}, ErrInvalidCredentials
	}
	return s.tokenMgr.GenerateToken(s.operator.Username, domain.SubjectTypeOperator)
}
