package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-analytics/internal/api/dto"
	"github.com/spec-kit/request-analytics/internal/service"
	apperrors "github.com/spec-kit/request-analytics/pkg/util/errorutil"
)

// AuthHandler issues operator tokens.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// OperatorLogin handles POST /auth/operator/login.
func (h *AuthHandler) OperatorLogin(c *fiber.Ctx) error {
	var req dto.OperatorLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return apperrors.NewBadRequest("username and password required")
	}

	token, err := h.auth.LoginOperator(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return apperrors.NewUnauthorized(err.Error())
		}
		return apperrors.NewInternalError(err)
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token.Value, TokenType: "Bearer", ExpiresAt: token.ExpiresAt},
	})
}
