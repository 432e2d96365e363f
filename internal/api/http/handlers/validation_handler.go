package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-analytics/internal/api/dto"
	"github.com/spec-kit/request-analytics/internal/domain"
	"github.com/spec-kit/request-analytics/internal/validation"
	apperrors "github.com/spec-kit/request-analytics/pkg/util/errorutil"
)

// ValidationHandler exposes the field validators.
type ValidationHandler struct{}

// NewValidationHandler constructs handler.
func NewValidationHandler() *ValidationHandler {
	return &ValidationHandler{}
}

// Email handles POST /validate/email.
func (h *ValidationHandler) Email(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if req.Email == nil {
		return missingField("email")
	}
	return c.JSON(domain.NewValidationResult(validation.Email(*req.Email)))
}

// Password handles POST /validate/password.
func (h *ValidationHandler) Password(c *fiber.Ctx) error {
	var req dto.PasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if req.Password == nil {
		return missingField("password")
	}
	return c.JSON(domain.NewValidationResult(validation.Password(*req.Password)))
}

// Username handles POST /validate/username. Markup is stripped before the
// rules run.
func (h *ValidationHandler) Username(c *fiber.Ctx) error {
	var req dto.UsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if req.Username == nil {
		return missingField("username")
	}
	return c.JSON(domain.NewValidationResult(validation.Username(validation.Sanitize(*req.Username))))
}

func missingField(name string) error {
	return apperrors.NewUnprocessable("field required", map[string]any{"field": name})
}
