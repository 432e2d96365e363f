package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-analytics/internal/api/dto"
	"github.com/spec-kit/request-analytics/internal/service"
	apperrors "github.com/spec-kit/request-analytics/pkg/util/errorutil"
)

// UsersHandler exposes user lookups.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return apperrors.NewUnprocessable("user id must be an integer", map[string]any{"id": raw})
	}

	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
