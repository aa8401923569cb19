package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/internal-crm/internal/api/dto"
	"github.com/spec-kit/internal-crm/internal/auth"
	"github.com/spec-kit/internal-crm/internal/domain"
	"github.com/spec-kit/internal-crm/internal/service"
	apperrors "github.com/spec-kit/internal-crm/pkg/util/errorutil"
)

// UsersHandler exposes the admin account directory.
type UsersHandler struct {
	service *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{service: authService}
}

// ListUsers GET /api/users?role=STAFF.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var role *domain.Role
	if raw := c.Query("role"); raw != "" {
		parsed := domain.Role(raw)
		role = &parsed
	}

	users, err := h.service.ListUsers(c.UserContext(), principal.Actor(), role)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.UserResponseOf(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
