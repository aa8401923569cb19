package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/internal-crm/internal/domain"
	apperrors "github.com/spec-kit/internal-crm/pkg/util/errorutil"
)

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("forbidden for your role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures the caller is logged in, any role.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}
