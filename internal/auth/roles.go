package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/meal-marketplace/internal/domain"
	apperrors "github.com/spec-kit/meal-marketplace/pkg/util/errorutil"
)

// RequireRole ensures the authenticated identity holds one of the
// allowed roles. Identity absent is UNAUTHORIZED; insufficient role is
// FORBIDDEN. Ownership checks stay with the services; role membership
// alone never grants access to another owner's house.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a caller is authenticated without
// constraining the role.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}
