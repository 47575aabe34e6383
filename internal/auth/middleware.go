package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/meal-marketplace/internal/domain"
	apperrors "github.com/spec-kit/meal-marketplace/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// Identity is the authenticated subject resolved from a verified token.
type Identity struct {
	UserID string
	Role   domain.Role
}

// IsAdmin reports whether the identity bypasses ownership checks.
func (i Identity) IsAdmin() bool {
	return i.Role == domain.RoleAdmin
}

// Guard authenticates bearer tokens and threads the resolved identity
// into the request context for downstream handlers.
type Guard struct {
	tokens *TokenManager
}

// NewGuard constructs the guard.
func NewGuard(tokens *TokenManager) *Guard {
	return &Guard{tokens: tokens}
}

// Authenticate enforces authentication for protected routes. Failure to
// establish identity is always UNAUTHORIZED, never FORBIDDEN.
func (g *Guard) Authenticate(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	identity, err := g.tokens.Verify(parts[1])
	if err != nil {
		return apperrors.NewInvalidToken()
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (*Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*Identity)
	return identity, ok
}
