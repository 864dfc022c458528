package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PrincipalLocalKey is the key under which Auth stores the authenticated principal ID.
const PrincipalLocalKey = "principal_id"

// TokenVerifier turns a bearer token into a principal ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Auth rejects requests without a valid "Authorization: Bearer <token>" header.
// The error is returned as a 401 fiber.Error and rendered by the app's ErrorHandler.
func Auth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "not authorized, no token")
		}

		principalID, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "not authorized, token failed")
		}
		c.Locals(PrincipalLocalKey, principalID)
		return c.Next()
	}
}

// PrincipalID returns the principal stored by Auth, or "".
func PrincipalID(c *fiber.Ctx) string {
	id, _ := c.Locals(PrincipalLocalKey).(string)
	return id
}
