package middleware

import (
	"context"
	"strings"

	"minifeed/internal/auth"
	"minifeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

const identityLocal = "identity"

// Resolver maps a bearer token to an identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (auth.Identity, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// SessionAuth resolves the caller on every request. Unknown tokens leave the
// caller Anonymous; a session store failure fails the request.
func SessionAuth(resolver Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := resolver.Resolve(c.UserContext(), BearerToken(c))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}

		c.Locals(identityLocal, id)
		if id.Authenticated() {
			c.Locals("userID", id.UserID)
			c.SetUserContext(WithUserID(c.UserContext(), id.UserID))
		}
		return c.Next()
	}
}

// RequireSession rejects Anonymous callers with 401.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IdentityFrom(c).Authenticated() {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity set by SessionAuth, Anonymous if none.
func IdentityFrom(c *fiber.Ctx) auth.Identity {
	id, _ := c.Locals(identityLocal).(auth.Identity)
	return id
}
