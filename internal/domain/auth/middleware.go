package auth

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Anvoria/blogly/internal/domain/admin"
	"github.com/Anvoria/blogly/internal/utils"
	"github.com/gofiber/fiber/v2"
)

const (
	// IdentityKey is the key used to store the identity in Fiber context
	IdentityKey = "identity"
)

// Middleware attaches the caller's Identity when a valid bearer token is present.
// Requests without a usable token continue anonymously.
func Middleware(keyStore *KeyStore, issuer string, expectedAudience []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			slog.Debug("Ignoring malformed authorization header")
			return c.Next()
		}

		claims, err := keyStore.Verify(strings.TrimSpace(token))
		if err != nil {
			slog.Debug("Ignoring unverifiable token", "error", err)
			return c.Next()
		}
		if err := claims.Validate(issuer, expectedAudience, time.Now()); err != nil {
			slog.Debug("Ignoring invalid token", "error", err)
			return c.Next()
		}

		c.Locals(IdentityKey, &Identity{
			UserID: claims.Subject(),
			Email:  claims.Email(),
		})
		return c.Next()
	}
}

// GetIdentity extracts the identity from Fiber context, nil for anonymous callers
func GetIdentity(c *fiber.Ctx) *Identity {
	identity, ok := c.Locals(IdentityKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// RequireAdmin rejects callers that are not in the admin registry
func RequireAdmin(admins admin.Checker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := GetIdentity(c)
		if identity == nil {
			return utils.ErrorResponse(c, utils.ErrUnauthorized)
		}

		ok, err := admins.IsAdmin(c.UserContext(), identity.UserID)
		if err != nil {
			slog.Error("Admin check failed", "user_id", identity.UserID, "error", err)
			return utils.ErrorResponse(c, utils.ErrInternalServer)
		}
		if !ok {
			return utils.ErrorResponse(c, utils.ErrForbidden)
		}

		return c.Next()
	}
}
