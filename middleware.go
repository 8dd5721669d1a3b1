package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClaimsContextKey is the ctx locals key the guard stores validated
// claims under.
const ClaimsContextKey = "auth_claims"

// NewBearerGuard returns a middleware that requires a valid access
// token in the Authorization header. Validated claims are stashed in
// ctx locals for downstream handlers; no store lookup happens here.
func NewBearerGuard(tokens TokenService, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx) error {
		raw := extractBearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return RespondError(c, logger, ErrUnauthorized)
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			if IsTokenExpiredError(err) {
				return RespondError(c, logger, ErrTokenExpired)
			}
			return RespondError(c, logger, ErrTokenMalformed)
		}

		c.Locals(ClaimsContextKey, claims)

		return c.Next()
	}
}

// ClaimsFromContext retrieves the claims the guard stored.
func ClaimsFromContext(c *fiber.Ctx) (*TokenClaims, error) {
	claims, ok := c.Locals(ClaimsContextKey).(*TokenClaims)
	if !ok || claims == nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
