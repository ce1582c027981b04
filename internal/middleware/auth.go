package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-weather-recommender/internal/auth"
)

const (
	emailKey  = "session_email"
	claimsKey = "session_claims"
)

// ErrorBody is the JSON error shape written by middleware.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Accounts resolves a session's account id to the account's current email.
type Accounts interface {
	EmailForID(id string) (string, bool)
}

// RequireSession rejects requests without a valid bearer session token or whose
// account no longer exists, and stores the account's current email for handlers.
func RequireSession(sessions *auth.Sessions, accounts Accounts) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return unauthorized(c, "missing Authorization header")
		}
		if !strings.HasPrefix(header, "Bearer ") {
			return unauthorized(c, "invalid Authorization header format, expected 'Bearer <token>'")
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			return unauthorized(c, "empty bearer token")
		}

		claims, err := sessions.Verify(c.Context(), token)
		if err != nil {
			return unauthorized(c, auth.ErrInvalidToken.Error())
		}

		email, ok := accounts.EmailForID(claims.Subject)
		if !ok {
			return unauthorized(c, "account no longer exists")
		}

		c.Locals(emailKey, email)
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// Email returns the signed-in email set by RequireSession.
func Email(c fiber.Ctx) string {
	email, _ := c.Locals(emailKey).(string)
	return email
}

// Claims returns the session claims set by RequireSession.
func Claims(c fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(claimsKey).(*auth.Claims)
	return claims
}

func unauthorized(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorBody{Error: msg, Code: "UNAUTHORIZED"})
}
