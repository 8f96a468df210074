// middleware/auth.go
package middleware

import (
	"errors"
	"log"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID    = "user_id"
	LocalUserRoles = "user_roles"
)

// MemberClaims is the payload of a member token: the subject is the member id.
type MemberClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// UserContextMiddleware extracts the member identity and roles.
// The Gateway normally forwards X-User-ID and X-User-Roles; when secret is
// set, a signed X-Member-Token (HS256) is accepted as well and wins over
// the plain headers.
func UserContextMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		roles := splitRoles(c.Get("X-User-Roles"))

		if raw := c.Get("X-Member-Token"); raw != "" && secret != "" {
			claims, err := ParseMemberToken(raw, secret)
			if err != nil {
				log.Printf("❌ [USER_CTX] Rejected member token on %s: %v", c.Path(), err)
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid member token",
				})
			}
			userID = claims.Subject
			roles = claims.Roles
		}

		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserRoles, roles)
		return c.Next()
	}
}

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		held, _ := c.Locals(LocalUserRoles).([]string)
		for _, r := range held {
			if slices.Contains(roles, r) {
				return c.Next()
			}
		}
		log.Printf("🚫 [USER_CTX] %v lacks %v for %s", c.Locals(LocalUserID), roles, c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient role",
		})
	}
}

// UserID returns the member id set by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

// ParseMemberToken verifies an HS256 member token.
func ParseMemberToken(raw, secret string) (*MemberClaims, error) {
	var claims MemberClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("member token has no subject")
	}
	return &claims, nil
}

func splitRoles(s string) []string {
	var roles []string
	for _, r := range strings.Split(s, ",") {
		r = strings.TrimSpace(r)
		if r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
