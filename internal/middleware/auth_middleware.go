package middleware

import (
	"strings"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID    = "user_id"
	LocalUserName  = "user_name"
	LocalUserEmail = "user_email"
	LocalUserRole  = "user_role"
)

// RequireAuth validates the bearer token and sets user info in context.
// Browsers cannot set headers on a websocket handshake, so a "token" query
// parameter is accepted as well.
func RequireAuth(tokens *jwt.Manager, userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Query("token")
		if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		user, err := userRepo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
		}
		if !user.IsActive {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User account is inactive"})
		}

		// role comes from the database so demotions apply before the token expires
		c.Locals(LocalUserID, user.ID.String())
		c.Locals(LocalUserEmail, user.Email)
		c.Locals(LocalUserName, user.Name)
		c.Locals(LocalUserRole, user.Role)

		return c.Next()
	}
}

// RequireRole allows the request through when the user holds one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalUserRole).(string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No role found"})
		}

		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(roles, ", ") + " roles",
		})
	}
}
