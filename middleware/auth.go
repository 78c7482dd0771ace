package middleware

import (
	"os"
	"strconv"

	"Motorpool/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const (
	RoleDriver     = "driver"
	RoleSupervisor = "supervisor"
)

// Claims carries the authenticated caller identity and, for supervisors, the
// location scope every query is bound to.
type Claims struct {
	Role     string `json:"role"`
	Location string `json:"location,omitempty"`
	jwt.RegisteredClaims
}

func SecretKey() []byte {
	if key := os.Getenv("JWT_SECRET"); key != "" {
		return []byte(key)
	}
	return []byte("secret")
}

// Verify authenticates the request and, if requiredRole is non-empty,
// enforces it. The caller identity is stored in locals for the handlers:
// "userID", "role", "userName" and, for supervisors, "location".
func Verify(db *gorm.DB, requiredRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("jwt")
		if token == "" {
			// Mobile clients send the token as a bearer header instead
			auth := c.Get("Authorization")
			if len(auth) > 7 && auth[:7] == "Bearer " {
				token = auth[7:]
			}
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not Logged In.",
			})
		}

		parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
			return SecretKey(), nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token claims",
			})
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token claims",
			})
		}

		switch claims.Role {
		case RoleDriver:
			var driver Models.Driver
			if err := db.First(&driver, userID).Error; err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "User not found",
				})
			}
			c.Locals("userName", driver.FullName())
		case RoleSupervisor:
			var supervisor Models.Supervisor
			if err := db.First(&supervisor, userID).Error; err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "User not found",
				})
			}
			c.Locals("userName", supervisor.FullName())
			// The token's location claim may lag a reassignment; trust the row.
			c.Locals("location", supervisor.Location)
		default:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token claims",
			})
		}

		c.Locals("userID", uint(userID))
		c.Locals("role", claims.Role)

		if requiredRole != "" && claims.Role != requiredRole {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Insufficient permissions to access this resource",
			})
		}
		return c.Next()
	}
}
