package middleware

import (
	"crypto/subtle"
	"slices"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

const adminTokenHeader = "X-Admin-Token"

// AdminAuth accepts either the configured admin token header or a valid JWT.
// It must run before AdminRequired.
func AdminAuth(cfg *config.Config) fiber.Handler {
	jwtCheck := JWTProtected(cfg)
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" {
			given := c.Get(adminTokenHeader)
			if given != "" && subtle.ConstantTimeCompare([]byte(given), []byte(cfg.AdminToken)) == 1 {
				c.Locals(authctx.AdminTokenKey, true)
				return c.Next()
			}
		}
		return jwtCheck(c)
	}
}

// AdminRequired admits the admin token, a user listed in ADMIN_USER_IDS, or a
// token carrying role "admin".
func AdminRequired(cfg *config.Config) fiber.Handler {
	adminIDs := cfg.AdminIDs()

	return func(c *fiber.Ctx) error {
		if authctx.IsAdminToken(c) {
			return c.Next()
		}

		userID, err := authctx.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if slices.Contains(adminIDs, userID) || authctx.GetRole(c) == "admin" {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}
