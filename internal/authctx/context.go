// Package authctx reads the authenticated caller from a Fiber context.
package authctx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKey is the Locals key the JWT middleware stores the parsed token under.
const TokenKey = "user"

// AdminTokenKey is set when a request authenticated with the admin token.
const AdminTokenKey = "admin_token"

var (
	ErrNoToken    = errors.New("invalid token in context")
	ErrBadClaims  = errors.New("invalid claims")
	ErrMissingSub = errors.New("missing sub claim")
)

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals(TokenKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, ErrNoToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrBadClaims
	}
	return mc, nil
}

// GetUserID returns the user id carried in the "sub" claim. It must be a UUID.
func GetUserID(c *fiber.Ctx) (string, error) {
	mc, err := claims(c)
	if err != nil {
		return "", err
	}
	sub, ok := mc["sub"].(string)
	if !ok || sub == "" {
		return "", ErrMissingSub
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// GetRole returns the "role" claim, or "" when absent.
func GetRole(c *fiber.Ctx) string {
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	role, _ := mc["role"].(string)
	return role
}

// IsAdminToken reports whether the request presented the admin token.
func IsAdminToken(c *fiber.Ctx) bool {
	ok, _ := c.Locals(AdminTokenKey).(bool)
	return ok
}
