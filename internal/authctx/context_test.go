package authctx

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, token *jwt.Token, check func(c *fiber.Ctx) error) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if token != nil {
			c.Locals(TokenKey, token)
		}
		return check(c)
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetUserID(t *testing.T) {
	const sub = "0b7e3c1a-5d54-4f6c-9a8e-2f3a4b5c6d7e"
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub, "role": "admin"})

	run(t, token, func(c *fiber.Ctx) error {
		id, err := GetUserID(c)
		assert.NoError(t, err)
		assert.Equal(t, sub, id)
		assert.Equal(t, "admin", GetRole(c))
		return c.SendStatus(fiber.StatusOK)
	})
}

func TestGetUserID_Failures(t *testing.T) {
	run(t, nil, func(c *fiber.Ctx) error {
		_, err := GetUserID(c)
		assert.ErrorIs(t, err, ErrNoToken)
		assert.Empty(t, GetRole(c))
		assert.False(t, IsAdminToken(c))
		return c.SendStatus(fiber.StatusOK)
	})

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "user"})
	run(t, noSub, func(c *fiber.Ctx) error {
		_, err := GetUserID(c)
		assert.ErrorIs(t, err, ErrMissingSub)
		return c.SendStatus(fiber.StatusOK)
	})

	badSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "not-a-uuid"})
	run(t, badSub, func(c *fiber.Ctx) error {
		_, err := GetUserID(c)
		assert.Error(t, err)
		return c.SendStatus(fiber.StatusOK)
	})
}
