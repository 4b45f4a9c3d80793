package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError_MapsCodes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", services.ErrPostNotFound, fiber.StatusNotFound, services.ErrPostNotFound.Error()},
		{"forbidden", services.ErrBlocked, fiber.StatusForbidden, services.ErrBlocked.Error()},
		{"conflict", services.ErrFollowRequestExist, fiber.StatusConflict, services.ErrFollowRequestExist.Error()},
		{"invalid state", services.ErrRequestResolved, fiber.StatusConflict, services.ErrRequestResolved.Error()},
		{"invalid argument", services.ErrSelfFollow, fiber.StatusBadRequest, services.ErrSelfFollow.Error()},
		{"internal hidden", errors.New("connection reset"), fiber.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query         string
		limit, offset int
	}{
		{"", defaultPageSize, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=1000", maxPageSize, 0},
		{"?limit=-3&offset=-1", defaultPageSize, 0},
		{"?limit=abc", defaultPageSize, 0},
	}
	for _, tt := range tests {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			limit, offset := pagination(c)
			assert.Equal(t, tt.limit, limit, tt.query)
			assert.Equal(t, tt.offset, offset, tt.query)
			return c.SendStatus(fiber.StatusNoContent)
		})
		_, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
		require.NoError(t, err)
	}
}

func TestParseBody_Validation(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var req dto.TextRequest
		if err := parseBody(c, &req); err != nil {
			return done(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	for body, status := range map[string]int{
		`{"text":"hello"}`: fiber.StatusNoContent,
		`{"text":"  "}`:    fiber.StatusBadRequest,
		`{}`:               fiber.StatusBadRequest,
		`not json`:         fiber.StatusBadRequest,
	} {
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode, body)
	}
}
