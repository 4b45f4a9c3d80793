package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/dto"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// parseBody decodes and validates the JSON body into req. On failure it has
// already written the 400 response and returns errHandled.
func parseBody(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return badRequest(c, "Invalid field "+strings.ToLower(fe.Field())+": "+fe.Tag())
		}
		return badRequest(c, "Invalid request body")
	}
	return nil
}

var errHandled = errors.New("response already written")

func badRequest(c *fiber.Ctx, msg string) error {
	if err := c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg, Code: string(apperr.CodeInvalidArgument),
	}); err != nil {
		return err
	}
	return errHandled
}

// done swallows errHandled so handlers can return it directly.
func done(err error) error {
	if errors.Is(err, errHandled) {
		return nil
	}
	return err
}

// respondError writes err as a JSON error with the status of its code.
// Internal errors are logged and their message hidden.
func respondError(c *fiber.Ctx, err error) error {
	code := apperr.CodeOf(err)
	msg := err.Error()
	if code == apperr.CodeInternal {
		slog.ErrorContext(c.UserContext(), "request failed",
			"error", err, "method", c.Method(), "path", c.Path())
		msg = "Internal server error"
	}
	return c.Status(code.HTTPStatus()).JSON(dto.ErrorResponse{
		Error: true, Message: msg, Code: string(code),
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

// currentUser returns the caller id or writes a 401.
func currentUser(c *fiber.Ctx) (string, error) {
	id, err := authctx.GetUserID(c)
	if err != nil {
		if werr := unauthorized(c); werr != nil {
			return "", werr
		}
		return "", errHandled
	}
	return id, nil
}

// idParam returns the named path parameter as a canonical UUID. "me" resolves
// to the caller when allowMe is set.
func idParam(c *fiber.Ctx, name string, allowMe bool) (string, error) {
	raw := c.Params(name)
	if allowMe && raw == "me" {
		return currentUser(c)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", badRequest(c, "Invalid "+name)
	}
	return id.String(), nil
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageSize)))
	offset, _ = strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
