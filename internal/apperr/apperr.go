// Package apperr defines the error taxonomy shared by storage, services and
// the HTTP layer.
package apperr

import "github.com/gofiber/fiber/v2"

// Code is a machine-readable error category.
type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeForbidden       Code = "FORBIDDEN"
	CodeConflict        Code = "CONFLICT"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus maps a code to the status the API layer responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeConflict, CodeInvalidState:
		return fiber.StatusConflict
	case CodeInvalidArgument:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// Error is a typed failure. Two errors are equal under errors.Is when their
// codes match, so callers can test against the category sentinels below.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error with a code that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Category sentinels.
var (
	ErrNotFound        = New(CodeNotFound, "not found")
	ErrForbidden       = New(CodeForbidden, "forbidden")
	ErrConflict        = New(CodeConflict, "conflict")
	ErrInvalidArgument = New(CodeInvalidArgument, "invalid argument")
	ErrInvalidState    = New(CodeInvalidState, "invalid state")
	ErrInternal        = New(CodeInternal, "internal error")
)

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return CodeInternal
}
