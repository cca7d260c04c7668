// Package errs defines the business error taxonomy shared by the engine
// services. Services wrap a sentinel with a human-readable reason; the HTTP
// layer maps the sentinel to a status code and surfaces the reason verbatim
// so the calling UI can explain locked modules and exhausted attempts.
package errs

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrAttemptLimit      = errors.New("attempt limit exceeded")
	ErrContentIncomplete = errors.New("content incomplete")
	ErrConflict          = errors.New("conflict")
)

// Wrap attaches a formatted reason to a sentinel, keeping errors.Is working.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}

// StatusFor maps a business error to its HTTP status code. Unrecognized
// errors are treated as internal.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrAttemptLimit):
		return fiber.StatusTooManyRequests
	case errors.Is(err, ErrContentIncomplete):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
