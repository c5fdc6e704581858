package middleware

import (
	"errors"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	var details interface{} = map[string]interface{}{}

	var domErr *domain.Error
	if errors.As(err, &domErr) {
		code = StatusForKind(domErr.Kind)
		message = domErr.Message
		if domErr.Details != nil {
			details = domErr.Details
		}
	} else if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, message, code, details)
}

// StatusForKind maps the business error taxonomy to HTTP status codes.
func StatusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindInvalidState:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindConflict, domain.KindIdempotencyConflict:
		return fiber.StatusConflict
	case domain.KindNotAuthorized:
		return fiber.StatusForbidden
	case domain.KindProviderFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondError maps a service error to the standard error envelope. Handlers
// call this instead of keeping per-message status maps.
func RespondError(c *fiber.Ctx, err error) error {
	var domErr *domain.Error
	if errors.As(err, &domErr) {
		var details interface{}
		if domErr.Details != nil {
			details = domErr.Details
		}
		return response.Error(c, domErr.Message, StatusForKind(domErr.Kind), details)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
