package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"clientdocs/internal/apperror"
	"clientdocs/internal/http/middleware"
)

// envelope is the uniform response body of every endpoint.
type envelope struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message,omitempty"`
	Code      string                `json:"code,omitempty"`
	RequestID string                `json:"request_id,omitempty"`
	Data      any                   `json:"data,omitempty"`
	Count     *int                  `json:"count,omitempty"`
	Errors    []apperror.FieldError `json:"errors,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func writeData(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(envelope{Success: true, Message: message, Data: data})
}

func writeList(c *fiber.Ctx, data any, count int) error {
	return c.Status(fiber.StatusOK).JSON(envelope{Success: true, Data: data, Count: &count})
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string, fields ...apperror.FieldError) error {
	return c.Status(status).JSON(envelope{
		Success:   false,
		Message:   message,
		Code:      code,
		RequestID: requestIDFromCtx(c),
		Errors:    fields,
	})
}

// writeAppError renders err by its kind. Only the safe message of an *apperror.Error
// reaches the client; anything else becomes a generic 500.
func writeAppError(c *fiber.Ctx, err error) error {
	kind := apperror.KindOf(err)
	status, code := statusFor(kind)
	message := apperror.MessageOf(err, "internal server error")
	if kind == apperror.KindInternal {
		message = "internal server error"
	}
	return writeError(c, status, code, message, apperror.FieldsOf(err)...)
}

func statusFor(kind apperror.Kind) (int, string) {
	switch kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest, "VALIDATION_ERROR"
	case apperror.KindUnauthorized:
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case apperror.KindForbidden:
		return fiber.StatusForbidden, "FORBIDDEN"
	case apperror.KindNotFound:
		return fiber.StatusNotFound, "NOT_FOUND"
	case apperror.KindConflict:
		return fiber.StatusConflict, "CONFLICT"
	case apperror.KindConsistency:
		return fiber.StatusGone, "FILE_MISSING"
	case apperror.KindDependency:
		return fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return writeAppError(c, err)
		}

		switch fe.Code {
		case fiber.StatusBadRequest:
			return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, fe.Code, "UNAUTHORIZED", fe.Message)
		case fiber.StatusNotFound:
			return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, fe.Code, "FILE_TOO_LARGE", "request body too large")
		default:
			return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
		}
	}
}
