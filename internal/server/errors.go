package server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/face-teller/face_teller/internal/challenge"
	"github.com/face-teller/face_teller/internal/customer"
	"github.com/face-teller/face_teller/internal/face"
	"github.com/face-teller/face_teller/internal/sms"
	"github.com/face-teller/face_teller/internal/withdrawal"
)

// ErrorHandler renders every error as a structured JSON body with a stable
// error kind and a human-readable message. Domain sentinel errors map to
// their taxonomy entry; internal detail is never leaked to the caller.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, kind, message := http.StatusInternalServerError, "internal", "internal server error"

	switch {
	case errors.Is(err, customer.ErrInvalid),
		errors.Is(err, withdrawal.ErrInvalidAmount),
		errors.Is(err, face.ErrDecode):
		status, kind, message = http.StatusBadRequest, "validation", err.Error()
	case errors.Is(err, customer.ErrNotFound),
		errors.Is(err, challenge.ErrNotFound):
		status, kind, message = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, customer.ErrPhoneExists),
		errors.Is(err, customer.ErrCustomerIDTaken):
		status, kind, message = http.StatusConflict, "conflict", err.Error()
	case errors.Is(err, customer.ErrInsufficientBalance):
		status, kind, message = http.StatusBadRequest, "insufficient_balance", err.Error()
	case errors.Is(err, withdrawal.ErrBelowMinLimit):
		status, kind, message = http.StatusBadRequest, "min_limit", err.Error()
	case errors.Is(err, challenge.ErrExpired):
		status, kind, message = http.StatusBadRequest, "expired", err.Error()
	case errors.Is(err, challenge.ErrMismatch):
		status, kind, message = http.StatusBadRequest, "mismatch", err.Error()
	case errors.Is(err, withdrawal.ErrOutOfOrder):
		status, kind, message = http.StatusConflict, "unauthorized_state", err.Error()
	case errors.Is(err, face.ErrNoReference):
		status, kind, message = http.StatusNotFound, "no_reference", err.Error()
	case errors.Is(err, face.ErrOracle):
		status, kind, message = http.StatusBadGateway, "oracle", err.Error()
	case errors.Is(err, sms.ErrTransport):
		status, kind, message = http.StatusBadGateway, "transport", err.Error()
	default:
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status, kind, message = fiberErr.Code, kindForStatus(fiberErr.Code), fiberErr.Message
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"kind":  kind,
	})
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "error"
	}
}
