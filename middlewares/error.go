package middlewares

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/PauloMartins337/tnp-finance/chat"
	"github.com/PauloMartins337/tnp-finance/ledger"
)

// statusFor maps domain sentinels to HTTP status codes. This is the
// single place ledger/chat errors turn into responses.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, ledger.ErrUnauthenticated):
		return fiber.StatusUnauthorized, true
	case errors.Is(err, ledger.ErrReceiptNotFound), errors.Is(err, chat.ErrReceiverNotFound):
		return fiber.StatusNotFound, true
	case errors.Is(err, ledger.ErrDuplicateReceiptNumber):
		return fiber.StatusConflict, true
	case errors.Is(err, ledger.ErrReceiptClosed), errors.Is(err, ledger.ErrExceedsBalance):
		return fiber.StatusConflict, true
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrMissingField):
		return fiber.StatusUnprocessableEntity, true
	case errors.Is(err, ledger.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable, true
	}
	return 0, false
}

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Domain errors (ledger/chat sentinels)
	if code, ok := statusFor(err); ok {
		return c.Status(code).JSON(fiber.Map{"message": err.Error()})
	}

	// 2) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 3) Validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 4) Unknown errors (500)
	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
