package handlers

import (
	"errors"

	"gerai/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// errorKinds maps domain sentinels to an HTTP status and a machine-checkable
// kind string for the response envelope.
var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{apperrors.ErrNotFound, fiber.StatusNotFound, "not_found"},
	{apperrors.ErrForbidden, fiber.StatusForbidden, "forbidden"},
	{apperrors.ErrInsufficientStock, fiber.StatusUnprocessableEntity, "insufficient_stock"},
	{apperrors.ErrInvalidTransition, fiber.StatusUnprocessableEntity, "invalid_transition"},
	{apperrors.ErrIllegalState, fiber.StatusUnprocessableEntity, "illegal_state"},
	{apperrors.ErrPaymentVerificationFailed, fiber.StatusBadGateway, "payment_verification_failed"},
	{apperrors.ErrDuplicateInvoice, fiber.StatusConflict, "duplicate_invoice"},
	{apperrors.ErrConflict, fiber.StatusConflict, "conflict"},
	{apperrors.ErrQuantityLimit, fiber.StatusUnprocessableEntity, "quantity_limit"},
	{apperrors.ErrDuplicateReview, fiber.StatusConflict, "duplicate_review"},
}

// respondError writes the failure envelope for a service error. Unclassified
// errors become a generic 500 without leaking internals; the caller is
// expected to have logged the full error already.
func respondError(c *fiber.Ctx, err error, fallbackMessage string) error {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return c.Status(k.status).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
				"error":   k.kind,
			})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": fallbackMessage,
		"error":   "internal",
	})
}
