package apperrors

import "errors"

// Sentinel errors for the order/invoice core. Callers classify failures with
// errors.Is and map them to transport-level responses.
var (
	ErrNotFound                  = errors.New("not found")
	ErrForbidden                 = errors.New("forbidden")
	ErrInsufficientStock         = errors.New("insufficient stock")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrIllegalState              = errors.New("operation not allowed in current state")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrDuplicateInvoice          = errors.New("invoice already exists for order")
	ErrDeliveryFailed            = errors.New("notification delivery failed")
	ErrConflict                  = errors.New("concurrent modification conflict")
	ErrQuantityLimit             = errors.New("quantity exceeds per-item limit")
	ErrDuplicateReview           = errors.New("review already exists for product")
)
