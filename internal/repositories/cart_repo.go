package repositories

import (
	"gerai/internal/models"
)

// CartRepository defines the interface for cart data access. Each buyer has
// at most one cart, keyed by buyer ID.
type CartRepository interface {
	// GetByBuyer returns the buyer's cart, or apperrors.ErrNotFound when
	// none exists yet.
	GetByBuyer(buyerID string) (*models.Cart, error)
	// Save persists the cart, creating it on first write.
	Save(cart *models.Cart) error
}
