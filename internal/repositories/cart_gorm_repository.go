package repositories

import (
	"errors"
	"fmt"

	"gerai/internal/apperrors"
	"gerai/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByBuyer retrieves the buyer's cart from the database.
func (r *GORMCartRepository) GetByBuyer(buyerID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.First(&cart, "buyer_id = ?", buyerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for buyer %s: %w", buyerID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart for buyer %s: %w", buyerID, err)
	}
	return &cart, nil
}

// Save persists the cart, assigning an ID on first write.
func (r *GORMCartRepository) Save(cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if err := r.db.Save(cart).Error; err != nil {
		return fmt.Errorf("failed to save cart for buyer %s: %w", cart.BuyerID, err)
	}
	return nil
}
