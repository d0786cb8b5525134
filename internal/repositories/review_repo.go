package repositories

import (
	"gerai/internal/models"
)

// ReviewRepository defines the interface for review data access. Create is
// guarded by the unique product+buyer index so a buyer cannot review the
// same product twice; a violation fails with apperrors.ErrDuplicateReview.
type ReviewRepository interface {
	GetByID(id string) (*models.Review, error)
	// GetByProduct returns a product's reviews, optionally restricted to
	// approved ones, newest first.
	GetByProduct(productID string, approvedOnly bool) ([]models.Review, error)
	GetByBuyer(buyerID string) ([]models.Review, error)
	Create(review *models.Review) error
	Update(review *models.Review) error
	Delete(id string) error
}
