package repositories

import (
	"errors"
	"fmt"

	"gerai/internal/apperrors"
	"gerai/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{
		db: db,
	}
}

// GetByID retrieves a single review by its ID from the database.
func (r *GORMReviewRepository) GetByID(id string) (*models.Review, error) {
	var review models.Review
	if err := r.db.First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review by ID %s: %w", id, err)
	}
	return &review, nil
}

// GetByProduct retrieves a product's reviews, newest first.
func (r *GORMReviewRepository) GetByProduct(productID string, approvedOnly bool) ([]models.Review, error) {
	query := r.db.Where("product_id = ?", productID)
	if approvedOnly {
		query = query.Where("status = ?", models.ReviewApproved)
	}
	var reviews []models.Review
	if err := query.Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to get reviews for product %s: %w", productID, err)
	}
	return reviews, nil
}

// GetByBuyer retrieves all reviews written by a buyer, newest first.
func (r *GORMReviewRepository) GetByBuyer(buyerID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.Where("buyer_id = ?", buyerID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to get reviews for buyer %s: %w", buyerID, err)
	}
	return reviews, nil
}

// Create inserts a new review. The unique product+buyer index is the real
// one-review-per-product guard; a violation surfaces as ErrDuplicateReview.
func (r *GORMReviewRepository) Create(review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product %s, buyer %s: %w",
				review.ProductID, review.BuyerID, apperrors.ErrDuplicateReview)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// Update updates an existing review in the database.
func (r *GORMReviewRepository) Update(review *models.Review) error {
	res := r.db.Save(review)
	if res.Error != nil {
		return fmt.Errorf("failed to update review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("review with ID %s not found for update: %w", review.ID, apperrors.ErrNotFound)
	}
	return nil
}

// Delete removes a review by its ID.
func (r *GORMReviewRepository) Delete(id string) error {
	res := r.db.Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete review %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("review with ID %s not found for deletion: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
