package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gerai/internal/apperrors"
	"gerai/internal/models"

	"github.com/google/uuid"
)

// MockReviewRepository is an in-memory implementation of ReviewRepository.
// Create enforces the same product+buyer uniqueness as the SQL index.
type MockReviewRepository struct {
	reviews map[string]models.Review
	mu      sync.RWMutex
}

// NewMockReviewRepository creates a new instance of MockReviewRepository.
func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{
		reviews: make(map[string]models.Review),
	}
}

// GetByID returns a review by its ID.
func (r *MockReviewRepository) GetByID(id string) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review with ID %s: %w", id, apperrors.ErrNotFound)
	}
	return &review, nil
}

// GetByProduct returns a product's reviews, newest first.
func (r *MockReviewRepository) GetByProduct(productID string, approvedOnly bool) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reviews []models.Review
	for _, review := range r.reviews {
		if review.ProductID != productID {
			continue
		}
		if approvedOnly && review.Status != models.ReviewApproved {
			continue
		}
		reviews = append(reviews, review)
	}
	sortReviewsNewestFirst(reviews)
	return reviews, nil
}

// GetByBuyer returns all reviews written by a buyer, newest first.
func (r *MockReviewRepository) GetByBuyer(buyerID string) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reviews []models.Review
	for _, review := range r.reviews {
		if review.BuyerID == buyerID {
			reviews = append(reviews, review)
		}
	}
	sortReviewsNewestFirst(reviews)
	return reviews, nil
}

// Create adds a new review, enforcing one review per buyer per product.
func (r *MockReviewRepository) Create(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews {
		if existing.ProductID == review.ProductID && existing.BuyerID == review.BuyerID {
			return fmt.Errorf("product %s, buyer %s: %w",
				review.ProductID, review.BuyerID, apperrors.ErrDuplicateReview)
		}
	}
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	r.reviews[review.ID] = *review
	return nil
}

// Update replaces an existing review.
func (r *MockReviewRepository) Update(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[review.ID]; !ok {
		return fmt.Errorf("review with ID %s not found for update: %w", review.ID, apperrors.ErrNotFound)
	}
	r.reviews[review.ID] = *review
	return nil
}

// Delete removes a review by its ID.
func (r *MockReviewRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[id]; !ok {
		return fmt.Errorf("review with ID %s not found for deletion: %w", id, apperrors.ErrNotFound)
	}
	delete(r.reviews, id)
	return nil
}

func sortReviewsNewestFirst(reviews []models.Review) {
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
}
