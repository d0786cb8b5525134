package services

import (
	"fmt"
	"time"

	"gerai/internal/apperrors"
	"gerai/internal/models"
	"gerai/internal/repositories"
)

// CreateReviewInput is the validated request to review a product.
type CreateReviewInput struct {
	ProductID string `json:"product_id" validate:"required"`
	OrderID   string `json:"order_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title     string `json:"title" validate:"required,min=5,max=100"`
	Comment   string `json:"comment" validate:"required,min=10,max=1000"`
}

// UpdateReviewInput carries the editable fields of a review. Zero values
// leave the field unchanged.
type UpdateReviewInput struct {
	Rating  int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Title   string `json:"title" validate:"omitempty,min=5,max=100"`
	Comment string `json:"comment" validate:"omitempty,min=10,max=1000"`
}

// ProductReviews bundles a product's approved reviews with the aggregate.
type ProductReviews struct {
	Reviews []models.Review      `json:"reviews"`
	Stats   models.RatingSummary `json:"stats"`
}

// ReviewService handles business logic for product reviews. Reviews start
// pending; moderation approves or rejects them. Rating aggregation is not
// done here: approval publishes a review.approved event and the rating
// aggregator consumes it, so ordering and failure handling stay visible.
type ReviewService struct {
	reviewRepo  repositories.ReviewRepository
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   EventPublisher
}

// NewReviewService creates a new ReviewService. publisher may be nil, in
// which case event publication is skipped.
func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	publisher EventPublisher,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
	}
}

// CreateReview records a pending review. The buyer must have a delivered
// order containing the product; a second review of the same product fails
// with ErrDuplicateReview.
func (s *ReviewService) CreateReview(buyerID string, input CreateReviewInput) (*models.Review, error) {
	if _, err := s.productRepo.GetByID(input.ProductID); err != nil {
		return nil, fmt.Errorf("product %s: %w", input.ProductID, err)
	}

	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, fmt.Errorf("order %s does not belong to caller: %w", input.OrderID, apperrors.ErrForbidden)
	}
	if order.Status != models.OrderDelivered || !orderContainsProduct(order, input.ProductID) {
		return nil, fmt.Errorf("product %s was not delivered in order %s: %w",
			input.ProductID, input.OrderID, apperrors.ErrIllegalState)
	}

	review := &models.Review{
		ProductID: input.ProductID,
		BuyerID:   buyerID,
		OrderID:   input.OrderID,
		Rating:    input.Rating,
		Title:     input.Title,
		Comment:   input.Comment,
		Status:    models.ReviewPending,
		Verified:  true,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}
	return review, nil
}

// GetProductReviews returns a product's approved reviews with rating stats.
func (s *ReviewService) GetProductReviews(productID string) (*ProductReviews, error) {
	reviews, err := s.reviewRepo.GetByProduct(productID, true)
	if err != nil {
		return nil, err
	}
	return &ProductReviews{
		Reviews: reviews,
		Stats:   models.SummarizeReviews(reviews),
	}, nil
}

// GetBuyerReviews returns all reviews written by a buyer.
func (s *ReviewService) GetBuyerReviews(buyerID string) ([]models.Review, error) {
	return s.reviewRepo.GetByBuyer(buyerID)
}

// UpdateReview edits a review's content within the edit window. A content
// change sends the review back through moderation; if it was approved, the
// product's rating is recomputed without it.
func (s *ReviewService) UpdateReview(buyerID, reviewID string, input UpdateReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(reviewID)
	if err != nil {
		return nil, err
	}
	if review.BuyerID != buyerID {
		return nil, fmt.Errorf("review %s does not belong to caller: %w", reviewID, apperrors.ErrForbidden)
	}
	if !review.CanBeEdited(time.Now()) {
		return nil, fmt.Errorf("review %s is past its edit window: %w", reviewID, apperrors.ErrIllegalState)
	}

	if input.Rating != 0 {
		review.Rating = input.Rating
	}
	if input.Title != "" {
		review.Title = input.Title
	}
	if input.Comment != "" {
		review.Comment = input.Comment
	}

	wasApproved := review.Status == models.ReviewApproved
	review.Status = models.ReviewPending
	review.ModeratedBy = ""
	review.ModeratedAt = nil
	review.ModerationNote = ""

	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}
	if wasApproved {
		s.publishReviewEvent("review.withdrawn", review)
	}
	return review, nil
}

// DeleteReview removes a review. Only the owner or an admin may delete; an
// approved review's removal triggers a rating recomputation.
func (s *ReviewService) DeleteReview(actorID, actorRole, reviewID string) error {
	review, err := s.reviewRepo.GetByID(reviewID)
	if err != nil {
		return err
	}
	if review.BuyerID != actorID && actorRole != models.RoleAdmin {
		return fmt.Errorf("review %s does not belong to caller: %w", reviewID, apperrors.ErrForbidden)
	}
	if err := s.reviewRepo.Delete(reviewID); err != nil {
		return err
	}
	if review.Status == models.ReviewApproved {
		s.publishReviewEvent("review.withdrawn", review)
	}
	return nil
}

// ModerateReview applies a moderation decision to a pending review. Approval
// publishes review.approved for the rating aggregator.
func (s *ReviewService) ModerateReview(actorID, reviewID string, status models.ReviewStatus, note string) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(reviewID)
	if err != nil {
		return nil, err
	}
	if err := review.Moderate(status, actorID, note); err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}
	if review.Status == models.ReviewApproved {
		s.publishReviewEvent("review.approved", review)
	}
	return review, nil
}

func (s *ReviewService) publishReviewEvent(routingKey string, review *models.Review) {
	publishEvent(s.publisher, routingKey, map[string]interface{}{
		"reviewID":  review.ID,
		"productID": review.ProductID,
		"buyerID":   review.BuyerID,
		"rating":    review.Rating,
	})
}

func orderContainsProduct(order *models.Order, productID string) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
