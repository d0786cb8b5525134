package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gerai/internal/apperrors"
	"gerai/internal/models"
	"gerai/internal/repositories"
)

// RatingAggregator maintains the denormalized rating fields on products. It
// consumes review.* events and recomputes the aggregate from the approved
// reviews, so every update goes through one visible code path instead of
// persistence hooks.
type RatingAggregator struct {
	reviewRepo  repositories.ReviewRepository
	productRepo repositories.ProductRepository
}

// NewRatingAggregator creates a new RatingAggregator.
func NewRatingAggregator(
	reviewRepo repositories.ReviewRepository,
	productRepo repositories.ProductRepository,
) *RatingAggregator {
	return &RatingAggregator{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

// reviewEvent is the payload shared by all review.* events.
type reviewEvent struct {
	ReviewID  string `json:"reviewID"`
	ProductID string `json:"productID"`
}

// HandlesKey reports whether a routing key belongs to this aggregator.
func (a *RatingAggregator) HandlesKey(routingKey string) bool {
	return strings.HasPrefix(routingKey, "review.")
}

// HandleEvent processes one review event. Recomputation is idempotent, so a
// redelivered event is harmless.
func (a *RatingAggregator) HandleEvent(routingKey string, body []byte) error {
	var event reviewEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", routingKey, err)
	}
	if event.ProductID == "" {
		return fmt.Errorf("%s event without productID", routingKey)
	}
	return a.Recalculate(event.ProductID)
}

// Recalculate recomputes a product's rating aggregate from its approved
// reviews and persists it. A product deleted since the event was published
// is skipped.
func (a *RatingAggregator) Recalculate(productID string) error {
	product, err := a.productRepo.GetByID(productID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	reviews, err := a.reviewRepo.GetByProduct(productID, true)
	if err != nil {
		return err
	}
	summary := models.SummarizeReviews(reviews)

	product.Rating = summary.AverageRating
	product.ReviewCount = summary.ReviewCount
	return a.productRepo.Update(product)
}
