package models

import (
	"fmt"
	"math"
	"time"

	"gerai/internal/apperrors"
)

// ReviewStatus enumerates the moderation states of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ReviewEditWindow is how long after creation a buyer may still edit a review.
const ReviewEditWindow = 30 * 24 * time.Hour

// Review is a buyer's rating of a purchased product. Only approved reviews
// count toward the product's aggregated rating; the unique product+buyer
// index allows one review per buyer per product.
type Review struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string `json:"product_id" gorm:"uniqueIndex:idx_reviews_product_buyer;type:varchar(36)"`
	BuyerID   string `json:"buyer_id" gorm:"uniqueIndex:idx_reviews_product_buyer;type:varchar(36)"`
	OrderID   string `json:"order_id" gorm:"type:varchar(36)"`

	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title   string `json:"title" validate:"required,min=5,max=100"`
	Comment string `json:"comment" validate:"required,min=10,max=1000"`

	Status ReviewStatus `json:"status" gorm:"index;type:varchar(20)"`

	// Verified marks that the buyer's delivered order contained the product.
	Verified bool `json:"verified"`

	ModeratedBy    string     `json:"moderated_by,omitempty"`
	ModeratedAt    *time.Time `json:"moderated_at,omitempty"`
	ModerationNote string     `json:"moderation_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanBeEdited reports whether the review is still inside its edit window.
func (r *Review) CanBeEdited(now time.Time) bool {
	return now.Sub(r.CreatedAt) <= ReviewEditWindow
}

// Moderate records a moderation decision. Only pending reviews may be
// moderated; an edit resets an approved review to pending first.
func (r *Review) Moderate(status ReviewStatus, actorID, note string) error {
	if status != ReviewApproved && status != ReviewRejected {
		return fmt.Errorf("moderation status %s: %w", status, apperrors.ErrIllegalState)
	}
	if r.Status != ReviewPending {
		return fmt.Errorf("review %s already moderated as %s: %w", r.ID, r.Status, apperrors.ErrIllegalState)
	}
	now := time.Now()
	r.Status = status
	r.ModeratedBy = actorID
	r.ModeratedAt = &now
	r.ModerationNote = note
	return nil
}

// RatingSummary is the denormalized aggregate stored on the product.
type RatingSummary struct {
	AverageRating float64     `json:"average_rating"`
	ReviewCount   int         `json:"review_count"`
	Distribution  map[int]int `json:"distribution"`
}

// SummarizeReviews computes the rating aggregate over the given reviews.
// Callers pass only approved reviews; the average is rounded to one decimal.
func SummarizeReviews(reviews []Review) RatingSummary {
	summary := RatingSummary{Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	if len(reviews) == 0 {
		return summary
	}
	var sum int
	for _, review := range reviews {
		sum += review.Rating
		summary.Distribution[review.Rating]++
	}
	summary.ReviewCount = len(reviews)
	summary.AverageRating = math.Round(float64(sum)/float64(len(reviews))*10) / 10
	return summary
}
