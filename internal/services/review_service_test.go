package services_test

import (
	"testing"
	"time"

	"gerai/internal/apperrors"
	"gerai/internal/models"
	"gerai/internal/repositories"
	"gerai/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingPublisher records routing keys together with payload bytes so
// tests can replay events into the aggregator.
type capturingPublisher struct {
	keys   []string
	bodies [][]byte
}

func (p *capturingPublisher) Publish(exchange, routingKey string, body []byte) error {
	p.keys = append(p.keys, routingKey)
	p.bodies = append(p.bodies, body)
	return nil
}

type reviewFixture struct {
	service    *services.ReviewService
	aggregator *services.RatingAggregator
	reviewRepo *repositories.MockReviewRepository
	publisher  *capturingPublisher
	orders     *orderFixture
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()

	orders := newOrderFixture(t)
	reviewRepo := repositories.NewMockReviewRepository()
	publisher := &capturingPublisher{}
	service := services.NewReviewService(reviewRepo, orders.orderRepo, orders.productRepo, publisher)
	aggregator := services.NewRatingAggregator(reviewRepo, orders.productRepo)
	return &reviewFixture{
		service:    service,
		aggregator: aggregator,
		reviewRepo: reviewRepo,
		publisher:  publisher,
		orders:     orders,
	}
}

// deliveredOrder places an order for buyer-1 and walks it to delivered.
func (f *reviewFixture) deliveredOrder(t *testing.T) *models.Order {
	t.Helper()
	order := f.orders.createOrder(t)
	order, err := f.orders.service.UpdateOrderStatus(order.ID, models.OrderDelivered, "Left at door", "seller-1")
	require.NoError(t, err)
	return order
}

func (f *reviewFixture) createReview(t *testing.T, orderID string, rating int) *models.Review {
	t.Helper()
	review, err := f.service.CreateReview("buyer-1", services.CreateReviewInput{
		ProductID: "prod-1",
		OrderID:   orderID,
		Rating:    rating,
		Title:     "Solid laptop",
		Comment:   "Fast, quiet and the battery lasts all day.",
	})
	require.NoError(t, err)
	return review
}

func TestReviewService_CreateReview(t *testing.T) {
	f := newReviewFixture(t)
	order := f.deliveredOrder(t)

	review := f.createReview(t, order.ID, 5)

	assert.Equal(t, models.ReviewPending, review.Status)
	assert.True(t, review.Verified)
	assert.Equal(t, "buyer-1", review.BuyerID)
	assert.NotEmpty(t, review.ID)
}

func TestReviewService_CreateReview_Rejections(t *testing.T) {
	f := newReviewFixture(t)
	pending := f.orders.createOrder(t)

	// The order has not been delivered yet.
	_, err := f.service.CreateReview("buyer-1", services.CreateReviewInput{
		ProductID: "prod-1", OrderID: pending.ID, Rating: 5,
		Title: "Solid laptop", Comment: "Fast, quiet and the battery lasts all day.",
	})
	assert.ErrorIs(t, err, apperrors.ErrIllegalState)

	delivered := f.deliveredOrder(t)

	// Someone else's order.
	_, err = f.service.CreateReview("buyer-2", services.CreateReviewInput{
		ProductID: "prod-1", OrderID: delivered.ID, Rating: 5,
		Title: "Solid laptop", Comment: "Fast, quiet and the battery lasts all day.",
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// A product that was never in the order.
	require.NoError(t, f.orders.productRepo.Create(&models.Product{ID: "prod-9", Name: "Desk", Price: 5, Stock: 1}))
	_, err = f.service.CreateReview("buyer-1", services.CreateReviewInput{
		ProductID: "prod-9", OrderID: delivered.ID, Rating: 5,
		Title: "Solid table", Comment: "Surprisingly sturdy for the price point.",
	})
	assert.ErrorIs(t, err, apperrors.ErrIllegalState)

	// An unknown product.
	_, err = f.service.CreateReview("buyer-1", services.CreateReviewInput{
		ProductID: "no-such-product", OrderID: delivered.ID, Rating: 5,
		Title: "Solid thing", Comment: "Surprisingly sturdy for the price point.",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReviewService_CreateReview_Duplicate(t *testing.T) {
	f := newReviewFixture(t)
	order := f.deliveredOrder(t)
	f.createReview(t, order.ID, 5)

	_, err := f.service.CreateReview("buyer-1", services.CreateReviewInput{
		ProductID: "prod-1", OrderID: order.ID, Rating: 4,
		Title: "Second thoughts", Comment: "Changed my mind about the keyboard feel.",
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateReview)
}

func TestReviewService_ModerateReview_PublishesApproval(t *testing.T) {
	f := newReviewFixture(t)
	order := f.deliveredOrder(t)
	review := f.createReview(t, order.ID, 5)

	moderated, err := f.service.ModerateReview("admin-1", review.ID, models.ReviewApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewApproved, moderated.Status)
	assert.Equal(t, []string{"review.approved"}, f.publisher.keys)

	// A second decision on the same review fails.
	_, err = f.service.ModerateReview("admin-1", review.ID, models.ReviewRejected, "")
	assert.ErrorIs(t, err, apperrors.ErrIllegalState)
}

func TestReviewService_ModerateReview_RejectPublishesNothing(t *testing.T) {
	f := newReviewFixture(t)
	order := f.deliveredOrder(t)
	review := f.createReview(t, order.ID, 2)

	moderated, err := f.service.ModerateReview("admin-1", review.ID, models.ReviewRejected, "off topic")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewRejected, moderated.Status)
	assert.Empty(t, f.publisher.keys)
}

func TestRatingAggregator_ConsumesApprovalEvent(t *testing.T) {
	f := newReviewFixture(t)
	order := f.deliveredOrder(t)
	review := f.createReview(t, order.ID, 4)

	_, err := f.service.ModerateReview("admin-1", review.ID, models.ReviewApproved, "")
	require.NoError(t, err)

	// Feed the published event through the aggregator, as the consumer does.
	require.True(t, f.aggregator.HandlesKey(f.publisher.keys[0]))
	require.NoError(t, f.aggregator.HandleEvent(f.publisher.keys[0], f.publisher.bodies[0]))

	product, err := f.orders.productRepo.GetByID("prod-1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, product.Rating, 1e-9)
	assert.Equal(t, 1, product.ReviewCount)

	// Redelivery leaves the aggregate unchanged.
	require.NoError(t, f.aggregator.HandleEvent(f.publisher.keys[0], f.publisher.bodies[0]))
	product, _ = f.orders.productRepo.GetByID("prod-1")
	assert.InDelta(t, 4.0, product.Rating, 1e-9)
	assert.Equal(t, 1, product.ReviewCount)
}

func TestRatingAggregator_AveragesApprovedOnly(t *testing.T) {
	f := newReviewFixture(t)
	require.NoError(t, f.reviewRepo.Create(&models.Review{ProductID: "prod-1", BuyerID: "b1", Rating: 5, Status: models.ReviewApproved}))
	require.NoError(t, f.reviewRepo.Create(&models.Review{ProductID: "prod-1", BuyerID: "b2", Rating: 4, Status: models.ReviewApproved}))
	require.NoError(t, f.reviewRepo.Create(&models.Review{ProductID: "prod-1", BuyerID: "b3", Rating: 1, Status: models.ReviewPending}))

	require.NoError(t, f.aggregator.Recalculate("prod-1"))

	product, err := f.orders.productRepo.GetByID("prod-1")
	require.NoError(t, err)
	assert.InDelta(t, 4.5, product.Rating, 1e-9)
	assert.Equal(t, 2, product.ReviewCount)
}

func TestRatingAggregator_SkipsDeletedProduct(t *testing.T) {
	f := newReviewFixture(t)
	assert.NoError(t, f.aggregator.Recalculate("no-such-product"))
}

func TestRatingAggregator_RejectsMalformedEvent(t *testing.T) {
	f := newReviewFixture(t)
	assert.Error(t, f.aggregator.HandleEvent("review.approved", []byte("not json")))
	assert.Error(t, f.aggregator.HandleEvent("review.approved", []byte(`{"reviewID":"r1"}`)))
	assert.False(t, f.aggregator.HandlesKey("order.created"))
}

func TestReviewService_GetProductReviews_ApprovedOnly(t *testing.T) {
	f := newReviewFixture(t)
	require.NoError(t, f.reviewRepo.Create(&models.Review{ProductID: "prod-1", BuyerID: "b1", Rating: 5, Status: models.ReviewApproved}))
	require.NoError(t, f.reviewRepo.Create(&models.Review{ProductID: "prod-1", BuyerID: "b2", Rating: 1, Status: models.ReviewPending}))

	result, err := f.service.GetProductReviews("prod-1")
	require.NoError(t, err)
	require.Len(t, result.Reviews, 1)
	assert.Equal(t, models.ReviewApproved, result.Reviews[0].Status)
	assert.InDelta(t, 5.0, result.Stats.AverageRating, 1e-9)
	assert.Equal(t, 1, result.Stats.ReviewCount)
}

func TestReviewService_UpdateReview_ResetsModeration(t *testing.T) {
	f := newReviewFixture(t)
	order := f.deliveredOrder(t)
	review := f.createReview(t, order.ID, 5)
	_, err := f.service.ModerateReview("admin-1", review.ID, models.ReviewApproved, "")
	require.NoError(t, err)

	updated, err := f.service.UpdateReview("buyer-1", review.ID, services.UpdateReviewInput{Rating: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, updated.Rating)
	assert.Equal(t, models.ReviewPending, updated.Status)
	assert.Empty(t, updated.ModeratedBy)
	assert.Nil(t, updated.ModeratedAt)
	// The withdrawn event tells the aggregator to recompute without it.
	assert.Equal(t, []string{"review.approved", "review.withdrawn"}, f.publisher.keys)
}

func TestReviewService_UpdateReview_Rejections(t *testing.T) {
	f := newReviewFixture(t)
	order := f.deliveredOrder(t)
	review := f.createReview(t, order.ID, 5)

	_, err := f.service.UpdateReview("buyer-2", review.ID, services.UpdateReviewInput{Rating: 1})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Past the edit window.
	stale := &models.Review{
		ProductID: "prod-2", BuyerID: "buyer-1", Rating: 4,
		Status: models.ReviewPending, CreatedAt: time.Now().Add(-31 * 24 * time.Hour),
	}
	require.NoError(t, f.reviewRepo.Create(stale))
	_, err = f.service.UpdateReview("buyer-1", stale.ID, services.UpdateReviewInput{Rating: 2})
	assert.ErrorIs(t, err, apperrors.ErrIllegalState)
}

func TestReviewService_DeleteReview(t *testing.T) {
	f := newReviewFixture(t)
	order := f.deliveredOrder(t)
	review := f.createReview(t, order.ID, 5)
	_, err := f.service.ModerateReview("admin-1", review.ID, models.ReviewApproved, "")
	require.NoError(t, err)

	err = f.service.DeleteReview("someone-else", models.RoleBuyer, review.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, f.service.DeleteReview("buyer-1", models.RoleBuyer, review.ID))
	_, err = f.reviewRepo.GetByID(review.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, []string{"review.approved", "review.withdrawn"}, f.publisher.keys)
}
