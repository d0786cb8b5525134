package handlers

import (
	"fmt"
	"log"

	"gerai/internal/middleware"
	"gerai/internal/models"
	"gerai/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service  *services.ReviewService
	validate *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the review routes with the Fiber app.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router) {
	reviewRoutes := router.Group("/reviews")
	reviewRoutes.Post("/", middleware.RequireRole(models.RoleBuyer), h.HandleCreateReview)
	reviewRoutes.Get("/product/:productID", h.HandleGetProductReviews)
	reviewRoutes.Get("/mine", h.HandleGetMyReviews)
	reviewRoutes.Put("/:id", middleware.RequireRole(models.RoleBuyer), h.HandleUpdateReview)
	reviewRoutes.Delete("/:id", h.HandleDeleteReview)
	reviewRoutes.Patch("/:id/moderate", middleware.RequireRole(models.RoleAdmin), h.HandleModerateReview)
}

// ModerateReviewRequest is the payload for a moderation decision.
type ModerateReviewRequest struct {
	Status models.ReviewStatus `json:"status" validate:"required,oneof=approved rejected"`
	Note   string              `json:"note" validate:"omitempty,max=500"`
}

// HandleCreateReview records a pending review by the calling buyer.
func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	var input services.CreateReviewInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing review body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(input); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	review, err := h.service.CreateReview(middleware.UserID(c), input)
	if err != nil {
		log.Printf("Error creating review for product %s: %v", input.ProductID, err)
		return respondError(c, err, "Could not create review")
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// HandleGetProductReviews returns a product's approved reviews with stats.
func (h *ReviewHandler) HandleGetProductReviews(c *fiber.Ctx) error {
	productID := c.Params("productID")
	reviews, err := h.service.GetProductReviews(productID)
	if err != nil {
		log.Printf("Error getting reviews for product %s: %v", productID, err)
		return respondError(c, err, "Could not retrieve reviews")
	}
	return c.JSON(reviews)
}

// HandleGetMyReviews returns the caller's own reviews in every status.
func (h *ReviewHandler) HandleGetMyReviews(c *fiber.Ctx) error {
	reviews, err := h.service.GetBuyerReviews(middleware.UserID(c))
	if err != nil {
		log.Printf("Error getting caller's reviews: %v", err)
		return respondError(c, err, "Could not retrieve reviews")
	}
	return c.JSON(reviews)
}

// HandleUpdateReview edits the caller's review within the edit window.
func (h *ReviewHandler) HandleUpdateReview(c *fiber.Ctx) error {
	reviewID := c.Params("id")
	var input services.UpdateReviewInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing review update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	review, err := h.service.UpdateReview(middleware.UserID(c), reviewID, input)
	if err != nil {
		log.Printf("Error updating review %s: %v", reviewID, err)
		return respondError(c, err, "Could not update review")
	}
	return c.JSON(review)
}

// HandleDeleteReview removes a review owned by the caller; admins may
// remove any review.
func (h *ReviewHandler) HandleDeleteReview(c *fiber.Ctx) error {
	reviewID := c.Params("id")
	if err := h.service.DeleteReview(middleware.UserID(c), middleware.Role(c), reviewID); err != nil {
		log.Printf("Error deleting review %s: %v", reviewID, err)
		return respondError(c, err, "Could not delete review")
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Review %s deleted successfully", reviewID),
	})
}

// HandleModerateReview applies an admin's moderation decision.
func (h *ReviewHandler) HandleModerateReview(c *fiber.Ctx) error {
	reviewID := c.Params("id")
	var req ModerateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing moderation body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	review, err := h.service.ModerateReview(middleware.UserID(c), reviewID, req.Status, req.Note)
	if err != nil {
		log.Printf("Error moderating review %s: %v", reviewID, err)
		return respondError(c, err, "Could not moderate review")
	}
	return c.JSON(review)
}
