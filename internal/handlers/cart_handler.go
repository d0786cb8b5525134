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

// CartHandler handles HTTP requests for the buyer's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app. All cart
// routes are buyer-only.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart", middleware.RequireRole(models.RoleBuyer))
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:productID", h.HandleSetItemQuantity)
	cartRoutes.Delete("/items/:productID", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/checkout", h.HandleCheckout)
}

// AddCartItemRequest is the payload for adding a product to the cart.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=10"`
}

// SetCartItemRequest is the payload for replacing a cart line's quantity.
type SetCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=10"`
}

// CheckoutRequest is the payload for placing an order from the cart.
type CheckoutRequest struct {
	ShippingAddress models.Address `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method" validate:"required,oneof=credit-card debit-card paypal stripe bank-transfer cash-on-delivery"`
}

// HandleGetCart returns the calling buyer's cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(middleware.UserID(c))
	if err != nil {
		log.Printf("Error getting cart: %v", err)
		return respondError(c, err, "Could not retrieve cart")
	}
	return c.JSON(cart)
}

// HandleAddItem adds a product to the calling buyer's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart item body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
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

	cart, err := h.service.AddItem(middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error adding product %s to cart: %v", req.ProductID, err)
		return respondError(c, err, "Could not add item to cart")
	}
	return c.Status(fiber.StatusCreated).JSON(cart)
}

// HandleSetItemQuantity replaces a cart line's quantity; zero removes it.
func (h *CartHandler) HandleSetItemQuantity(c *fiber.Ctx) error {
	productID := c.Params("productID")
	var req SetCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart quantity body: %v", err)
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

	cart, err := h.service.SetItemQuantity(middleware.UserID(c), productID, req.Quantity)
	if err != nil {
		log.Printf("Error updating cart line %s: %v", productID, err)
		return respondError(c, err, "Could not update cart item")
	}
	return c.JSON(cart)
}

// HandleRemoveItem drops a product from the calling buyer's cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	productID := c.Params("productID")
	cart, err := h.service.RemoveItem(middleware.UserID(c), productID)
	if err != nil {
		log.Printf("Error removing cart line %s: %v", productID, err)
		return respondError(c, err, "Could not remove cart item")
	}
	return c.JSON(cart)
}

// HandleClearCart empties the calling buyer's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	cart, err := h.service.ClearCart(middleware.UserID(c))
	if err != nil {
		log.Printf("Error clearing cart: %v", err)
		return respondError(c, err, "Could not clear cart")
	}
	return c.JSON(cart)
}

// HandleCheckout places an order from the cart and empties it.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout body: %v", err)
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

	order, err := h.service.Checkout(middleware.UserID(c), req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		log.Printf("Error checking out cart: %v", err)
		return respondError(c, err, "Could not check out cart")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}
