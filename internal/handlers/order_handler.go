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

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", middleware.RequireRole(models.RoleBuyer), h.HandleCreateOrder)
	orderRoutes.Patch("/:id/status", middleware.RequireRole(models.RoleSeller, models.RoleAdmin), h.HandleUpdateOrderStatus)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
}

// HandleGetOrders retrieves the caller's orders; admins see all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	var (
		orders []models.Order
		err    error
	)
	if middleware.Role(c) == models.RoleAdmin {
		orders, err = h.service.GetAllOrders()
	} else {
		orders, err = h.service.GetOrdersByBuyer(middleware.UserID(c))
	}
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID. Only the buyer who
// placed the order (or an admin) may see it.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return respondError(c, err, "Could not retrieve order")
	}
	if middleware.Role(c) != models.RoleAdmin && order.BuyerID != middleware.UserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Unauthorized access to order",
		})
	}
	return c.JSON(order)
}

// HandleCreateOrder creates a new order for the calling buyer.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var input services.CreateOrderInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing order request body: %v", err)
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

	createdOrder, err := h.service.CreateOrder(middleware.UserID(c), input)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		return respondError(c, err, "Could not create order")
	}

	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// StatusUpdateRequest represents the request body for a status update.
type StatusUpdateRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
	Note   string             `json:"note"`
}

// HandleUpdateOrderStatus applies a status transition to an order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing request body for status update: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	order, err := h.service.UpdateOrderStatus(orderID, req.Status, req.Note, middleware.UserID(c))
	if err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		return respondError(c, err, "Could not update order status")
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, order.Status),
		"order":   order,
	})
}

// CancelRequest represents the request body for an order cancellation.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// HandleCancelOrder cancels an order. Buyers may cancel their own orders;
// admins may cancel any.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req CancelRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cancel request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		log.Printf("Error loading order %s for cancellation: %v", orderID, err)
		return respondError(c, err, "Could not retrieve order")
	}
	if middleware.Role(c) != models.RoleAdmin && order.BuyerID != middleware.UserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Unauthorized access to order",
		})
	}

	cancelled, err := h.service.CancelOrder(orderID, req.Reason, middleware.UserID(c))
	if err != nil {
		log.Printf("Error cancelling order %s: %v", orderID, err)
		return respondError(c, err, "Could not cancel order")
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s cancelled successfully", orderID),
		"order":   cancelled,
	})
}
