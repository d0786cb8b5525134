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

// PaymentHandler handles HTTP requests for payments and invoices.
type PaymentHandler struct {
	payments *services.PaymentService
	invoices *services.InvoiceService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *services.PaymentService, invoices *services.InvoiceService) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		invoices: invoices,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the payment and invoice routes with the Fiber app.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/create-order", middleware.RequireRole(models.RoleBuyer), h.HandleCreatePaymentOrder)
	paymentRoutes.Post("/verify", middleware.RequireRole(models.RoleBuyer), h.HandleVerifyPayment)
	paymentRoutes.Post("/mock-success", middleware.RequireRole(models.RoleBuyer), h.HandleMockSuccess)
	paymentRoutes.Get("/invoice/:id", h.HandleGetInvoice)
	paymentRoutes.Get("/invoice/:id/download", h.HandleDownloadInvoice)
}

// CreatePaymentOrderRequest represents the request body for opening a
// gateway checkout order.
type CreatePaymentOrderRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// HandleCreatePaymentOrder opens a checkout order at the payment gateway.
func (h *PaymentHandler) HandleCreatePaymentOrder(c *fiber.Ctx) error {
	var req CreatePaymentOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create-payment-order body: %v", err)
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

	gwOrder, err := h.payments.CreatePaymentOrder(middleware.UserID(c), req.OrderID)
	if err != nil {
		log.Printf("Error creating payment order for %s: %v", req.OrderID, err)
		return respondError(c, err, "Failed to create payment order")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"gateway_order_id": gwOrder.ID,
			"amount":           gwOrder.Amount,
			"currency":         gwOrder.Currency,
			"receipt":          gwOrder.Receipt,
		},
		"message": "Payment order created successfully",
	})
}

// VerifyPaymentRequest represents the request body for payment confirmation.
type VerifyPaymentRequest struct {
	OrderID        string `json:"order_id" validate:"required"`
	PaymentID      string `json:"payment_id" validate:"required"`
	GatewayOrderID string `json:"gateway_order_id" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
}

// HandleVerifyPayment verifies a completed gateway payment and runs the
// confirmation workflow: mark paid, issue invoice, render and email it.
func (h *PaymentHandler) HandleVerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing verify-payment body: %v", err)
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

	result, err := h.payments.ConfirmPayment(
		middleware.UserID(c), req.OrderID, req.PaymentID, req.GatewayOrderID, req.Signature)
	if err != nil {
		log.Printf("Payment verification error for order %s: %v", req.OrderID, err)
		return respondError(c, err, "Payment verification failed")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"order": fiber.Map{
				"id":             result.Order.ID,
				"order_number":   result.Order.OrderNumber,
				"status":         result.Order.Status,
				"payment_status": result.Order.Payment.Status,
				"total":          result.Order.Total,
			},
			"invoice": fiber.Map{
				"id":             result.Invoice.ID,
				"invoice_number": result.Invoice.InvoiceNumber,
				"pdf_generated":  result.PDFGenerated,
				"email_sent":     result.EmailSent,
			},
		},
		"message": "Payment verified and order processed successfully",
	})
}

// MockSuccessRequest represents the request body for the demo checkout.
type MockSuccessRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// HandleMockSuccess completes a payment through the mock gateway without a
// real checkout round-trip. Meant for demo environments.
func (h *PaymentHandler) HandleMockSuccess(c *fiber.Ctx) error {
	var req MockSuccessRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing mock-success body: %v", err)
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

	result, err := h.payments.ConfirmMockPayment(middleware.UserID(c), req.OrderID)
	if err != nil {
		log.Printf("Mock payment error for order %s: %v", req.OrderID, err)
		return respondError(c, err, "Mock payment failed")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"order_id":       result.Order.ID,
			"status":         result.Order.Status,
			"payment_status": result.Order.Payment.Status,
			"invoice_number": result.Invoice.InvoiceNumber,
			"pdf_generated":  result.PDFGenerated,
			"email_sent":     result.EmailSent,
		},
		"message": "Mock payment completed successfully",
	})
}

// HandleGetInvoice returns invoice details. Only the invoice's buyer or an
// admin may read it.
func (h *PaymentHandler) HandleGetInvoice(c *fiber.Ctx) error {
	invoiceID := c.Params("id")
	invoice, err := h.invoices.GetInvoiceByID(invoiceID)
	if err != nil {
		log.Printf("Error getting invoice %s: %v", invoiceID, err)
		return respondError(c, err, "Failed to retrieve invoice")
	}
	if middleware.Role(c) != models.RoleAdmin && invoice.BuyerID != middleware.UserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Unauthorized access to invoice",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    invoice,
		"message": "Invoice retrieved successfully",
	})
}

// HandleDownloadInvoice serves the invoice PDF, regenerating it when no
// stored file exists.
func (h *PaymentHandler) HandleDownloadInvoice(c *fiber.Ctx) error {
	invoiceID := c.Params("id")
	invoice, err := h.invoices.GetInvoiceByID(invoiceID)
	if err != nil {
		log.Printf("Error getting invoice %s for download: %v", invoiceID, err)
		return respondError(c, err, "Failed to retrieve invoice")
	}
	if middleware.Role(c) != models.RoleAdmin && invoice.BuyerID != middleware.UserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Unauthorized access to invoice",
		})
	}

	document, err := h.payments.RenderInvoice(invoice)
	if err != nil {
		log.Printf("Error rendering invoice %s: %v", invoiceID, err)
		return respondError(c, err, "Failed to generate PDF")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="Invoice-%s.pdf"`, invoice.InvoiceNumber))
	return c.Send(document)
}
