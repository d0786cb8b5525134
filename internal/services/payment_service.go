package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gerai/internal/apperrors"
	"gerai/internal/models"
	"gerai/internal/repositories"
)

// PaymentResult is what the gateway reports for a verified payment.
type PaymentResult struct {
	PaymentID string
	OrderID   string
	Amount    float64
	Currency  string
	Method    string
}

// GatewayOrder is the checkout handle created at the gateway before the
// client completes payment.
type GatewayOrder struct {
	ID       string
	Amount   float64
	Currency string
	Receipt  string
}

// PaymentGateway abstracts the payment provider. Verify fails with
// apperrors.ErrPaymentVerificationFailed on a bad signature.
type PaymentGateway interface {
	CreateOrder(amount float64, currency, receipt string) (*GatewayOrder, error)
	Verify(paymentID, gatewayOrderID, signature string) (*PaymentResult, error)
}

// DocumentRenderer turns an invoice into a byte stream, typically a PDF.
// Implementations must be pure: same invoice in, same document out.
type DocumentRenderer interface {
	Render(invoice *models.Invoice) ([]byte, error)
}

// Notifier delivers a generated invoice document to the buyer. Delivery is
// best-effort; callers never fail a request on a notifier error.
type Notifier interface {
	SendInvoice(invoice *models.Invoice, document []byte) error
}

// ConfirmationResult is the outcome of the payment confirmation workflow.
type ConfirmationResult struct {
	Order        *models.Order   `json:"order"`
	Invoice      *models.Invoice `json:"invoice"`
	PDFGenerated bool            `json:"pdf_generated"`
	EmailSent    bool            `json:"email_sent"`
}

// PaymentService orchestrates payment confirmation: verify, mark the order
// paid, issue the invoice, render the document and notify the buyer. The
// workflow is idempotent under gateway retries.
type PaymentService struct {
	orderRepo    repositories.OrderRepository
	orderService *OrderService
	invoices     *InvoiceService
	gateway      PaymentGateway
	renderer     DocumentRenderer
	notifier     Notifier
	invoiceDir   string
}

// NewPaymentService creates a new PaymentService. notifier may be nil when
// email delivery is not configured.
func NewPaymentService(
	orderRepo repositories.OrderRepository,
	orderService *OrderService,
	invoices *InvoiceService,
	gateway PaymentGateway,
	renderer DocumentRenderer,
	notifier Notifier,
	invoiceDir string,
) *PaymentService {
	return &PaymentService{
		orderRepo:    orderRepo,
		orderService: orderService,
		invoices:     invoices,
		gateway:      gateway,
		renderer:     renderer,
		notifier:     notifier,
		invoiceDir:   invoiceDir,
	}
}

// CreatePaymentOrder opens a checkout order at the gateway for the given
// order. The caller must be the order's buyer.
func (s *PaymentService) CreatePaymentOrder(buyerID, orderID string) (*GatewayOrder, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, fmt.Errorf("order %s does not belong to caller: %w", orderID, apperrors.ErrForbidden)
	}
	gwOrder, err := s.gateway.CreateOrder(order.Total, "USD", order.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}
	return gwOrder, nil
}

// ConfirmPayment runs the confirmation workflow for an order.
//
// Ordering and failure semantics: verification failures abort with the order
// untouched. Once the order is marked paid that state is durable; later
// failures (invoice, render, email) never roll it back. A repeated call for
// an already-paid order short-circuits to the existing invoice, so gateway
// webhook retries cannot double-charge inventory or double-issue invoices.
func (s *PaymentService) ConfirmPayment(buyerID, orderID, paymentID, gatewayOrderID, signature string) (*ConfirmationResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, fmt.Errorf("order %s does not belong to caller: %w", orderID, apperrors.ErrForbidden)
	}

	if order.Payment.Status == models.PaymentCompleted {
		return s.alreadyConfirmed(order)
	}

	result, err := s.gateway.Verify(paymentID, gatewayOrderID, signature)
	if err != nil {
		return nil, err
	}

	// Durable before anything downstream: the money moved at the gateway.
	if err := s.orderService.MarkPaid(order, result.PaymentID); err != nil {
		return nil, err
	}

	invoice, err := s.invoices.CreateFromOrder(order.ID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateInvoice) {
			return nil, err
		}
		// A retried request got here first; pick up its invoice.
		invoice, err = s.invoices.GetInvoiceByOrderID(order.ID)
		if err != nil {
			return nil, err
		}
	}

	confirmation := &ConfirmationResult{Order: order, Invoice: invoice}
	s.renderAndNotify(confirmation)
	return confirmation, nil
}

// ConfirmMockPayment runs the confirmation workflow with a fabricated
// payment reference. Backs the demo checkout endpoint; only useful when the
// configured gateway accepts arbitrary signatures.
func (s *PaymentService) ConfirmMockPayment(buyerID, orderID string) (*ConfirmationResult, error) {
	paymentID := fmt.Sprintf("pay_mock_%d", time.Now().UnixMilli())
	return s.ConfirmPayment(buyerID, orderID, paymentID, "order_mock", "mock-signature")
}

// alreadyConfirmed handles the idempotent re-delivery path: the order is
// paid, so return its invoice without re-verifying. A paid order with no
// invoice means an earlier confirmation died between marking the order paid
// and issuing the invoice; the retry resumes from invoice creation.
func (s *PaymentService) alreadyConfirmed(order *models.Order) (*ConfirmationResult, error) {
	invoice, err := s.invoices.GetInvoiceByOrderID(order.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		invoice, err = s.invoices.CreateFromOrder(order.ID)
		if errors.Is(err, apperrors.ErrDuplicateInvoice) {
			invoice, err = s.invoices.GetInvoiceByOrderID(order.ID)
		}
		if err != nil {
			return nil, err
		}
		confirmation := &ConfirmationResult{Order: order, Invoice: invoice}
		s.renderAndNotify(confirmation)
		return confirmation, nil
	}
	if err != nil {
		return nil, err
	}
	return &ConfirmationResult{
		Order:        order,
		Invoice:      invoice,
		PDFGenerated: invoice.PDFPath != "",
		EmailSent:    invoice.EmailSent,
	}, nil
}

// renderAndNotify runs the best-effort tail of the workflow: render the PDF,
// store it, email it. Every failure here is logged and reported through the
// result flags, never as an error.
func (s *PaymentService) renderAndNotify(confirmation *ConfirmationResult) {
	invoice := confirmation.Invoice

	document, err := s.renderer.Render(invoice)
	if err != nil {
		log.Printf("Warning: failed to render invoice %s: %v", invoice.InvoiceNumber, err)
		return
	}
	confirmation.PDFGenerated = true

	if path, err := s.savePDF(invoice, document); err != nil {
		log.Printf("Warning: failed to store invoice PDF %s: %v", invoice.InvoiceNumber, err)
	} else if err := s.invoices.SetPDFPath(invoice, path); err != nil {
		log.Printf("Warning: failed to record PDF path for invoice %s: %v", invoice.InvoiceNumber, err)
	}

	if s.notifier == nil {
		log.Println("Notifier is not configured. Skipping invoice email.")
		return
	}
	if err := s.notifier.SendInvoice(invoice, document); err != nil {
		log.Printf("Warning: failed to email invoice %s: %v", invoice.InvoiceNumber, err)
		return
	}
	if err := s.invoices.MarkEmailSent(invoice); err != nil {
		log.Printf("Warning: failed to record email delivery for invoice %s: %v", invoice.InvoiceNumber, err)
	}
	confirmation.EmailSent = true
}

// RenderInvoice renders the stored PDF for an invoice, regenerating it when
// no file exists. Used by the download endpoint.
func (s *PaymentService) RenderInvoice(invoice *models.Invoice) ([]byte, error) {
	if invoice.PDFPath != "" {
		if document, err := os.ReadFile(invoice.PDFPath); err == nil {
			return document, nil
		}
	}
	return s.renderer.Render(invoice)
}

// savePDF writes the rendered document under the invoice directory.
func (s *PaymentService) savePDF(invoice *models.Invoice, document []byte) (string, error) {
	if err := os.MkdirAll(s.invoiceDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create invoice directory: %w", err)
	}
	path := filepath.Join(s.invoiceDir, fmt.Sprintf("Invoice-%s.pdf", invoice.InvoiceNumber))
	if err := os.WriteFile(path, document, 0o644); err != nil {
		return "", fmt.Errorf("failed to write invoice PDF: %w", err)
	}
	return path, nil
}
