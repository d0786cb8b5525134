package services

import (
	"errors"
	"fmt"
	"time"

	"gerai/internal/apperrors"
	"gerai/internal/models"
	"gerai/internal/repositories"
)

// Invoice boilerplate carried over onto every issued document.
const (
	invoiceDefaultNotes = "Thank you for your business!"
	invoiceDefaultTerms = "Payment is due within 30 days. Late payments may incur additional charges."
)

// InvoiceService issues invoices from paid orders. An order gets exactly one
// invoice; numbering is monotonic within a calendar month.
type InvoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	orderRepo   repositories.OrderRepository
	userRepo    repositories.UserRepository
	counterRepo repositories.CounterRepository
	publisher   EventPublisher
	company     models.CompanyInfo
}

// NewInvoiceService creates a new InvoiceService. publisher may be nil, in
// which case event publication is skipped.
func NewInvoiceService(
	invoiceRepo repositories.InvoiceRepository,
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	counterRepo repositories.CounterRepository,
	publisher EventPublisher,
	company models.CompanyInfo,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		counterRepo: counterRepo,
		publisher:   publisher,
		company:     company,
	}
}

// GetInvoiceByID retrieves a single invoice by its ID.
func (s *InvoiceService) GetInvoiceByID(id string) (*models.Invoice, error) {
	return s.invoiceRepo.GetByID(id)
}

// GetInvoiceByOrderID retrieves the invoice issued for an order.
func (s *InvoiceService) GetInvoiceByOrderID(orderID string) (*models.Invoice, error) {
	return s.invoiceRepo.GetByOrderID(orderID)
}

// NextInvoiceNumber derives the next number in the INV-{YYYY}{MM}-{seq}
// format for the month containing now. Each month has its own counter, so
// sequences restart at 0001 every month and stay unique under concurrent
// issuers.
func (s *InvoiceService) NextInvoiceNumber(now time.Time) (string, error) {
	prefix := now.Format("200601")
	seq, err := s.counterRepo.Next("invoice-" + prefix)
	if err != nil {
		return "", fmt.Errorf("failed to assign invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%s-%04d", prefix, seq), nil
}

// CreateFromOrder issues the invoice for a paid order: order lines are
// frozen into invoice lines, billing falls back from the shipping address to
// the buyer profile, and totals are recomputed at the statutory rate. A
// second call for the same order fails with ErrDuplicateInvoice.
func (s *InvoiceService) CreateFromOrder(orderID string) (*models.Invoice, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if _, err := s.invoiceRepo.GetByOrderID(orderID); err == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, apperrors.ErrDuplicateInvoice)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	buyer, err := s.userRepo.GetByID(order.BuyerID)
	if err != nil {
		return nil, err
	}

	items := make([]models.InvoiceItem, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, models.InvoiceItem{
			ProductID: line.ProductID,
			Name:      line.ProductName,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.UnitPrice * float64(line.Quantity),
		})
	}

	now := time.Now()
	number, err := s.NextInvoiceNumber(now)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		InvoiceNumber:  number,
		OrderID:        order.ID,
		BuyerID:        order.BuyerID,
		Items:          items,
		Subtotal:       order.Subtotal,
		TaxRate:        models.DefaultInvoiceTaxRate,
		ShippingCost:   order.ShippingCost,
		Discount:       order.Discount,
		BillingAddress: billingFromOrder(order, buyer),
		Company:        s.company,
		PaymentMethod:  order.Payment.Method,
		PaymentStatus:  order.Payment.Status,
		TransactionID:  order.Payment.TransactionID,
		Status:         models.InvoiceSent,
		InvoiceDate:    now,
		DueDate:        now.AddDate(0, 0, models.InvoiceDueDays),
		Notes:          invoiceDefaultNotes,
		Terms:          invoiceDefaultTerms,
	}
	invoice.ComputeTotals()

	if err := s.invoiceRepo.Create(invoice); err != nil {
		return nil, err
	}

	publishEvent(s.publisher, "invoice.issued", map[string]interface{}{
		"invoiceID":     invoice.ID,
		"invoiceNumber": invoice.InvoiceNumber,
		"orderID":       invoice.OrderID,
		"buyerID":       invoice.BuyerID,
		"totalAmount":   invoice.TotalAmount,
	})

	return invoice, nil
}

// MarkEmailSent stamps a successful invoice delivery.
func (s *InvoiceService) MarkEmailSent(invoice *models.Invoice) error {
	now := time.Now()
	invoice.EmailSent = true
	invoice.EmailSentAt = &now
	return s.invoiceRepo.Update(invoice)
}

// SetPDFPath records where the rendered document was stored.
func (s *InvoiceService) SetPDFPath(invoice *models.Invoice, path string) error {
	invoice.PDFPath = path
	return s.invoiceRepo.Update(invoice)
}

// billingFromOrder builds the billing block from the order's shipping
// address, falling back to the buyer profile for blank fields. The email
// always comes from the buyer account.
func billingFromOrder(order *models.Order, buyer *models.User) models.BillingAddress {
	billing := models.BillingAddress{
		Name:       order.ShippingAddress.Name,
		Email:      buyer.Email,
		Phone:      order.ShippingAddress.Phone,
		Street:     order.ShippingAddress.Street,
		City:       order.ShippingAddress.City,
		State:      order.ShippingAddress.State,
		PostalCode: order.ShippingAddress.ZipCode,
		Country:    order.ShippingAddress.Country,
	}
	if billing.Name == "" {
		billing.Name = buyer.Name
	}
	if billing.Phone == "" {
		billing.Phone = buyer.Phone
	}
	if billing.Street == "" {
		billing.Street = buyer.Street
		billing.City = buyer.City
		billing.State = buyer.State
		billing.PostalCode = buyer.ZipCode
		billing.Country = buyer.Country
	}
	return billing
}
