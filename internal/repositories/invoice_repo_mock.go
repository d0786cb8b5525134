package repositories

import (
	"fmt"
	"sync"
	"time"

	"gerai/internal/apperrors"
	"gerai/internal/models"

	"github.com/google/uuid"
)

// MockInvoiceRepository is an in-memory implementation of InvoiceRepository.
type MockInvoiceRepository struct {
	invoices map[string]models.Invoice
	byOrder  map[string]string
	mu       sync.RWMutex
}

// NewMockInvoiceRepository creates a new instance of MockInvoiceRepository.
func NewMockInvoiceRepository() *MockInvoiceRepository {
	return &MockInvoiceRepository{
		invoices: make(map[string]models.Invoice),
		byOrder:  make(map[string]string),
	}
}

// GetByID returns an invoice by its ID.
func (r *MockInvoiceRepository) GetByID(id string) (*models.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invoice, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice with ID %s: %w", id, apperrors.ErrNotFound)
	}
	return &invoice, nil
}

// GetByOrderID returns the invoice issued for an order, if any.
func (r *MockInvoiceRepository) GetByOrderID(orderID string) (*models.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, fmt.Errorf("invoice for order %s: %w", orderID, apperrors.ErrNotFound)
	}
	invoice := r.invoices[id]
	return &invoice, nil
}

// GetByBuyer returns all invoices issued to a buyer.
func (r *MockInvoiceRepository) GetByBuyer(buyerID string) ([]models.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var invoiceList []models.Invoice
	for _, invoice := range r.invoices {
		if invoice.BuyerID == buyerID {
			invoiceList = append(invoiceList, invoice)
		}
	}
	return invoiceList, nil
}

// Create adds a new invoice, enforcing one invoice per order.
func (r *MockInvoiceRepository) Create(invoice *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byOrder[invoice.OrderID]; ok {
		return fmt.Errorf("order %s: %w", invoice.OrderID, apperrors.ErrDuplicateInvoice)
	}
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = time.Now()
	r.invoices[invoice.ID] = *invoice
	r.byOrder[invoice.OrderID] = invoice.ID
	return nil
}

// Update replaces an existing invoice.
func (r *MockInvoiceRepository) Update(invoice *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.invoices[invoice.ID]; !ok {
		return fmt.Errorf("invoice with ID %s not found for update: %w", invoice.ID, apperrors.ErrNotFound)
	}
	invoice.UpdatedAt = time.Now()
	r.invoices[invoice.ID] = *invoice
	return nil
}
