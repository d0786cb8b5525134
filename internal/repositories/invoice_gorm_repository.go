package repositories

import (
	"errors"
	"fmt"

	"gerai/internal/apperrors"
	"gerai/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMInvoiceRepository is a GORM implementation of InvoiceRepository.
type GORMInvoiceRepository struct {
	db *gorm.DB
}

// NewGORMInvoiceRepository creates a new instance of GORMInvoiceRepository.
func NewGORMInvoiceRepository(db *gorm.DB) *GORMInvoiceRepository {
	return &GORMInvoiceRepository{
		db: db,
	}
}

// GetByID retrieves a single invoice by its ID from the database.
func (r *GORMInvoiceRepository) GetByID(id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice by ID %s: %w", id, err)
	}
	return &invoice, nil
}

// GetByOrderID retrieves the invoice issued for an order, if any.
func (r *GORMInvoiceRepository) GetByOrderID(orderID string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.First(&invoice, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice for order %s: %w", orderID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice for order %s: %w", orderID, err)
	}
	return &invoice, nil
}

// GetByBuyer retrieves all invoices issued to a buyer, newest first.
func (r *GORMInvoiceRepository) GetByBuyer(buyerID string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.db.Where("buyer_id = ?", buyerID).Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to get invoices for buyer %s: %w", buyerID, err)
	}
	return invoices, nil
}

// Create inserts a new invoice. The unique index on order_id is the real
// one-invoice-per-order guard; a violation surfaces as ErrDuplicateInvoice
// so a retried confirmation can pick up the existing invoice instead.
func (r *GORMInvoiceRepository) Create(invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	if err := r.db.Create(invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("order %s: %w", invoice.OrderID, apperrors.ErrDuplicateInvoice)
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// Update updates an existing invoice in the database.
func (r *GORMInvoiceRepository) Update(invoice *models.Invoice) error {
	res := r.db.Save(invoice)
	if res.Error != nil {
		return fmt.Errorf("failed to update invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("invoice with ID %s not found for update: %w", invoice.ID, apperrors.ErrNotFound)
	}
	return nil
}
