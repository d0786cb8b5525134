package repositories

import (
	"gerai/internal/models"
)

// InvoiceRepository defines the interface for invoice data access. Create
// must reject a second invoice for the same order with
// apperrors.ErrDuplicateInvoice.
type InvoiceRepository interface {
	GetByID(id string) (*models.Invoice, error)
	GetByOrderID(orderID string) (*models.Invoice, error)
	GetByBuyer(buyerID string) ([]models.Invoice, error)
	Create(invoice *models.Invoice) error
	Update(invoice *models.Invoice) error
}
