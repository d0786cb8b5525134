package repositories

import (
	"gerai/internal/models"
)

// ProductRepository defines the interface for product data access.
// ReserveStock and ReleaseStock form the inventory ledger: reservation is a
// single conditional decrement so concurrent checkouts can never oversell.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// ReserveStock atomically decrements stock by quantity, failing with
	// apperrors.ErrInsufficientStock when fewer units remain.
	ReserveStock(id string, quantity int) error
	// ReleaseStock atomically returns quantity units to stock.
	ReleaseStock(id string, quantity int) error
}
