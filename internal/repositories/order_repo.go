package repositories

import (
	"gerai/internal/models"
)

// OrderRepository defines the interface for order data access. Update is
// guarded by the order's version so two concurrent writers cannot clobber
// each other's history entries; a stale write fails with
// apperrors.ErrConflict.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByBuyer(buyerID string) ([]models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order) error
}
