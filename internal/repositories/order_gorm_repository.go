package repositories

import (
	"errors"
	"fmt"

	"gerai/internal/apperrors"
	"gerai/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders from the database.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order by its ID from the database.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByBuyer retrieves all orders placed by a buyer, newest first.
func (r *GORMOrderRepository) GetByBuyer(buyerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("buyer_id = ?", buyerID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for buyer %s: %w", buyerID, err)
	}
	return orders, nil
}

// Create creates a new order in the database.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update persists the order only when its stored version still matches,
// bumping the version on success. A stale version fails with ErrConflict so
// the caller can reload and retry instead of silently overwriting history.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	current := order.Version
	order.Version = current + 1

	res := r.db.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, current).
		Select("*").Omit("id", "created_at").
		Updates(order)
	if res.Error != nil {
		order.Version = current
		return fmt.Errorf("failed to update order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		order.Version = current
		var count int64
		r.db.Model(&models.Order{}).Where("id = ?", order.ID).Count(&count)
		if count == 0 {
			return fmt.Errorf("order with ID %s not found for update: %w", order.ID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("order %s was modified concurrently: %w", order.ID, apperrors.ErrConflict)
	}
	return nil
}
