package services

import (
	"fmt"
	"log"

	"gerai/internal/models"
	"gerai/internal/repositories"
)

// InventoryService coordinates stock reservations across the lines of an
// order. Per-line atomicity lives in the repository; this service adds the
// all-or-nothing guarantee across lines.
type InventoryService struct {
	productRepo repositories.ProductRepository
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(productRepo repositories.ProductRepository) *InventoryService {
	return &InventoryService{
		productRepo: productRepo,
	}
}

// ReserveAll reserves stock for every order line. If any line fails, the
// lines already reserved are released again and the failure is returned, so
// a rejected order never leaves a partial decrement behind.
func (s *InventoryService) ReserveAll(items []models.OrderItem) error {
	reserved := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if err := s.productRepo.ReserveStock(item.ProductID, item.Quantity); err != nil {
			s.ReleaseAll(reserved)
			return fmt.Errorf("failed to reserve %d of product %s: %w", item.Quantity, item.ProductID, err)
		}
		reserved = append(reserved, item)
	}
	return nil
}

// ReleaseAll returns reserved stock for every order line. Release failures
// are logged rather than propagated; the caller has already decided the
// order is not going through.
func (s *InventoryService) ReleaseAll(items []models.OrderItem) {
	for _, item := range items {
		if err := s.productRepo.ReleaseStock(item.ProductID, item.Quantity); err != nil {
			log.Printf("Warning: failed to release %d of product %s: %v", item.Quantity, item.ProductID, err)
		}
	}
}
