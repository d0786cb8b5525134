package services

import (
	"encoding/json"
	"fmt"
	"log"

	"gerai/internal/apperrors"
	"gerai/internal/models"
	"gerai/internal/repositories"
)

const orderCounterName = "orders"

// EventPublisher publishes domain events to the message broker. The
// RabbitMQ client satisfies it; tests substitute their own.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderConfig carries the pricing knobs applied at order creation.
type OrderConfig struct {
	TaxRate               float64 // sales tax applied on the order subtotal
	ShippingFlatRate      float64
	FreeShippingThreshold float64
}

// CreateOrderInput is the validated request to place an order.
type CreateOrderInput struct {
	Items           []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.Address    `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method" validate:"required,oneof=credit-card debit-card paypal stripe bank-transfer cash-on-delivery"`
}

// CreateOrderItem is one requested order line.
type CreateOrderItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	counterRepo repositories.CounterRepository
	inventory   *InventoryService
	publisher   EventPublisher
	config      OrderConfig
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case event publication is skipped.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	counterRepo repositories.CounterRepository,
	inventory *InventoryService,
	publisher EventPublisher,
	config OrderConfig,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		counterRepo: counterRepo,
		inventory:   inventory,
		publisher:   publisher,
		config:      config,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrdersByBuyer retrieves all orders placed by a buyer.
func (s *OrderService) GetOrdersByBuyer(buyerID string) ([]models.Order, error) {
	return s.orderRepo.GetByBuyer(buyerID)
}

// CreateOrder validates the requested items against the catalog, snapshots
// price/name/seller per line, computes totals, reserves stock for every line
// (all-or-nothing), assigns the order number from the atomic counter and
// persists the order in the pending state.
func (s *OrderService) CreateOrder(buyerID string, input CreateOrderInput) (*models.Order, error) {
	var items []models.OrderItem
	for _, line := range input.Items {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, err)
		}
		if product.Stock < line.Quantity {
			return nil, fmt.Errorf("product %s (requested: %d, available: %d): %w",
				product.Name, line.Quantity, product.Stock, apperrors.ErrInsufficientStock)
		}
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			SellerID:    product.SellerID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price, // Price at the time of order creation
		})
	}

	order := models.NewOrder(buyerID, items, input.ShippingAddress, input.PaymentMethod, s.config.TaxRate)
	// Free shipping only strictly above the threshold; a subtotal exactly
	// at it still pays the flat rate.
	if order.Subtotal <= s.config.FreeShippingThreshold {
		order.ShippingCost = s.config.ShippingFlatRate
	}
	order.RecalculateTotals()

	seq, err := s.counterRepo.Next(orderCounterName)
	if err != nil {
		return nil, fmt.Errorf("failed to assign order number: %w", err)
	}
	order.OrderNumber = fmt.Sprintf("ORD-%06d", seq)

	// Reserve before persisting: the stock check above is advisory only;
	// the reservation is the real conditional decrement.
	if err := s.inventory.ReserveAll(order.Items); err != nil {
		return nil, err
	}
	order.StockReserved = true

	if err := s.orderRepo.Create(order); err != nil {
		s.inventory.ReleaseAll(order.Items)
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.publishEvent("order.created", map[string]interface{}{
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"buyerID":     order.BuyerID,
		"status":      order.Status,
		"total":       order.Total,
	})

	return order, nil
}

// UpdateOrderStatus applies a status transition to an order. Illegal moves
// fail with ErrInvalidTransition; a concurrent update fails with ErrConflict.
func (s *OrderService) UpdateOrderStatus(id string, status models.OrderStatus, note, actorID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if status == models.OrderCancelled {
		return s.CancelOrder(id, note, actorID)
	}

	if err := order.Transition(status, note, actorID); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	s.publishEvent("order.status_changed", map[string]interface{}{
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"status":      order.Status,
	})

	return order, nil
}

// CancelOrder cancels a pending or confirmed order and releases its stock
// reservation. The StockReserved flag makes a repeated cancel release-safe:
// stock goes back exactly once.
func (s *OrderService) CancelOrder(id, reason, actorID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := order.Cancel(reason, actorID); err != nil {
		return nil, err
	}

	releaseStock := order.StockReserved
	order.StockReserved = false

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	if releaseStock {
		s.inventory.ReleaseAll(order.Items)
	}

	s.publishEvent("order.status_changed", map[string]interface{}{
		"orderID":      order.ID,
		"orderNumber":  order.OrderNumber,
		"status":       order.Status,
		"refundStatus": order.Cancellation.RefundStatus,
	})

	return order, nil
}

// MarkPaid records a completed payment on the order and persists it. A
// pending order auto-confirms. Used by the payment confirmation workflow.
func (s *OrderService) MarkPaid(order *models.Order, transactionID string) error {
	if err := order.ProcessPayment(transactionID); err != nil {
		return err
	}
	if err := s.orderRepo.Update(order); err != nil {
		return err
	}

	s.publishEvent("order.status_changed", map[string]interface{}{
		"orderID":       order.ID,
		"orderNumber":   order.OrderNumber,
		"status":        order.Status,
		"paymentStatus": order.Payment.Status,
	})

	return nil
}

func (s *OrderService) publishEvent(routingKey string, payload map[string]interface{}) {
	publishEvent(s.publisher, routingKey, payload)
}

// publishEvent publishes a domain event, logging rather than failing when
// the broker is unavailable.
func publishEvent(publisher EventPublisher, routingKey string, payload map[string]interface{}) {
	if publisher == nil {
		log.Println("Event publisher is not initialized. Skipping message publication.")
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := publisher.Publish("order", routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
