package services

import (
	"errors"
	"fmt"
	"log"

	"gerai/internal/apperrors"
	"gerai/internal/models"
	"gerai/internal/repositories"
)

// CartService handles business logic for the buyer's cart. The cart is
// advisory only: stock is checked when items are added, but nothing is
// reserved until checkout places the order.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	orders      *OrderService
}

// NewCartService creates a new CartService.
func NewCartService(
	cartRepo repositories.CartRepository,
	productRepo repositories.ProductRepository,
	orders *OrderService,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orders:      orders,
	}
}

// GetCart returns the buyer's cart, creating an empty one on first access.
func (s *CartService) GetCart(buyerID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByBuyer(buyerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		cart = models.NewCart(buyerID)
		if err := s.cartRepo.Save(cart); err != nil {
			return nil, err
		}
		return cart, nil
	}
	return cart, err
}

// AddItem adds quantity units of a product to the buyer's cart, refreshing
// the line's price from the catalog. The merged quantity must fit the
// per-line cap and the product's current stock.
func (s *CartService) AddItem(buyerID, productID string, quantity int) (*models.Cart, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}

	cart, err := s.GetCart(buyerID)
	if err != nil {
		return nil, err
	}

	requested := quantity
	for _, item := range cart.Items {
		if item.ProductID == productID {
			requested += item.Quantity
		}
	}
	if product.Stock < requested {
		return nil, fmt.Errorf("product %s (requested: %d, available: %d): %w",
			product.Name, requested, product.Stock, apperrors.ErrInsufficientStock)
	}

	if err := cart.AddItem(product.ID, product.Name, product.Price, quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetItemQuantity replaces a cart line's quantity; zero removes the line.
func (s *CartService) SetItemQuantity(buyerID, productID string, quantity int) (*models.Cart, error) {
	cart, err := s.GetCart(buyerID)
	if err != nil {
		return nil, err
	}
	if err := cart.SetItemQuantity(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops a product from the buyer's cart.
func (s *CartService) RemoveItem(buyerID, productID string) (*models.Cart, error) {
	return s.SetItemQuantity(buyerID, productID, 0)
}

// ClearCart empties the buyer's cart.
func (s *CartService) ClearCart(buyerID string) (*models.Cart, error) {
	cart, err := s.GetCart(buyerID)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Checkout places an order from the cart's contents and empties the cart on
// success. Prices are re-read from the catalog by order creation; the cart's
// snapshot prices are display-only.
func (s *CartService) Checkout(buyerID string, shipping models.Address, paymentMethod string) (*models.Order, error) {
	cart, err := s.GetCart(buyerID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("cart for buyer %s is empty: %w", buyerID, apperrors.ErrIllegalState)
	}

	input := CreateOrderInput{
		ShippingAddress: shipping,
		PaymentMethod:   paymentMethod,
	}
	for _, item := range cart.Items {
		input.Items = append(input.Items, CreateOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := s.orders.CreateOrder(buyerID, input)
	if err != nil {
		return nil, err
	}

	cart.Clear()
	if err := s.cartRepo.Save(cart); err != nil {
		log.Printf("Warning: failed to clear cart for buyer %s after checkout: %v", buyerID, err)
	}
	return order, nil
}
