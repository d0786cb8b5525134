package models

import (
	"fmt"
	"time"

	"gerai/internal/apperrors"
)

// MaxCartLineQuantity caps how many units of one product a cart may hold.
const MaxCartLineQuantity = 10

// CartItem is a single line in a buyer's cart. UnitPrice is refreshed from
// the catalog on every add, so a stale cart still checks out at the current
// price.
type CartItem struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   float64   `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	AddedAt     time.Time `json:"added_at"`
}

// Cart holds a buyer's pending selection. One cart per buyer; Subtotal and
// TotalItems are derived fields maintained by Recalculate.
type Cart struct {
	ID      string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID string `json:"buyer_id" gorm:"uniqueIndex;type:varchar(36)"`

	Items []CartItem `json:"items" gorm:"serializer:json"`

	Subtotal   float64 `json:"subtotal"`
	TotalItems int     `json:"total_items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCart creates an empty cart for a buyer.
func NewCart(buyerID string) *Cart {
	return &Cart{BuyerID: buyerID, Items: []CartItem{}}
}

// Recalculate recomputes the derived totals from Items.
func (c *Cart) Recalculate() {
	var subtotal float64
	total := 0
	for _, item := range c.Items {
		subtotal += item.UnitPrice * float64(item.Quantity)
		total += item.Quantity
	}
	c.Subtotal = subtotal
	c.TotalItems = total
}

// AddItem merges quantity into an existing line or appends a new one. An
// existing line also picks up the current price. The merged quantity may not
// exceed MaxCartLineQuantity.
func (c *Cart) AddItem(productID, productName string, unitPrice float64, quantity int) error {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		merged := c.Items[i].Quantity + quantity
		if merged > MaxCartLineQuantity {
			return fmt.Errorf("product %s (requested: %d, limit: %d): %w",
				productID, merged, MaxCartLineQuantity, apperrors.ErrQuantityLimit)
		}
		c.Items[i].Quantity = merged
		c.Items[i].UnitPrice = unitPrice
		c.Items[i].ProductName = productName
		c.Recalculate()
		return nil
	}

	if quantity > MaxCartLineQuantity {
		return fmt.Errorf("product %s (requested: %d, limit: %d): %w",
			productID, quantity, MaxCartLineQuantity, apperrors.ErrQuantityLimit)
	}
	c.Items = append(c.Items, CartItem{
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		AddedAt:     time.Now(),
	})
	c.Recalculate()
	return nil
}

// SetItemQuantity replaces a line's quantity; zero or less removes the line.
func (c *Cart) SetItemQuantity(productID string, quantity int) error {
	if quantity > MaxCartLineQuantity {
		return fmt.Errorf("product %s (requested: %d, limit: %d): %w",
			productID, quantity, MaxCartLineQuantity, apperrors.ErrQuantityLimit)
	}
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		c.Recalculate()
		return nil
	}
	return fmt.Errorf("product %s not in cart: %w", productID, apperrors.ErrNotFound)
}

// RemoveItem drops a line from the cart.
func (c *Cart) RemoveItem(productID string) error {
	return c.SetItemQuantity(productID, 0)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recalculate()
}
