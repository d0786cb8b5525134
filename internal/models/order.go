package models

import (
	"fmt"
	"time"

	"gerai/internal/apperrors"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderReturned   OrderStatus = "returned"
	OrderRefunded   OrderStatus = "refunded"
)

// PaymentStatus enumerates the payment sub-states of an order.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially-refunded"
)

// Refund states recorded on cancellation.
const (
	RefundPending   = "pending"
	RefundProcessed = "processed"
	RefundRejected  = "rejected"
)

// happyPath orders the forward states; a transition along it may skip steps
// (an order confirmed today can be marked delivered directly).
var happyPath = map[OrderStatus]int{
	OrderPending:    0,
	OrderConfirmed:  1,
	OrderProcessing: 2,
	OrderShipped:    3,
	OrderDelivered:  4,
}

// OrderItem represents a single line within an order. ProductName and
// UnitPrice are captured at order time so later product edits do not
// rewrite history.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	SellerID    string  `json:"seller_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity" validate:"gte=1"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

// StatusChange is one append-only entry in an order's status history.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Note      string      `json:"note,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
}

// Payment carries the payment sub-document of an order.
type Payment struct {
	Method        string        `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
}

// Address is a shipping or billing address.
type Address struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
}

// Cancellation records why and by whom an order was cancelled.
type Cancellation struct {
	Reason       string     `json:"reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy  string     `json:"cancelled_by,omitempty"`
	RefundStatus string     `json:"refund_status,omitempty"`
}

// Order represents a customer order. Totals are derived fields; every
// mutation of Items must go through RecalculateTotals. Status moves only
// through Transition so the history stays append-only and complete.
type Order struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber string `json:"order_number" gorm:"uniqueIndex;type:varchar(20)"`
	BuyerID     string `json:"buyer_id" gorm:"index;type:varchar(36)"`

	Items []OrderItem `json:"items" gorm:"serializer:json"`

	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	TaxRate      float64 `json:"tax_rate"`
	ShippingCost float64 `json:"shipping_cost"`
	Discount     float64 `json:"discount"`
	Total        float64 `json:"total"`

	Status        OrderStatus    `json:"status" gorm:"index;type:varchar(20)"`
	StatusHistory []StatusChange `json:"status_history" gorm:"serializer:json"`

	Payment         Payment      `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
	ShippingAddress Address      `json:"shipping_address" gorm:"embedded;embeddedPrefix:shipping_"`
	Cancellation    Cancellation `json:"cancellation" gorm:"embedded;embeddedPrefix:cancellation_"`

	// StockReserved tracks whether this order currently holds a stock
	// reservation, so a repeated cancel cannot release twice.
	StockReserved bool `json:"-"`

	ShippedAt        *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	ActualDeliveryAt *time.Time `json:"actual_delivery_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`

	// Version guards concurrent updates; the repository only persists when
	// the stored version still matches.
	Version int `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewOrder builds an order in the pending state with its initial history entry.
func NewOrder(buyerID string, items []OrderItem, shipping Address, paymentMethod string, taxRate float64) *Order {
	o := &Order{
		BuyerID:         buyerID,
		Items:           items,
		TaxRate:         taxRate,
		Status:          OrderPending,
		Payment:         Payment{Method: paymentMethod, Status: PaymentPending},
		ShippingAddress: shipping,
	}
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Status:    OrderPending,
		Timestamp: time.Now(),
		Note:      "Order created",
	})
	o.RecalculateTotals()
	return o
}

// RecalculateTotals recomputes the derived pricing fields from Items.
// total = max(0, subtotal + tax + shipping - discount).
func (o *Order) RecalculateTotals() {
	var subtotal float64
	for _, item := range o.Items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	o.Subtotal = subtotal
	o.Tax = subtotal * o.TaxRate
	o.Total = o.Subtotal + o.Tax + o.ShippingCost - o.Discount
	if o.Total < 0 {
		o.Total = 0
	}
}

// TotalItems returns the summed quantity across all lines.
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// CanBeCancelled reports whether the order may still be cancelled.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderPending || o.Status == OrderConfirmed
}

// canTransition validates a single status move.
func (o *Order) canTransition(to OrderStatus) bool {
	from := o.Status
	if from == to {
		return false
	}
	// Forward moves along the happy path, skips allowed.
	fromRank, fromOK := happyPath[from]
	toRank, toOK := happyPath[to]
	if fromOK && toOK {
		return toRank > fromRank
	}
	switch to {
	case OrderCancelled:
		return o.CanBeCancelled()
	case OrderReturned:
		return from == OrderDelivered
	case OrderRefunded:
		return from == OrderReturned
	}
	return false
}

// Transition moves the order to newStatus, appends the history entry and
// stamps the status-specific timestamps. Illegal moves fail with
// apperrors.ErrInvalidTransition and leave the order unchanged.
func (o *Order) Transition(newStatus OrderStatus, note, actorID string) error {
	if !o.canTransition(newStatus) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, o.Status, newStatus)
	}

	now := time.Now()
	o.Status = newStatus
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Status:    newStatus,
		Timestamp: now,
		Note:      note,
		ActorID:   actorID,
	})

	switch newStatus {
	case OrderShipped:
		o.ShippedAt = &now
	case OrderDelivered:
		o.DeliveredAt = &now
		o.ActualDeliveryAt = &now
	case OrderCancelled:
		o.CancelledAt = &now
	}

	return nil
}

// ProcessPayment marks the payment completed and auto-confirms a pending
// order. The confirmation transition appends its own history entry.
func (o *Order) ProcessPayment(transactionID string) error {
	now := time.Now()
	o.Payment.Status = PaymentCompleted
	o.Payment.TransactionID = transactionID
	o.Payment.PaidAt = &now

	if o.Status == OrderPending {
		return o.Transition(OrderConfirmed, "Payment processed successfully", "")
	}
	return nil
}

// Cancel cancels the order. Only pending or confirmed orders qualify; a
// completed payment leaves a pending refund behind, otherwise there is
// nothing to refund.
func (o *Order) Cancel(reason, actorID string) error {
	if !o.CanBeCancelled() {
		return fmt.Errorf("%w: cannot cancel order in status %s", apperrors.ErrIllegalState, o.Status)
	}

	refundStatus := RefundProcessed
	if o.Payment.Status == PaymentCompleted {
		refundStatus = RefundPending
	}
	now := time.Now()
	o.Cancellation = Cancellation{
		Reason:       reason,
		CancelledAt:  &now,
		CancelledBy:  actorID,
		RefundStatus: refundStatus,
	}

	return o.Transition(OrderCancelled, fmt.Sprintf("Order cancelled: %s", reason), actorID)
}
