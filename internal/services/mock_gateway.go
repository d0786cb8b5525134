package services

import (
	"fmt"
	"math/rand"
	"time"
)

// MockPaymentGateway simulates a payment provider for demo and test
// environments. CreateOrder fabricates a checkout handle and Verify accepts
// every signature.
type MockPaymentGateway struct{}

// NewMockPaymentGateway creates a new MockPaymentGateway.
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

// CreateOrder fabricates a gateway checkout order.
func (g *MockPaymentGateway) CreateOrder(amount float64, currency, receipt string) (*GatewayOrder, error) {
	return &GatewayOrder{
		ID:       fmt.Sprintf("order_%d%04d", time.Now().UnixMilli(), rand.Intn(10000)),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

// Verify accepts the payment unconditionally and echoes back a captured
// payment result.
func (g *MockPaymentGateway) Verify(paymentID, gatewayOrderID, signature string) (*PaymentResult, error) {
	return &PaymentResult{
		PaymentID: paymentID,
		OrderID:   gatewayOrderID,
		Amount:    0,
		Currency:  "USD",
		Method:    "card",
	}, nil
}
