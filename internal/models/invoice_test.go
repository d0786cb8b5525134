package models_test

import (
	"testing"
	"time"

	"gerai/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestInvoice_ComputeTotals(t *testing.T) {
	inv := models.Invoice{
		Subtotal: 99.99,
		TaxRate:  models.DefaultInvoiceTaxRate,
	}
	inv.ComputeTotals()

	assert.InDelta(t, 18.00, inv.Tax, 1e-9)
	assert.InDelta(t, 117.99, inv.TotalAmount, 1e-9)
}

func TestInvoice_ComputeTotals_Rounding(t *testing.T) {
	inv := models.Invoice{
		Subtotal: 10.01,
		TaxRate:  18.0,
	}
	inv.ComputeTotals()

	// 10.01 * 0.18 = 1.8018, rounded to cents.
	assert.InDelta(t, 1.80, inv.Tax, 1e-9)
}

func TestInvoice_ComputeTotals_WithShippingAndDiscount(t *testing.T) {
	inv := models.Invoice{
		Subtotal:     200,
		TaxRate:      18.0,
		ShippingCost: 9.99,
		Discount:     20,
	}
	inv.ComputeTotals()

	assert.InDelta(t, 36.00, inv.Tax, 1e-9)
	assert.InDelta(t, 225.99, inv.TotalAmount, 1e-9)
}

func TestInvoice_IsDue(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	overdue := models.Invoice{DueDate: past, Status: models.InvoiceSent}
	assert.True(t, overdue.IsDue())

	paid := models.Invoice{DueDate: past, Status: models.InvoicePaid}
	assert.False(t, paid.IsDue())

	current := models.Invoice{DueDate: future, Status: models.InvoiceSent}
	assert.False(t, current.IsDue())
}
