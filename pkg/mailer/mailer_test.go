package mailer

import (
	"testing"
	"time"

	"gerai/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer_NilWithoutHost(t *testing.T) {
	assert.Nil(t, NewMailer(Config{}))
	assert.NotNil(t, NewMailer(Config{Host: "smtp.example.com", Port: 587}))
}

func TestRenderBody(t *testing.T) {
	invoice := &models.Invoice{
		InvoiceNumber: "INV-202506-0001",
		Items: []models.InvoiceItem{
			{Name: "Laptop", Quantity: 2, LineTotal: 200},
		},
		Subtotal:      200,
		TaxRate:       models.DefaultInvoiceTaxRate,
		PaymentMethod: "credit-card",
		PaymentStatus: models.PaymentCompleted,
		InvoiceDate:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Company: models.CompanyInfo{
			Name:  "Gerai Store",
			Email: "orders@gerai.example",
		},
	}
	invoice.ComputeTotals()

	body, err := renderBody(invoice)
	require.NoError(t, err)

	assert.Contains(t, body, "INV-202506-0001")
	assert.Contains(t, body, "Laptop (x2)")
	assert.Contains(t, body, "15 Jun 2025")
	assert.Contains(t, body, "236.00") // 200 + 18% tax
	assert.Contains(t, body, "orders@gerai.example")
}
