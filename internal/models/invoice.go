package models

import (
	"math"
	"time"
)

// InvoiceStatus enumerates the invoice document states.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Statutory invoice defaults. The invoice tax rate is deliberately
// independent of the order's rate: orders charge a configurable sales rate,
// invoices report the fixed statutory rate.
const (
	DefaultInvoiceTaxRate = 18.0
	InvoiceDueDays        = 30
)

// InvoiceItem is a frozen copy of an order line taken at payment
// confirmation. It must survive later edits or deletion of the product.
type InvoiceItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// CompanyInfo is the seller-of-record block printed on every invoice.
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	TaxID   string `json:"tax_id"`
	Website string `json:"website"`
}

// BillingAddress is the recipient block on an invoice.
type BillingAddress struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Invoice is the billing document issued exactly once per paid order.
// The unique index on OrderID is what enforces the one-to-one guarantee.
type Invoice struct {
	ID            string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	InvoiceNumber string `json:"invoice_number" gorm:"uniqueIndex;type:varchar(20)"`
	OrderID       string `json:"order_id" gorm:"uniqueIndex;type:varchar(36)"`
	BuyerID       string `json:"buyer_id" gorm:"index;type:varchar(36)"`

	Items []InvoiceItem `json:"items" gorm:"serializer:json"`

	Subtotal     float64 `json:"subtotal"`
	TaxRate      float64 `json:"tax_rate"`
	Tax          float64 `json:"tax"`
	ShippingCost float64 `json:"shipping_cost"`
	Discount     float64 `json:"discount"`
	TotalAmount  float64 `json:"total_amount"`

	BillingAddress BillingAddress `json:"billing_address" gorm:"embedded;embeddedPrefix:billing_"`
	Company        CompanyInfo    `json:"company" gorm:"embedded;embeddedPrefix:company_"`

	PaymentMethod string        `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TransactionID string        `json:"transaction_id,omitempty"`

	Status      InvoiceStatus `json:"status" gorm:"type:varchar(20)"`
	PDFPath     string        `json:"pdf_path,omitempty"`
	EmailSent   bool          `json:"email_sent"`
	EmailSentAt *time.Time    `json:"email_sent_at,omitempty"`

	InvoiceDate time.Time `json:"invoice_date"`
	DueDate     time.Time `json:"due_date"`

	Notes string `json:"notes"`
	Terms string `json:"terms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeTotals derives tax and total from the invoice's own fields.
// tax = round(subtotal * taxRate / 100, 2).
func (i *Invoice) ComputeTotals() {
	i.Tax = math.Round(i.Subtotal*i.TaxRate/100*100) / 100
	i.TotalAmount = i.Subtotal + i.Tax + i.ShippingCost - i.Discount
}

// IsDue reports whether the invoice is past due and still unpaid.
func (i *Invoice) IsDue() bool {
	return i.DueDate.Before(time.Now()) && i.Status != InvoicePaid
}
