// Package invoicepdf renders invoices into A4 PDF documents. Rendering is a
// pure function of the invoice: no clock, no I/O beyond the returned bytes.
package invoicepdf

import (
	"bytes"
	"fmt"

	"gerai/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// Renderer implements services.DocumentRenderer with gofpdf.
type Renderer struct{}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render builds the invoice PDF and returns its bytes.
func (r *Renderer) Render(invoice *models.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	writeHeader(pdf, invoice)
	writeParties(pdf, invoice)
	writePaymentDetails(pdf, invoice)
	writeItemsTable(pdf, invoice)
	writeTotals(pdf, invoice)
	writeFooter(pdf, invoice)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice %s: %w", invoice.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func writeHeader(pdf *gofpdf.Fpdf, invoice *models.Invoice) {
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(0, 123, 255)
	pdf.CellFormat(95, 12, "INVOICE", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(85, 12, fmt.Sprintf("Invoice #%s", invoice.InvoiceNumber), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(95, 5, invoice.Company.Name, "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 5, fmt.Sprintf("Date: %s", invoice.InvoiceDate.Format("02 Jan 2006")), "", 1, "R", false, 0, "")
	pdf.CellFormat(95, 5, invoice.Company.Website, "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 5, fmt.Sprintf("Due: %s", invoice.DueDate.Format("02 Jan 2006")), "", 1, "R", false, 0, "")

	pdf.Ln(4)
	pdf.SetDrawColor(204, 204, 204)
	x, y := pdf.GetXY()
	pdf.Line(x, y, 195, y)
	pdf.Ln(4)
}

func writeParties(pdf *gofpdf.Fpdf, invoice *models.Invoice) {
	top := pdf.GetY()

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(90, 6, "From:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		invoice.Company.Name,
		invoice.Company.Address,
		fmt.Sprintf("Phone: %s", invoice.Company.Phone),
		fmt.Sprintf("Email: %s", invoice.Company.Email),
		fmt.Sprintf("Tax ID: %s", invoice.Company.TaxID),
	} {
		pdf.CellFormat(90, 5, line, "", 1, "L", false, 0, "")
	}

	pdf.SetXY(110, top)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(85, 6, "Bill To:", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	billing := invoice.BillingAddress
	for _, line := range []string{
		billing.Name,
		billing.Street,
		fmt.Sprintf("%s, %s %s", billing.City, billing.State, billing.PostalCode),
		billing.Country,
		fmt.Sprintf("Email: %s", billing.Email),
	} {
		pdf.CellFormat(85, 5, line, "", 2, "L", false, 0, "")
	}

	pdf.SetXY(15, pdf.GetY()+8)
}

func writePaymentDetails(pdf *gofpdf.Fpdf, invoice *models.Invoice) {
	pdf.SetFont("Helvetica", "", 10)
	details := [][2]string{
		{"Payment Method", invoice.PaymentMethod},
		{"Payment Status", string(invoice.PaymentStatus)},
		{"Transaction ID", orNA(invoice.TransactionID)},
	}
	for _, d := range details {
		pdf.CellFormat(45, 5, d[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(135, 5, d[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

func writeItemsTable(pdf *gofpdf.Fpdf, invoice *models.Invoice) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(0, 123, 255)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(90, 7, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(51, 51, 51)
	for _, item := range invoice.Items {
		pdf.CellFormat(90, 6, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", item.LineTotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)
}

func writeTotals(pdf *gofpdf.Fpdf, invoice *models.Invoice) {
	rows := [][2]string{
		{"Subtotal", fmt.Sprintf("%.2f", invoice.Subtotal)},
		{fmt.Sprintf("Tax (%.0f%%)", invoice.TaxRate), fmt.Sprintf("%.2f", invoice.Tax)},
		{"Shipping", fmt.Sprintf("%.2f", invoice.ShippingCost)},
		{"Discount", fmt.Sprintf("-%.2f", invoice.Discount)},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(110, 5, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 5, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 5, row[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 123, 255)
	pdf.CellFormat(110, 8, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(35, 8, "Total Amount:", "", 0, "L", false, 0, "")
	pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", invoice.TotalAmount), "", 1, "R", false, 0, "")
	pdf.SetTextColor(51, 51, 51)
	pdf.Ln(4)
}

func writeFooter(pdf *gofpdf.Fpdf, invoice *models.Invoice) {
	if invoice.PaymentStatus == models.PaymentCompleted {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(40, 167, 69)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(30, 8, "PAID", "", 1, "C", true, 0, "")
		pdf.SetTextColor(51, 51, 51)
		pdf.Ln(3)
	}

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(180, 5, "Notes:", "", 1, "L", false, 0, "")
	pdf.MultiCell(180, 4, invoice.Notes, "", "L", false)
	pdf.Ln(2)
	pdf.CellFormat(180, 5, "Terms & Conditions:", "", 1, "L", false, 0, "")
	pdf.MultiCell(180, 4, invoice.Terms, "", "L", false)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
