// Package mailer delivers invoice emails over SMTP with the rendered PDF
// attached. Delivery is best-effort; the caller treats every failure here as
// non-fatal.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"gerai/internal/apperrors"
	"gerai/internal/models"

	"gopkg.in/gomail.v2"
)

// Config holds SMTP connection and sender details. An empty Host means
// email is not configured and NewMailer returns nil.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Mailer implements services.Notifier over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	cfg    Config
}

// NewMailer creates a Mailer, or nil when no SMTP host is configured so the
// caller can skip notification entirely.
func NewMailer(cfg Config) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		cfg:    cfg,
	}
}

// SendInvoice emails the invoice to its billing address with the PDF
// attached.
func (m *Mailer) SendInvoice(invoice *models.Invoice, document []byte) error {
	body, err := renderBody(invoice)
	if err != nil {
		return fmt.Errorf("failed to render invoice email body: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	msg.SetHeader("To", invoice.BillingAddress.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Invoice %s - Order Confirmation", invoice.InvoiceNumber))
	msg.SetBody("text/html", body)
	msg.Attach(
		fmt.Sprintf("Invoice-%s.pdf", invoice.InvoiceNumber),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(document)
			return err
		}),
	)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("invoice email to %s: %w: %w", invoice.BillingAddress.Email, apperrors.ErrDeliveryFailed, err)
	}
	return nil
}

var bodyTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px;">
    <h2 style="color: #007bff; border-bottom: 2px solid #007bff; padding-bottom: 10px;">{{.Company.Name}} - Invoice &amp; Order Confirmation</h2>
    <p><strong>Invoice Number:</strong> {{.InvoiceNumber}}</p>
    <p><strong>Invoice Date:</strong> {{.InvoiceDate.Format "02 Jan 2006"}}</p>
    <p><strong>Payment Method:</strong> {{.PaymentMethod}}</p>
    <p><strong>Payment Status:</strong> <span style="color: green;">{{.PaymentStatus}}</span></p>
    <h3>Order Items</h3>
    {{range .Items}}<p>{{.Name}} (x{{.Quantity}}) - {{printf "%.2f" .LineTotal}}</p>{{end}}
    <p style="text-align: right;">Subtotal: {{printf "%.2f" .Subtotal}}<br>
    Tax ({{printf "%.0f" .TaxRate}}%): {{printf "%.2f" .Tax}}<br>
    Shipping: {{printf "%.2f" .ShippingCost}}<br>
    <strong style="font-size: 18px; color: #007bff;">Total: {{printf "%.2f" .TotalAmount}}</strong></p>
    <p style="color: #666;">Thank you for your business! Your detailed invoice is attached as PDF.</p>
    <p style="color: #666;">Questions? Contact us at {{.Company.Email}}.</p>
  </div>
</body>
</html>`))

func renderBody(invoice *models.Invoice) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, invoice); err != nil {
		return "", err
	}
	return buf.String(), nil
}
