package services_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"gerai/internal/apperrors"
	"gerai/internal/models"
	"gerai/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyGateway records verification calls and can be told to fail.
type spyGateway struct {
	verifyCalls int
	failVerify  bool
}

func (g *spyGateway) CreateOrder(amount float64, currency, receipt string) (*services.GatewayOrder, error) {
	return &services.GatewayOrder{ID: "gw_order_1", Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (g *spyGateway) Verify(paymentID, gatewayOrderID, signature string) (*services.PaymentResult, error) {
	g.verifyCalls++
	if g.failVerify {
		return nil, fmt.Errorf("signature mismatch for payment %s: %w", paymentID, apperrors.ErrPaymentVerificationFailed)
	}
	return &services.PaymentResult{PaymentID: paymentID, OrderID: gatewayOrderID, Currency: "USD"}, nil
}

type stubRenderer struct {
	fail bool
}

func (r *stubRenderer) Render(invoice *models.Invoice) ([]byte, error) {
	if r.fail {
		return nil, errors.New("render failed")
	}
	return []byte("%PDF-1.4 " + invoice.InvoiceNumber), nil
}

type stubNotifier struct {
	sent int
	fail bool
}

func (n *stubNotifier) SendInvoice(invoice *models.Invoice, document []byte) error {
	if n.fail {
		return errors.New("smtp unreachable")
	}
	n.sent++
	return nil
}

type paymentFixture struct {
	service  *services.PaymentService
	invoices *invoiceFixture
	gateway  *spyGateway
	renderer *stubRenderer
	notifier *stubNotifier
	dir      string
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	invoices := newInvoiceFixture(t)
	gateway := &spyGateway{}
	renderer := &stubRenderer{}
	notifier := &stubNotifier{}
	dir := t.TempDir()

	service := services.NewPaymentService(
		invoices.orders.orderRepo,
		invoices.orders.service,
		invoices.service,
		gateway,
		renderer,
		notifier,
		dir,
	)
	return &paymentFixture{
		service:  service,
		invoices: invoices,
		gateway:  gateway,
		renderer: renderer,
		notifier: notifier,
		dir:      dir,
	}
}

func TestPaymentService_CreatePaymentOrder(t *testing.T) {
	f := newPaymentFixture(t)
	order := f.invoices.orders.createOrder(t)

	gwOrder, err := f.service.CreatePaymentOrder("buyer-1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Total, gwOrder.Amount)
	assert.Equal(t, order.OrderNumber, gwOrder.Receipt)

	_, err = f.service.CreatePaymentOrder("someone-else", order.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestPaymentService_ConfirmPayment(t *testing.T) {
	f := newPaymentFixture(t)
	order := f.invoices.orders.createOrder(t)

	result, err := f.service.ConfirmPayment("buyer-1", order.ID, "pay_1", "gw_order_1", "sig")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentCompleted, result.Order.Payment.Status)
	assert.Equal(t, models.OrderConfirmed, result.Order.Status)
	require.NotNil(t, result.Invoice)
	assert.True(t, result.PDFGenerated)
	assert.True(t, result.EmailSent)
	assert.Equal(t, 1, f.notifier.sent)

	// The PDF landed in the invoice directory.
	path := filepath.Join(f.dir, fmt.Sprintf("Invoice-%s.pdf", result.Invoice.InvoiceNumber))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	stored, err := f.invoices.service.GetInvoiceByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, path, stored.PDFPath)
	assert.True(t, stored.EmailSent)
}

func TestPaymentService_ConfirmPayment_Idempotent(t *testing.T) {
	f := newPaymentFixture(t)
	order := f.invoices.orders.createOrder(t)

	first, err := f.service.ConfirmPayment("buyer-1", order.ID, "pay_1", "gw_order_1", "sig")
	require.NoError(t, err)

	// A retried webhook must not verify again or issue a second invoice.
	second, err := f.service.ConfirmPayment("buyer-1", order.ID, "pay_1", "gw_order_1", "sig")
	require.NoError(t, err)

	assert.Equal(t, 1, f.gateway.verifyCalls)
	assert.Equal(t, first.Invoice.InvoiceNumber, second.Invoice.InvoiceNumber)
	assert.Equal(t, 1, f.notifier.sent)

	invoices, err := f.invoices.invoiceRepo.GetByBuyer("buyer-1")
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestPaymentService_ConfirmPayment_ResumesAfterPartialFailure(t *testing.T) {
	f := newPaymentFixture(t)
	order := f.invoices.orders.createOrder(t)

	// The order was marked paid but the process died before the invoice was
	// issued. The retry must resume invoice issuance, not error out.
	require.NoError(t, f.invoices.orders.service.MarkPaid(order, "pay_1"))
	_, err := f.invoices.service.GetInvoiceByOrderID(order.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	result, err := f.service.ConfirmPayment("buyer-1", order.ID, "pay_1", "gw_order_1", "sig")
	require.NoError(t, err)

	assert.Zero(t, f.gateway.verifyCalls)
	require.NotNil(t, result.Invoice)
	assert.True(t, result.PDFGenerated)
	assert.True(t, result.EmailSent)

	stored, err := f.invoices.service.GetInvoiceByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Invoice.InvoiceNumber, stored.InvoiceNumber)

	// A further retry short-circuits to the now-existing invoice.
	again, err := f.service.ConfirmPayment("buyer-1", order.ID, "pay_1", "gw_order_1", "sig")
	require.NoError(t, err)
	assert.Equal(t, result.Invoice.InvoiceNumber, again.Invoice.InvoiceNumber)
	assert.Equal(t, 1, f.notifier.sent)
}

func TestPaymentService_ConfirmPayment_VerificationFailure(t *testing.T) {
	f := newPaymentFixture(t)
	f.gateway.failVerify = true
	order := f.invoices.orders.createOrder(t)

	_, err := f.service.ConfirmPayment("buyer-1", order.ID, "pay_1", "gw_order_1", "bad-sig")
	require.ErrorIs(t, err, apperrors.ErrPaymentVerificationFailed)

	// The order is untouched: still pending, still unpaid, no invoice.
	stored, err := f.invoices.orders.orderRepo.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.Status)
	assert.Equal(t, models.PaymentPending, stored.Payment.Status)

	_, err = f.invoices.service.GetInvoiceByOrderID(order.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPaymentService_ConfirmPayment_Forbidden(t *testing.T) {
	f := newPaymentFixture(t)
	order := f.invoices.orders.createOrder(t)

	_, err := f.service.ConfirmPayment("intruder", order.ID, "pay_1", "gw_order_1", "sig")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Zero(t, f.gateway.verifyCalls)
}

func TestPaymentService_ConfirmPayment_EmailFailureIsBestEffort(t *testing.T) {
	f := newPaymentFixture(t)
	f.notifier.fail = true
	order := f.invoices.orders.createOrder(t)

	result, err := f.service.ConfirmPayment("buyer-1", order.ID, "pay_1", "gw_order_1", "sig")
	require.NoError(t, err)

	// Payment and invoice succeeded; only the email flag reports the failure.
	assert.Equal(t, models.PaymentCompleted, result.Order.Payment.Status)
	assert.True(t, result.PDFGenerated)
	assert.False(t, result.EmailSent)
}

func TestPaymentService_ConfirmPayment_RenderFailureIsBestEffort(t *testing.T) {
	f := newPaymentFixture(t)
	f.renderer.fail = true
	order := f.invoices.orders.createOrder(t)

	result, err := f.service.ConfirmPayment("buyer-1", order.ID, "pay_1", "gw_order_1", "sig")
	require.NoError(t, err)

	assert.False(t, result.PDFGenerated)
	assert.False(t, result.EmailSent)
	require.NotNil(t, result.Invoice)
}

func TestPaymentService_RenderInvoice_RegeneratesWhenFileMissing(t *testing.T) {
	f := newPaymentFixture(t)
	order := f.invoices.orders.createOrder(t)

	result, err := f.service.ConfirmPayment("buyer-1", order.ID, "pay_1", "gw_order_1", "sig")
	require.NoError(t, err)

	stored, err := f.invoices.service.GetInvoiceByOrderID(order.ID)
	require.NoError(t, err)
	require.NoError(t, os.Remove(stored.PDFPath))

	document, err := f.service.RenderInvoice(stored)
	require.NoError(t, err)
	assert.Contains(t, string(document), result.Invoice.InvoiceNumber)
}

func TestMockPaymentGateway(t *testing.T) {
	gateway := services.NewMockPaymentGateway()

	gwOrder, err := gateway.CreateOrder(99.99, "USD", "ORD-000001")
	require.NoError(t, err)
	assert.NotEmpty(t, gwOrder.ID)
	assert.Equal(t, 99.99, gwOrder.Amount)

	result, err := gateway.Verify("pay_1", gwOrder.ID, "any-signature")
	require.NoError(t, err)
	assert.Equal(t, "pay_1", result.PaymentID)
}
