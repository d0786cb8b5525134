package services_test

import (
	"testing"
	"time"

	"gerai/internal/apperrors"
	"gerai/internal/models"
	"gerai/internal/repositories"
	"gerai/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCompany = models.CompanyInfo{
	Name:    "Gerai Commerce Ltd.",
	Address: "42 Market Rd, Metropolis",
	Phone:   "+1-555-0100",
	Email:   "billing@gerai.example",
	TaxID:   "TAX-1234567",
	Website: "https://gerai.example",
}

type invoiceFixture struct {
	service     *services.InvoiceService
	orders      *orderFixture
	invoiceRepo *repositories.MockInvoiceRepository
	userRepo    *repositories.MockUserRepository
	productRepo *repositories.MockProductRepository
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()

	orders := newOrderFixture(t)
	userRepo := repositories.NewMockUserRepository()
	require.NoError(t, userRepo.Create(&models.User{
		ID:       "buyer-1",
		Username: "jane",
		Email:    "jane@example.com",
		Password: "hashed",
		Name:     "Jane Buyer",
		Phone:    "+1-555-0101",
	}))

	invoiceRepo := repositories.NewMockInvoiceRepository()
	service := services.NewInvoiceService(
		invoiceRepo,
		orders.orderRepo,
		userRepo,
		repositories.NewMockCounterRepository(),
		nil,
		testCompany,
	)
	return &invoiceFixture{
		service:     service,
		orders:      orders,
		invoiceRepo: invoiceRepo,
		userRepo:    userRepo,
		productRepo: orders.productRepo,
	}
}

func TestInvoiceService_NextInvoiceNumber(t *testing.T) {
	f := newInvoiceFixture(t)
	june := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	first, err := f.service.NextInvoiceNumber(june)
	require.NoError(t, err)
	assert.Equal(t, "INV-202506-0001", first)

	second, err := f.service.NextInvoiceNumber(june)
	require.NoError(t, err)
	assert.Equal(t, "INV-202506-0002", second)

	// A new month starts its own sequence.
	july, err := f.service.NextInvoiceNumber(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "INV-202507-0001", july)
}

func TestInvoiceService_CreateFromOrder(t *testing.T) {
	f := newInvoiceFixture(t)
	order := f.orders.createOrder(t)
	require.NoError(t, f.orders.service.MarkPaid(order, "txn-1"))

	invoice, err := f.service.CreateFromOrder(order.ID)
	require.NoError(t, err)

	assert.Equal(t, order.ID, invoice.OrderID)
	assert.Equal(t, "buyer-1", invoice.BuyerID)
	assert.Equal(t, models.InvoiceSent, invoice.Status)
	assert.Equal(t, "txn-1", invoice.TransactionID)
	assert.Equal(t, models.PaymentCompleted, invoice.PaymentStatus)

	// Totals use the statutory invoice rate, not the order's sales tax rate.
	assert.InDelta(t, 250.0, invoice.Subtotal, 1e-9)
	assert.Equal(t, models.DefaultInvoiceTaxRate, invoice.TaxRate)
	assert.InDelta(t, 45.0, invoice.Tax, 1e-9)
	assert.InDelta(t, 295.0, invoice.TotalAmount, 1e-9)

	assert.Equal(t, invoice.InvoiceDate.AddDate(0, 0, models.InvoiceDueDays), invoice.DueDate)
	assert.Equal(t, testCompany, invoice.Company)

	// Billing comes from the shipping address, email from the account.
	assert.Equal(t, "Jane Buyer", invoice.BillingAddress.Name)
	assert.Equal(t, "jane@example.com", invoice.BillingAddress.Email)
	assert.Equal(t, "1 Main St", invoice.BillingAddress.Street)
}

func TestInvoiceService_CreateFromOrder_SnapshotSurvivesProductChanges(t *testing.T) {
	f := newInvoiceFixture(t)
	order := f.orders.createOrder(t)
	require.NoError(t, f.orders.service.MarkPaid(order, "txn-1"))

	// Mutate and delete catalog entries after the order was placed.
	product, err := f.productRepo.GetByID("prod-1")
	require.NoError(t, err)
	product.Name = "Renamed Laptop"
	product.Price = 999
	require.NoError(t, f.productRepo.Update(product))
	require.NoError(t, f.productRepo.Delete("prod-2"))

	invoice, err := f.service.CreateFromOrder(order.ID)
	require.NoError(t, err)

	require.Len(t, invoice.Items, 2)
	assert.Equal(t, "Laptop", invoice.Items[0].Name)
	assert.Equal(t, 100.0, invoice.Items[0].UnitPrice)
	assert.Equal(t, 200.0, invoice.Items[0].LineTotal)
	assert.Equal(t, "Mouse", invoice.Items[1].Name)
}

func TestInvoiceService_CreateFromOrder_Duplicate(t *testing.T) {
	f := newInvoiceFixture(t)
	order := f.orders.createOrder(t)
	require.NoError(t, f.orders.service.MarkPaid(order, "txn-1"))

	first, err := f.service.CreateFromOrder(order.ID)
	require.NoError(t, err)

	_, err = f.service.CreateFromOrder(order.ID)
	require.ErrorIs(t, err, apperrors.ErrDuplicateInvoice)

	// The original is still retrievable and unchanged.
	stored, err := f.service.GetInvoiceByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, first.InvoiceNumber, stored.InvoiceNumber)
}

func TestInvoiceService_CreateFromOrder_UnknownOrder(t *testing.T) {
	f := newInvoiceFixture(t)

	_, err := f.service.CreateFromOrder("no-such-order")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestInvoiceService_BillingFallsBackToProfile(t *testing.T) {
	f := newInvoiceFixture(t)
	require.NoError(t, f.userRepo.Create(&models.User{
		ID:       "buyer-2",
		Username: "bob",
		Email:    "bob@example.com",
		Password: "hashed",
		Name:     "Bob Buyer",
		Phone:    "+1-555-0102",
		Street:   "9 Profile Ave",
		City:     "Gotham",
		State:    "NJ",
		ZipCode:  "07001",
		Country:  "USA",
	}))

	order, err := f.orders.service.CreateOrder("buyer-2", services.CreateOrderInput{
		Items:         []services.CreateOrderItem{{ProductID: "prod-1", Quantity: 1}},
		PaymentMethod: "stripe",
		// No shipping address supplied.
	})
	require.NoError(t, err)
	require.NoError(t, f.orders.service.MarkPaid(order, "txn-2"))

	invoice, err := f.service.CreateFromOrder(order.ID)
	require.NoError(t, err)

	assert.Equal(t, "Bob Buyer", invoice.BillingAddress.Name)
	assert.Equal(t, "bob@example.com", invoice.BillingAddress.Email)
	assert.Equal(t, "9 Profile Ave", invoice.BillingAddress.Street)
	assert.Equal(t, "Gotham", invoice.BillingAddress.City)
	assert.Equal(t, "07001", invoice.BillingAddress.PostalCode)
}

func TestInvoiceService_PublishesIssuedEvent(t *testing.T) {
	orders := newOrderFixture(t)
	userRepo := repositories.NewMockUserRepository()
	require.NoError(t, userRepo.Create(&models.User{ID: "buyer-1", Username: "jane", Email: "jane@example.com", Password: "hashed"}))

	publisher := &recordingPublisher{}
	service := services.NewInvoiceService(
		repositories.NewMockInvoiceRepository(),
		orders.orderRepo,
		userRepo,
		repositories.NewMockCounterRepository(),
		publisher,
		testCompany,
	)

	order := orders.createOrder(t)
	require.NoError(t, orders.service.MarkPaid(order, "txn-1"))

	_, err := service.CreateFromOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"invoice.issued"}, publisher.events)
}

func TestInvoiceService_MarkEmailSent(t *testing.T) {
	f := newInvoiceFixture(t)
	order := f.orders.createOrder(t)
	require.NoError(t, f.orders.service.MarkPaid(order, "txn-1"))

	invoice, err := f.service.CreateFromOrder(order.ID)
	require.NoError(t, err)
	assert.False(t, invoice.EmailSent)

	require.NoError(t, f.service.MarkEmailSent(invoice))

	stored, err := f.service.GetInvoiceByID(invoice.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailSent)
	assert.NotNil(t, stored.EmailSentAt)
}
