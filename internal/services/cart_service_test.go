package services_test

import (
	"testing"

	"gerai/internal/apperrors"
	"gerai/internal/models"
	"gerai/internal/repositories"
	"gerai/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartFixture struct {
	service  *services.CartService
	cartRepo *repositories.MockCartRepository
	orders   *orderFixture
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()

	orders := newOrderFixture(t)
	cartRepo := repositories.NewMockCartRepository()
	service := services.NewCartService(cartRepo, orders.productRepo, orders.service)
	return &cartFixture{service: service, cartRepo: cartRepo, orders: orders}
}

func TestCartService_GetCart_CreatesEmptyCart(t *testing.T) {
	f := newCartFixture(t)

	cart, err := f.service.GetCart("buyer-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.NotEmpty(t, cart.ID)

	// The cart is persisted and returned again on the next call.
	again, err := f.service.GetCart("buyer-1")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestCartService_AddItem(t *testing.T) {
	f := newCartFixture(t)

	cart, err := f.service.AddItem("buyer-1", "prod-1", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Laptop", cart.Items[0].ProductName)
	assert.Equal(t, 100.0, cart.Items[0].UnitPrice)
	assert.InDelta(t, 200.0, cart.Subtotal, 1e-9)

	// Adding again merges the line and refreshes the price.
	product, _ := f.orders.productRepo.GetByID("prod-1")
	product.Price = 80
	require.NoError(t, f.orders.productRepo.Update(product))

	cart, err = f.service.AddItem("buyer-1", "prod-1", 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 80.0, cart.Items[0].UnitPrice)

	// The cart never reserves stock.
	stored, _ := f.orders.productRepo.GetByID("prod-1")
	assert.Equal(t, 10, stored.Stock)
}

func TestCartService_AddItem_Rejections(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.service.AddItem("buyer-1", "no-such-product", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// prod-2 has 4 units; a merged request for 5 fails.
	_, err = f.service.AddItem("buyer-1", "prod-2", 3)
	require.NoError(t, err)
	_, err = f.service.AddItem("buyer-1", "prod-2", 2)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	cart, err := f.service.GetCart("buyer-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestCartService_SetItemQuantityAndRemove(t *testing.T) {
	f := newCartFixture(t)
	_, err := f.service.AddItem("buyer-1", "prod-1", 2)
	require.NoError(t, err)

	cart, err := f.service.SetItemQuantity("buyer-1", "prod-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	cart, err = f.service.RemoveItem("buyer-1", "prod-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = f.service.SetItemQuantity("buyer-1", "prod-1", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_ClearCart(t *testing.T) {
	f := newCartFixture(t)
	_, err := f.service.AddItem("buyer-1", "prod-1", 2)
	require.NoError(t, err)
	_, err = f.service.AddItem("buyer-1", "prod-2", 1)
	require.NoError(t, err)

	cart, err := f.service.ClearCart("buyer-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Subtotal)
}

func TestCartService_Checkout(t *testing.T) {
	f := newCartFixture(t)
	_, err := f.service.AddItem("buyer-1", "prod-1", 2)
	require.NoError(t, err)
	_, err = f.service.AddItem("buyer-1", "prod-2", 1)
	require.NoError(t, err)

	order, err := f.service.Checkout("buyer-1", models.Address{Name: "Jane Buyer", City: "Springfield"}, "credit-card")
	require.NoError(t, err)

	assert.Equal(t, "ORD-000001", order.OrderNumber)
	assert.InDelta(t, 250.0, order.Subtotal, 1e-9)
	require.Len(t, order.Items, 2)

	// Checkout reserved stock and emptied the cart.
	p1, _ := f.orders.productRepo.GetByID("prod-1")
	assert.Equal(t, 8, p1.Stock)

	cart, err := f.service.GetCart("buyer-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_Checkout_EmptyCart(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.service.Checkout("buyer-1", models.Address{}, "credit-card")
	assert.ErrorIs(t, err, apperrors.ErrIllegalState)
}

func TestCartService_Checkout_KeepsCartOnOrderFailure(t *testing.T) {
	f := newCartFixture(t)
	_, err := f.service.AddItem("buyer-1", "prod-2", 3)
	require.NoError(t, err)

	// Another buyer drains the stock between add and checkout.
	require.NoError(t, f.orders.productRepo.ReserveStock("prod-2", 3))

	_, err = f.service.Checkout("buyer-1", models.Address{}, "credit-card")
	require.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	cart, err := f.service.GetCart("buyer-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}
