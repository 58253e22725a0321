package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_NoDiscount(t *testing.T) {
	fx := newFixture(t)
	f := atPayment(domain.GuestIdentity())

	id, err := fx.svc.CreateOrder(context.Background(), f, domain.PaymentMethodSinpe)
	require.NoError(t, err)

	order := fx.orders.only(t)
	assert.Equal(t, id, order.ID)
	assert.True(t, decimal.NewFromInt(5200).Equal(order.TotalAmount), "got %s", order.TotalAmount)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, domain.ShippingStatusPending, order.ShippingStatus)
	assert.Equal(t, id.String(), f.Session.Wizard.OrderID)

	require.Len(t, fx.orders.Items, 1)
	assert.Equal(t, 2, fx.orders.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(fx.orders.Items[0].Price))
}

func TestCreateOrder_ValidDiscountUsesFinalTotal(t *testing.T) {
	fx := newFixture(t)
	f := atPayment(domain.GuestIdentity())
	require.NoError(t, fx.discounts.Store(context.Background(), f.Session.ID, domain.DiscountInfo{
		Code:           "DIEZ",
		Valid:          true,
		DiscountType:   "percentage",
		DiscountValue:  decimal.NewFromInt(10),
		DiscountAmount: decimal.NewFromInt(200),
		FinalTotal:     decimal.NewFromInt(5000),
	}, time.Hour))

	_, err := fx.svc.CreateOrder(context.Background(), f, domain.PaymentMethodSinpe)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(fx.orders.only(t).TotalAmount))
}

func TestCreateOrder_GuestUsesMarker(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.CreateOrder(context.Background(), atPayment(domain.GuestIdentity()), domain.PaymentMethodPayPal)
	require.NoError(t, err)
	assert.Equal(t, "guest", fx.orders.only(t).UserID)
}

func TestCreateOrder_NeverWritesWithoutIdentity(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.CreateOrder(context.Background(), atPayment(domain.Identity{}), domain.PaymentMethodSinpe)
	assert.ErrorIs(t, err, ErrMissingIdentity)
	assert.Zero(t, fx.orders.CreateCalls)
}

func TestCreateOrder_RequiresAddress(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.CreateOrder(context.Background(), newFlow(domain.GuestIdentity()), domain.PaymentMethodSinpe)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, fx.orders.CreateCalls)
}

func TestCreateOrder_BackendFailureAborts(t *testing.T) {
	fx := newFixture(t)
	fx.orders.CreateErr = errBackend
	f := atPayment(domain.GuestIdentity())

	_, err := fx.svc.CreateOrder(context.Background(), f, domain.PaymentMethodSinpe)
	assert.ErrorIs(t, err, ErrOrderWrite)
	assert.ErrorIs(t, err, errBackend)
	assert.Empty(t, f.Session.Wizard.OrderID)
}

func TestCreateOrder_ItemFailureKeepsOrder(t *testing.T) {
	fx := newFixture(t)
	fx.orders.ItemErr = errBackend
	f := atPayment(domain.GuestIdentity())

	id, err := fx.svc.CreateOrder(context.Background(), f, domain.PaymentMethodSinpe)
	require.NoError(t, err)
	assert.Equal(t, id, fx.orders.only(t).ID)
	assert.Empty(t, fx.orders.Items)
}

func TestCreateOrder_SecondCallWritesNewOrder(t *testing.T) {
	fx := newFixture(t)
	f := atPayment(domain.GuestIdentity())

	first, err := fx.svc.CreateOrder(context.Background(), f, domain.PaymentMethodSinpe)
	require.NoError(t, err)
	second, err := fx.svc.CreateOrder(context.Background(), f, domain.PaymentMethodSinpe)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, fx.orders.Orders, 2)
	assert.Equal(t, second.String(), f.Session.Wizard.OrderID)
}
