package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Catalog(t *testing.T) {
	s := New(
		domain.Product{SKU: "b", Name: "B", UnitPrice: decimal.NewFromInt(2), Currency: "EUR"},
		domain.Product{SKU: "a", Name: "A", UnitPrice: decimal.NewFromInt(1), Currency: "EUR"},
	)
	ctx := context.Background()

	list, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].SKU)

	_, err = s.GetProduct(ctx, "zzz")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestStore_TransitionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, &domain.Order{ID: "o1", Status: domain.OrderPending}))

	require.NoError(t, s.TransitionOrder(ctx, "o1", domain.OrderPending, domain.OrderProcessing))
	err := s.TransitionOrder(ctx, "o1", domain.OrderPending, domain.OrderProcessing)
	assert.ErrorIs(t, err, domain.ErrOrderNotPending)

	assert.ErrorIs(t, s.TransitionOrder(ctx, "missing", domain.OrderPending, domain.OrderPaid), domain.ErrOrderNotFound)
	assert.Error(t, s.CreateOrder(ctx, &domain.Order{ID: "o1"}))
}

func TestStore_UpdatePayment(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, &domain.Order{ID: "o1", Status: domain.OrderProcessing}))

	require.NoError(t, s.UpdatePayment(ctx, domain.PaymentStatus{OrderID: "o1", PaymentID: "D-1", Status: domain.OrderPaid}))

	o, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, o.Status)
	assert.Equal(t, "D-1", o.GatewayPaymentID)
}

func TestStore_ClaimOnce(t *testing.T) {
	s := New()
	ctx := context.Background()

	ok, err := s.Claim(ctx, "fp", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(ctx, "fp", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_IdempotencyExpires(t *testing.T) {
	s := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Put(ctx, "k", domain.OrderSubmissionResult{Accepted: true, OrderID: "o1"}, time.Minute))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "o1", got.OrderID)

	now = now.Add(2 * time.Minute)
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}
