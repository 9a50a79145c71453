package database

import (
	"testing"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderRecord_RoundTrip(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	order := domain.Order{
		ID:     "o1",
		Status: domain.OrderPending,
		Items: []domain.LineItem{
			{SKU: "sku-1", Name: "Shirt", Quantity: 2, UnitPrice: decimal.RequireFromString("0.50")},
		},
		Total:     decimal.RequireFromString("1.00"),
		Currency:  "EUR",
		Country:   "ES",
		Payer:     domain.Payer{Name: "Nino", Document: "48230764M"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	rec := orderToRecord(order)
	assert.Equal(t, "pending", rec.Status)
	assert.Equal(t, "48230764M", rec.PayerDocument)

	back := orderFromRecord(rec)
	assert.Equal(t, order, back)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "orders", OrderRecord{}.TableName())
	assert.Equal(t, "products", ProductRecord{}.TableName())
}
