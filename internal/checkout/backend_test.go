package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendClient_CreateCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/products/featured":
			_, _ = w.Write([]byte(`{"success":true,"product":{"sku":"tee","name":"T-shirt","unit_price":"1","currency":"EUR"}}`))
		case "/api/v1/checkout":
			var req domain.CheckoutRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "tee", req.Items[0].SKU)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "checkout": testContext()})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := NewBackendClient(srv.URL+"/", 0)

	p, err := c.FeaturedProduct(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tee", p.SKU)

	cc, err := c.CreateCheckout(context.Background(), domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{SKU: p.SKU, Quantity: 1}},
		Country: "ES",
	})
	require.NoError(t, err)
	assert.Equal(t, testContext().OrderID, cc.OrderID)
	assert.Equal(t, "1.00", cc.TransactionInfo.TotalPrice)
}

func TestBackendClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"product 'x' not found","code":"PRODUCT_NOT_FOUND"}`))
	}))
	defer srv.Close()
	c := NewBackendClient(srv.URL, 0)

	_, err := c.FeaturedProduct(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)

	_, err = c.CreateCheckout(context.Background(), domain.CheckoutRequest{})
	assert.ErrorIs(t, err, domain.ErrBackendRejection)
	var perr *domain.PaymentError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "PRODUCT_NOT_FOUND", perr.Code)
}
