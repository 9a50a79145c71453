package checkout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubmitter(url string, maxRetries int, timeout time.Duration) *OrderSubmitter {
	s := NewOrderSubmitter(SubmitterConfig{
		BackendURL: url,
		OrderID:    "order-1",
		Timeout:    timeout,
		MaxRetries: maxRetries,
	}, discardLogger())
	s.sleep = func(context.Context, time.Duration) error { return nil }
	return s
}

func testSubmission() Submission {
	return Submission{
		PaymentData: paymentDataWithToken("T1"),
		TransactionInfo: domain.TransactionInfo{
			TotalPriceStatus: domain.PriceStatusFinal,
			TotalPrice:       "1.00",
			CurrencyCode:     "EUR",
			CountryCode:      "ES",
		},
	}
}

func TestOrderSubmitter_PostsSerializedBody(t *testing.T) {
	var got domain.OrderPaymentRequest
	var contentType, key, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		key = r.Header.Get(IdempotencyHeader)
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accepted":true,"orderId":"order-1","status":"paid"}`))
	}))
	defer server.Close()

	result, err := newTestSubmitter(server.URL, 2, time.Second).Submit(context.Background(), testSubmission())

	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, domain.OrderPaid, result.Status)
	assert.Equal(t, "application/json", contentType)
	assert.NotEmpty(t, key)
	assert.Equal(t, "/api/v1/orders/order-1/payments", path)
	assert.Equal(t, "order-1", got.OrderID)
	assert.Equal(t, "T1", got.PaymentData.Token().Reveal())
	assert.Equal(t, "1.00", got.TransactionInfo.TotalPrice)
	assert.Nil(t, got.Payer)
}

func TestOrderSubmitter_TimeoutIsRetriedThenFails(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestSubmitter(server.URL, 2, 50*time.Millisecond).Submit(context.Background(), testSubmission())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOrderSubmitter_RetriesShareIdempotencyKey(t *testing.T) {
	var mu sync.Mutex
	var keys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get(IdempotencyHeader))
		n := len(keys)
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"accepted":true,"orderId":"order-1","status":"paid"}`))
	}))
	defer server.Close()

	result, err := newTestSubmitter(server.URL, 3, time.Second).Submit(context.Background(), testSubmission())

	require.NoError(t, err)
	assert.True(t, result.Accepted)
	require.Len(t, keys, 3)
	assert.Equal(t, keys[0], keys[1])
	assert.Equal(t, keys[0], keys[2])
}

func TestOrderSubmitter_RejectionIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"success":false,"error":"payment declined","code":"PAYMENT_DECLINED"}`))
	}))
	defer server.Close()

	_, err := newTestSubmitter(server.URL, 3, time.Second).Submit(context.Background(), testSubmission())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendRejection)
	var perr *domain.PaymentError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "PAYMENT_DECLINED", perr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOrderSubmitter_UnacceptedBodyIsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accepted":false,"orderId":"order-1","code":"AMOUNT_MISMATCH"}`))
	}))
	defer server.Close()

	_, err := newTestSubmitter(server.URL, 3, time.Second).Submit(context.Background(), testSubmission())

	assert.ErrorIs(t, err, domain.ErrBackendRejection)
}

func TestOrderSubmitter_UnreachableBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestSubmitter(url, 1, time.Second).Submit(context.Background(), testSubmission())

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestOrderSubmitter_EmptyTokenNeverSent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }))
	defer server.Close()

	sub := testSubmission()
	sub.PaymentData = paymentDataWithToken("")
	_, err := newTestSubmitter(server.URL, 1, time.Second).Submit(context.Background(), sub)

	assert.ErrorIs(t, err, domain.ErrInvalidPaymentRequest)
	assert.Equal(t, int32(0), calls.Load())
}

func TestComputeBackoff(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, computeBackoff(100*time.Millisecond, time.Second, 0))
	assert.Equal(t, 400*time.Millisecond, computeBackoff(100*time.Millisecond, time.Second, 2))
	assert.Equal(t, time.Second, computeBackoff(100*time.Millisecond, time.Second, 10))
	assert.Equal(t, time.Second, computeBackoff(100*time.Millisecond, time.Second, 64))
}
