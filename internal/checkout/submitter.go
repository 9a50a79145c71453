package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/google/uuid"
)

// IdempotencyHeader carries the per-token submission key.
const IdempotencyHeader = "Idempotency-Key"

// Submission is what the orchestrator hands to the submitter after TOKEN_RECEIVED.
type Submission struct {
	PaymentData     domain.PaymentData
	TransactionInfo domain.TransactionInfo
}

// Submitter forwards a received token to the merchant backend.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (*domain.OrderSubmissionResult, error)
}

// SubmitterConfig configures an OrderSubmitter for one checkout.
type SubmitterConfig struct {
	BackendURL     string
	OrderID        string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// OrderSubmitter posts wallet tokens to the merchant's order endpoint.
// It is the only client component that changes order state.
type OrderSubmitter struct {
	endpoint   string
	orderID    string
	timeout    time.Duration
	maxRetries int
	initial    time.Duration
	maxBackoff time.Duration
	httpClient *http.Client
	logger     *slog.Logger

	newKey func() string
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewOrderSubmitter creates a submitter for cfg.OrderID.
func NewOrderSubmitter(cfg SubmitterConfig, logger *slog.Logger) *OrderSubmitter {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &OrderSubmitter{
		endpoint: fmt.Sprintf("%s/api/v1/orders/%s/payments",
			strings.TrimRight(cfg.BackendURL, "/"), url.PathEscape(cfg.OrderID)),
		orderID:    cfg.OrderID,
		timeout:    timeout,
		maxRetries: maxRetries,
		initial:    cfg.InitialBackoff,
		maxBackoff: cfg.MaxBackoff,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		newKey: func() string { return uuid.NewString() },
		sleep:  sleepContext,
	}
}

// errorResponse mirrors the backend's error body.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// Submit sends the token once, retrying only transport failures. All attempts
// share one idempotency key so the backend charges the token at most once.
func (s *OrderSubmitter) Submit(ctx context.Context, sub Submission) (*domain.OrderSubmissionResult, error) {
	if sub.PaymentData.Token().Empty() {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest, "payment token is empty", "MISSING_TOKEN")
	}

	body, err := json.Marshal(domain.OrderPaymentRequest{
		OrderID:         s.orderID,
		PaymentData:     sub.PaymentData,
		TransactionInfo: sub.TransactionInfo,
	})
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest, "failed to marshal order payment", "MARSHAL_ERROR")
	}

	key := s.newKey()
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := computeBackoff(s.initial, s.maxBackoff, attempt-1)
			s.logger.Info("retrying order submission", "order_id", s.orderID, "attempt", attempt, "delay", delay.String())
			if err := s.sleep(ctx, delay); err != nil {
				return nil, domain.NewPaymentError(domain.ErrTransport, "submission aborted: "+err.Error(), "TRANSPORT_ERROR")
			}
		}

		result, err := s.post(ctx, key, body)
		if err == nil {
			s.logger.Info("order submitted", "order_id", s.orderID, "status", result.Status, "attempts", attempt+1)
			return result, nil
		}
		if !errors.Is(err, domain.ErrTransport) {
			s.logger.Warn("order rejected by backend", "order_id", s.orderID, "error", err)
			return nil, err
		}

		lastErr = err
		s.logger.Warn("order submission attempt failed", "order_id", s.orderID, "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			break
		}
	}

	return nil, domain.NewPaymentError(domain.ErrTransport,
		fmt.Sprintf("order submission failed after %d attempts: %v", s.maxRetries+1, lastErr), "TRANSPORT_ERROR")
}

func (s *OrderSubmitter) post(ctx context.Context, key string, body []byte) (*domain.OrderSubmissionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest, "failed to create request", "REQUEST_ERROR")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(IdempotencyHeader, key)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrTransport, "request failed: "+err.Error(), "TRANSPORT_ERROR")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrTransport, "failed to read response: "+err.Error(), "TRANSPORT_ERROR")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var result domain.OrderSubmissionResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, domain.NewPaymentError(domain.ErrTransport, "failed to decode response", "DECODE_ERROR")
		}
		if !result.Accepted {
			return nil, domain.NewPaymentError(domain.ErrBackendRejection, result.Message, result.Code)
		}
		return &result, nil

	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return nil, domain.NewPaymentError(domain.ErrTransport,
			fmt.Sprintf("backend returned status %d", resp.StatusCode), "TRANSPORT_ERROR")

	default:
		var errResp errorResponse
		_ = json.Unmarshal(raw, &errResp)
		code := errResp.Code
		if code == "" {
			code = "BACKEND_REJECTED"
		}
		return nil, domain.NewPaymentError(domain.ErrBackendRejection,
			fmt.Sprintf("backend returned status %d: %s", resp.StatusCode, errResp.Error), code)
	}
}
