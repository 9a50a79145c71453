// Package dlocal implements domain.PaymentGateway against the dLocal direct
// payments API, including signed Google Pay token charges and notifications.
package dlocal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/shopspring/decimal"
)

// GatewayName is the tokenization gateway identifier for dLocal.
const GatewayName = "dlocal"

const (
	apiVersion = "2.1"
	dateLayout = "2006-01-02T15:04:05.000Z"
)

// Config holds dLocal credentials.
type Config struct {
	BaseURL   string
	Login     string
	TransKey  string
	SecretKey string
	Timeout   time.Duration
}

// Client implements domain.PaymentGateway and domain.NotificationVerifier.
type Client struct {
	baseURL    string
	login      string
	transKey   string
	secretKey  string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new dLocal client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		login:     cfg.Login,
		transKey:  cfg.TransKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// Name returns the gateway identifier.
func (c *Client) Name() string { return GatewayName }

type payer struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Document string `json:"document,omitempty"`
}

type card struct {
	GPayToken json.RawMessage `json:"gpay_token"`
}

type paymentRequest struct {
	Amount            json.Number `json:"amount"`
	Currency          string      `json:"currency"`
	Country           string      `json:"country"`
	PaymentMethodID   string      `json:"payment_method_id"`
	PaymentMethodFlow string      `json:"payment_method_flow"`
	Payer             payer       `json:"payer"`
	Card              card        `json:"card"`
	OrderID           string      `json:"order_id"`
	Description       string      `json:"description,omitempty"`
	NotificationURL   string      `json:"notification_url,omitempty"`
}

// paymentResponse is the subset of the dLocal payment object we use.
// It is also the body of notifications.
type paymentResponse struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Country      string          `json:"country"`
	Status       string          `json:"status"`
	StatusDetail string          `json:"status_detail"`
	StatusCode   string          `json:"status_code"`
	OrderID      string          `json:"order_id"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Charge creates a DIRECT card payment with the wallet token.
// POST /secure_payments
func (c *Client) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	token := []byte(req.Token.Reveal())
	if !json.Valid(token) || !bytes.HasPrefix(bytes.TrimSpace(token), []byte("{")) {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
			"wallet token is not a JSON object", "INVALID_TOKEN")
	}

	amount, err := domain.FormatAmount(req.Amount, req.Currency)
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest, err.Error(), "INVALID_CURRENCY")
	}

	body, err := json.Marshal(paymentRequest{
		Amount:            json.Number(amount),
		Currency:          req.Currency,
		Country:           req.Country,
		PaymentMethodID:   "CARD",
		PaymentMethodFlow: "DIRECT",
		Payer: payer{
			Name:     req.Payer.Name,
			Email:    req.Payer.Email,
			Document: req.Payer.Document,
		},
		Card:            card{GPayToken: json.RawMessage(token)},
		OrderID:         req.OrderID,
		Description:     req.Description,
		NotificationURL: req.NotificationURL,
	})
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
			"failed to marshal payment", "MARSHAL_ERROR")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/secure_payments", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
			"failed to create request", "REQUEST_ERROR")
	}
	c.sign(httpReq, body)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
			"request failed: "+err.Error(), "HTTP_ERROR")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
			"failed to read response", "HTTP_ERROR")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var payment paymentResponse
		if err := json.Unmarshal(raw, &payment); err != nil {
			return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
				"failed to decode response", "DECODE_ERROR")
		}
		return &domain.ChargeResult{
			PaymentID:    payment.ID,
			Status:       MapStatus(payment.Status),
			StatusDetail: payment.StatusDetail,
		}, nil

	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
			fmt.Sprintf("dLocal rejected credentials (status %d)", resp.StatusCode), domain.CodeGatewayAuth)

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var apiErr errorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return &domain.ChargeResult{
			Status:       domain.OrderRejected,
			StatusDetail: fmt.Sprintf("%d: %s", apiErr.Code, apiErr.Message),
		}, nil

	default:
		return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
			fmt.Sprintf("dLocal returned status %d", resp.StatusCode), "GATEWAY_ERROR")
	}
}

// ParseNotification verifies a notification's signature and decodes it.
func (c *Client) ParseNotification(ctx context.Context, n domain.Notification) (*domain.PaymentStatus, error) {
	if n.Login != c.login || !ValidateSignature(n.Signature, c.secretKey, n.Login, n.Date, n.Body) {
		return nil, domain.ErrWebhookValidationFailed
	}

	var payment paymentResponse
	if err := json.Unmarshal(n.Body, &payment); err != nil {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
			"failed to decode notification", "DECODE_ERROR")
	}
	if payment.OrderID == "" {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
			"notification has no order_id", "MISSING_ORDER_ID")
	}

	return &domain.PaymentStatus{
		OrderID:      payment.OrderID,
		PaymentID:    payment.ID,
		Status:       MapStatus(payment.Status),
		StatusDetail: payment.StatusDetail,
		Amount:       payment.Amount,
		Currency:     payment.Currency,
		ReceivedAt:   c.now().UTC(),
	}, nil
}

// sign adds the dLocal authentication headers.
func (c *Client) sign(req *http.Request, body []byte) {
	date := c.now().UTC().Format(dateLayout)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Date", date)
	req.Header.Set("X-Login", c.login)
	req.Header.Set("X-Trans-Key", c.transKey)
	req.Header.Set("X-Version", apiVersion)
	req.Header.Set("Authorization", AuthorizationHeader(Sign(c.secretKey, c.login, date, body)))
}

// MapStatus maps a dLocal payment status to an order status.
func MapStatus(status string) domain.OrderStatus {
	switch strings.ToUpper(status) {
	case "PAID", "AUTHORIZED":
		return domain.OrderPaid
	case "PENDING", "VERIFIED":
		return domain.OrderProcessing
	default:
		// REJECTED, CANCELLED, EXPIRED
		return domain.OrderRejected
	}
}
