// Package api contains the HTTP handlers and routing for the merchant backend.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fitstack/walletpay/internal/checkout"
	"github.com/fitstack/walletpay/internal/domain"
	"github.com/fitstack/walletpay/internal/payment"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// Handler contains the HTTP handlers for the payment API.
type Handler struct {
	paymentService *payment.Service
	gateway        string
	logger         *slog.Logger
}

// NewHandler creates a new API handler with the payment service.
func NewHandler(paymentService *payment.Service, gateway string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		paymentService: paymentService,
		gateway:        gateway,
		logger:         logger,
	}
}

// CheckoutResponse wraps the checkout context.
type CheckoutResponse struct {
	Success  bool                    `json:"success"`
	Checkout *domain.CheckoutContext `json:"checkout"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// CreateCheckout handles POST /api/v1/checkout
// Prices the cart, opens a pending order and returns the wallet checkout context.
func (h *Handler) CreateCheckout(c *gin.Context) {
	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}
	h.checkout(c, req)
}

// QuickCheckout handles GET /api/v1/checkout/:sku?quantity=1&country=ES
func (h *Handler) QuickCheckout(c *gin.Context) {
	quantity := cast.ToInt(c.DefaultQuery("quantity", "1"))
	country := strings.ToUpper(c.DefaultQuery("country", "ES"))
	h.checkout(c, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{SKU: c.Param("sku"), Quantity: quantity}},
		Country: country,
	})
}

func (h *Handler) checkout(c *gin.Context, req domain.CheckoutRequest) {
	cc, err := h.paymentService.CreateCheckout(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutResponse{Success: true, Checkout: cc})
}

// FeaturedProduct handles GET /api/v1/products/featured
func (h *Handler) FeaturedProduct(c *gin.Context) {
	p, err := h.paymentService.FeaturedProduct(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

// GetOrder handles GET /api/v1/orders/:orderId
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.paymentService.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// PlaceOrder handles POST /api/v1/orders/:orderId/payments
// Receives the wallet token and charges it through the gateway.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req domain.OrderPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	orderID := c.Param("orderId")
	if req.OrderID == "" {
		req.OrderID = orderID
	}
	if req.OrderID != orderID {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "orderId does not match URL",
			Code:    "ORDER_ID_MISMATCH",
		})
		return
	}

	key := c.GetHeader(checkout.IdempotencyHeader)
	result, err := h.paymentService.PlaceOrder(c.Request.Context(), key, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DLocalNotification handles POST /webhooks/dlocal
// The body is signed as received, so it is read raw.
func (h *Handler) DLocalNotification(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "unreadable body", Code: "VALIDATION_ERROR"})
		return
	}

	h.notify(c, "dlocal", domain.Notification{
		Body:      body,
		Signature: c.GetHeader("Authorization"),
		Login:     c.GetHeader("X-Login"),
		Date:      c.GetHeader("X-Date"),
		RequestID: requestID(c),
	})
}

// MercadoPagoNotification handles POST /webhooks/mercadopago
func (h *Handler) MercadoPagoNotification(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "unreadable body", Code: "VALIDATION_ERROR"})
		return
	}

	var envelope struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(body, &envelope)
	if envelope.Type == "" {
		envelope.Type = c.Query("type")
	}
	if envelope.Type != "" && envelope.Type != "payment" {
		h.logger.Info("ignoring webhook type", "gateway", "mercadopago", "type", envelope.Type)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	h.notify(c, "mercadopago", domain.Notification{
		Body:      body,
		Signature: c.GetHeader("x-signature"),
		RequestID: c.GetHeader("x-request-id"),
		DataID:    c.Query("data.id"),
	})
}

// notify answers 200 for everything but signature failures so gateways stop retrying.
func (h *Handler) notify(c *gin.Context, gateway string, n domain.Notification) {
	if err := h.paymentService.ProcessNotification(c.Request.Context(), gateway, n); err != nil {
		if errors.Is(err, domain.ErrWebhookValidationFailed) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "invalid signature",
				Code:    "INVALID_SIGNATURE",
			})
			return
		}
		h.logger.Error("webhook processing error", "gateway", gateway, "request_id", n.RequestID, "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "processed_with_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "walletpay",
		"gateway": h.gateway,
	})
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorStatus is checked in order; the first match wins.
var errorStatus = []errorMapping{
	{domain.ErrInvalidPaymentRequest, http.StatusBadRequest, "VALIDATION_ERROR"},
	{domain.ErrWebhookValidationFailed, http.StatusUnauthorized, "INVALID_SIGNATURE"},
	{domain.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{domain.ErrOrderNotPending, http.StatusConflict, "ORDER_NOT_PENDING"},
	{domain.ErrTokenReused, http.StatusConflict, "TOKEN_REUSED"},
	{domain.ErrAmountMismatch, http.StatusUnprocessableEntity, "AMOUNT_MISMATCH"},
	{domain.ErrPaymentDeclined, http.StatusPaymentRequired, payment.CodeDeclined},
	{domain.ErrPaymentGatewayError, http.StatusBadGateway, payment.CodeGatewayUnavailable},
}

// handleServiceError maps domain errors to HTTP responses.
// Raw gateway payloads never reach the client.
func handleServiceError(c *gin.Context, err error) {
	for _, m := range errorStatus {
		if !errors.Is(err, m.err) {
			continue
		}
		resp := ErrorResponse{Success: false, Error: m.err.Error(), Code: m.code}
		var paymentErr *domain.PaymentError
		if errors.As(err, &paymentErr) {
			if paymentErr.Code != "" {
				resp.Code = paymentErr.Code
			}
			if paymentErr.Message != "" && m.status < http.StatusInternalServerError {
				resp.Error = paymentErr.Message
			}
		}
		c.JSON(m.status, resp)
		return
	}

	// Generic error
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   "Internal server error",
		Code:    "INTERNAL_ERROR",
	})
}
