// Package mercadopago implements domain.PaymentGateway using the Mercado Pago SDK.
// Wallet tokens are charged as card tokens through the payments API.
package mercadopago

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
)

// GatewayName is the tokenization gateway identifier for Mercado Pago.
const GatewayName = "mercadopago"

// paymentClient is the subset of payment.Client the adapter uses.
type paymentClient interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// Config holds Mercado Pago credentials.
type Config struct {
	AccessToken   string
	WebhookSecret string
}

// Adapter implements domain.PaymentGateway and domain.NotificationVerifier.
type Adapter struct {
	payments      paymentClient
	webhookSecret string
	now           func() time.Time
}

// NewAdapter creates a new Mercado Pago adapter.
func NewAdapter(cfg Config) (*Adapter, error) {
	mpCfg, err := config.New(cfg.AccessToken)
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
			"failed to create MP config", "MP_CONFIG_ERROR")
	}
	return &Adapter{
		payments:      payment.NewClient(mpCfg),
		webhookSecret: cfg.WebhookSecret,
		now:           time.Now,
	}, nil
}

// Name returns the gateway identifier.
func (a *Adapter) Name() string { return GatewayName }

// Charge creates a payment with the wallet token.
func (a *Adapter) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	request := payment.Request{
		TransactionAmount: req.Amount.InexactFloat64(),
		Token:             req.Token.Reveal(),
		Description:       req.Description,
		Installments:      1,
		PaymentMethodID:   paymentMethodID(req.CardNetwork),
		ExternalReference: req.OrderID,
		NotificationURL:   req.NotificationURL,
		Payer: &payment.PayerRequest{
			Email:     req.Payer.Email,
			FirstName: req.Payer.Name,
		},
	}
	if req.Payer.Document != "" {
		request.Payer.Identification = &payment.IdentificationRequest{
			Type:   "DNI",
			Number: req.Payer.Document,
		}
	}

	result, err := a.payments.Create(ctx, request)
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
			"failed to create payment: "+err.Error(), "MP_PAYMENT_ERROR")
	}

	return &domain.ChargeResult{
		PaymentID:    strconv.Itoa(result.ID),
		Status:       MapStatus(result.Status),
		StatusDetail: result.StatusDetail,
	}, nil
}

type notificationBody struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ParseNotification validates the webhook signature and fetches the
// authoritative payment state from Mercado Pago.
func (a *Adapter) ParseNotification(ctx context.Context, n domain.Notification) (*domain.PaymentStatus, error) {
	dataID := n.DataID
	if dataID == "" {
		var body notificationBody
		if err := json.Unmarshal(n.Body, &body); err == nil {
			dataID = body.Data.ID
		}
	}

	if !ValidateSignature(n.Signature, n.RequestID, dataID, a.webhookSecret) {
		return nil, domain.ErrWebhookValidationFailed
	}

	id, err := strconv.Atoi(dataID)
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
			"invalid payment ID format", "INVALID_PAYMENT_ID")
	}

	result, err := a.payments.Get(ctx, id)
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
			"failed to get payment info: "+err.Error(), "MP_PAYMENT_ERROR")
	}
	if result.ExternalReference == "" {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
			"payment has no external reference", "MISSING_ORDER_ID")
	}

	return &domain.PaymentStatus{
		OrderID:      result.ExternalReference,
		PaymentID:    dataID,
		Status:       MapStatus(result.Status),
		StatusDetail: result.StatusDetail,
		Amount:       decimal.NewFromFloat(result.TransactionAmount),
		Currency:     result.CurrencyID,
		ReceivedAt:   a.now().UTC(),
	}, nil
}

// MapStatus maps a Mercado Pago payment status to an order status.
func MapStatus(status string) domain.OrderStatus {
	switch status {
	case "approved", "authorized":
		return domain.OrderPaid
	case "pending", "in_process", "in_mediation":
		return domain.OrderProcessing
	default:
		// rejected, cancelled, refunded, charged_back
		return domain.OrderRejected
	}
}

// paymentMethodID converts a wallet card network to a Mercado Pago method id.
func paymentMethodID(network string) string {
	switch strings.ToUpper(network) {
	case "MASTERCARD":
		return "master"
	case "AMEX":
		return "amex"
	default:
		return strings.ToLower(network)
	}
}
