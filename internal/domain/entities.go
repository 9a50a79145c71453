// Package domain contains the core business entities and interfaces for the wallet checkout.
// This is the innermost layer - it has no dependencies on transport or storage.
package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry the storefront can sell.
type Product struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency"`
}

// LineItem is one product and quantity in an order.
type LineItem struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns unit price times quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"    // awaiting a wallet token; declined attempts return here
	OrderProcessing OrderStatus = "processing" // token claimed, charge in flight
	OrderPaid       OrderStatus = "paid"
	OrderRejected   OrderStatus = "rejected" // outcome of a single charge attempt
)

// Payer identifies the buyer to the gateway.
type Payer struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Document string `json:"document"`
}

// Order is the authoritative record of a checkout on the merchant side.
type Order struct {
	ID               string          `json:"id"`
	Status           OrderStatus     `json:"status"`
	Items            []LineItem      `json:"items"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	Country          string          `json:"country"`
	Payer            Payer           `json:"payer"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	StatusDetail     string          `json:"status_detail,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CheckoutRequest asks the backend to price a cart and open an order.
type CheckoutRequest struct {
	Items   []CheckoutItem `json:"items" binding:"required,min=1,dive"`
	Country string         `json:"country" binding:"required,len=2"`
	Payer   *Payer         `json:"payer,omitempty"`
}

// CheckoutItem is a requested SKU and quantity.
type CheckoutItem struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// CheckoutContext is the trusted, server-rendered input of the client-side flow.
type CheckoutContext struct {
	OrderID         string              `json:"orderId"`
	Environment     string              `json:"environment"`
	Configuration   WalletConfiguration `json:"configuration"`
	MerchantInfo    MerchantInfo        `json:"merchantInfo"`
	TransactionInfo TransactionInfo     `json:"transactionInfo"`
}

// OrderPaymentRequest is the body the client posts to the order endpoint.
type OrderPaymentRequest struct {
	OrderID         string          `json:"orderId"`
	PaymentData     PaymentData     `json:"paymentData"`
	TransactionInfo TransactionInfo `json:"transactionInfo"`

	// Payer overrides the payer recorded at checkout.
	Payer *Payer `json:"payer,omitempty"`
}

// OrderSubmissionResult is the outcome of forwarding a token to the merchant backend.
type OrderSubmissionResult struct {
	Accepted bool        `json:"accepted"`
	OrderID  string      `json:"orderId"`
	Status   OrderStatus `json:"status,omitempty"`
	Message  string      `json:"message,omitempty"`
	Code     string      `json:"code,omitempty"`
}

// ChargeRequest is the server-side direct charge sent to the gateway.
type ChargeRequest struct {
	OrderID         string
	Amount          decimal.Decimal
	Currency        string
	Country         string
	Payer           Payer
	Token           OpaquePaymentToken
	CardNetwork     string
	NotificationURL string
	Description     string
}

// ChargeResult is the gateway's synchronous answer to a charge.
type ChargeResult struct {
	PaymentID    string
	Status       OrderStatus
	StatusDetail string
}

// PaymentStatus is a gateway-reported status update for an order.
type PaymentStatus struct {
	OrderID      string          `json:"order_id"`
	PaymentID    string          `json:"payment_id"`
	Status       OrderStatus     `json:"status"`
	StatusDetail string          `json:"status_detail"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	ReceivedAt   time.Time       `json:"received_at"`
}

// Notification is a raw gateway callback with the headers needed to verify it.
type Notification struct {
	Body      json.RawMessage
	Signature string
	RequestID string
	Login     string
	Date      string
	DataID    string
}
