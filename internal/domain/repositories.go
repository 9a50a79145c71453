package domain

import (
	"context"
	"time"
)

// WalletProvider is the boundary to the wallet SDK.
// LoadPaymentData resolves with PaymentData or fails with a *ProviderError.
type WalletProvider interface {
	IsReadyToPay(ctx context.Context, req IsReadyToPayRequest) (IsReadyToPayResponse, error)
	LoadPaymentData(ctx context.Context, req PaymentDataRequest) (PaymentData, error)
}

// ProductCatalog prices SKUs on the merchant side.
type ProductCatalog interface {
	// GetProduct returns ErrProductNotFound for unknown SKUs.
	GetProduct(ctx context.Context, sku string) (*Product, error)

	// ListProducts returns the full catalog in a stable order.
	ListProducts(ctx context.Context) ([]Product, error)
}

// OrderRepository persists authoritative order state.
// Only the payment service mutates it.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error

	// GetOrder returns ErrOrderNotFound if the id doesn't exist.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// TransitionOrder moves an order from one status to another atomically.
	// Returns ErrOrderNotPending-wrapped errors when the current status is not from.
	TransitionOrder(ctx context.Context, id string, from, to OrderStatus) error

	// UpdatePayment records the gateway outcome for an order.
	UpdatePayment(ctx context.Context, status PaymentStatus) error
}

// PaymentGateway performs the direct charge on the merchant's behalf.
type PaymentGateway interface {
	// Name returns the gateway identifier used in the tokenization specification.
	Name() string

	// Charge converts a wallet token into a payment. Declines are reported
	// through ChargeResult.Status, transport failures through error.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// NotificationVerifier authenticates and decodes gateway callbacks.
type NotificationVerifier interface {
	ParseNotification(ctx context.Context, n Notification) (*PaymentStatus, error)
}

// TokenRegistry enforces single use of wallet tokens by fingerprint.
type TokenRegistry interface {
	// Claim returns false if the fingerprint was already claimed.
	Claim(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error)
}

// IdempotencyStore replays order submission results for repeated keys.
type IdempotencyStore interface {
	// Get returns (nil, nil) when the key is unknown.
	Get(ctx context.Context, key string) (*OrderSubmissionResult, error)
	Put(ctx context.Context, key string, result OrderSubmissionResult, ttl time.Duration) error
}
