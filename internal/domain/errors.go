// Package domain contains the core business entities and interfaces for the wallet checkout.
package domain

import (
	"context"
	"errors"
)

// Checkout errors classify every failure the client-side flow can observe.
// Each one maps to exactly one recovery path.
var (
	// ErrReadiness is returned when the wallet provider cannot confirm the user can pay.
	// The page falls back to another payment method.
	ErrReadiness = errors.New("wallet readiness check failed")

	// ErrUserCancelled is returned when the user dismisses the wallet sheet.
	ErrUserCancelled = errors.New("payment cancelled by user")

	// ErrProvider is returned for any other wallet provider failure
	// (developer error, merchant account error, internal error).
	ErrProvider = errors.New("wallet provider error")

	// ErrTransport is returned when the merchant backend could not be reached
	// or did not answer in time. Retryable.
	ErrTransport = errors.New("order submission transport error")

	// ErrBackendRejection is returned when the merchant backend refused the payment.
	// The token is spent; a fresh payment data request is required.
	ErrBackendRejection = errors.New("order rejected by merchant backend")
)

// Backend errors represent business rule violations on the merchant side.
var (
	// ErrInvalidPaymentRequest is returned when a payment data request or order body is malformed.
	ErrInvalidPaymentRequest = errors.New("invalid payment request")

	// ErrProductNotFound is returned when a checkout references an unknown SKU.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderNotFound is returned when an order id does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotPending is returned when a payment is submitted for an order
	// that is already paid or has a charge in flight.
	ErrOrderNotPending = errors.New("order is not awaiting payment")

	// ErrAmountMismatch is returned when the transaction info echoed by the client
	// differs from the server-computed total.
	ErrAmountMismatch = errors.New("transaction info does not match order")

	// ErrTokenReused is returned when a wallet token has already been presented.
	ErrTokenReused = errors.New("payment token already used")

	// ErrPaymentDeclined is returned when the gateway declined the charge.
	ErrPaymentDeclined = errors.New("payment declined by gateway")

	// ErrPaymentGatewayError is returned when there's an error communicating with the gateway.
	ErrPaymentGatewayError = errors.New("payment gateway error")

	// ErrWebhookValidationFailed is returned when a gateway notification signature is invalid.
	ErrWebhookValidationFailed = errors.New("webhook validation failed")
)

// CodeGatewayAuth marks a charge the gateway refused for merchant credential reasons.
const CodeGatewayAuth = "GATEWAY_AUTH_ERROR"

// PaymentError wraps a domain error with additional context.
type PaymentError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with PaymentError.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError with the given error and message.
func NewPaymentError(err error, message, code string) *PaymentError {
	return &PaymentError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// ProviderError is the rejection value of a wallet provider call.
type ProviderError struct {
	StatusCode string `json:"statusCode"`
	Message    string `json:"statusMessage"`
}

// Wallet provider status codes.
const (
	StatusCanceled              = "CANCELED"
	StatusDeveloperError        = "DEVELOPER_ERROR"
	StatusBuyerAccountError     = "BUYER_ACCOUNT_ERROR"
	StatusMerchantAccountError  = "MERCHANT_ACCOUNT_ERROR"
	StatusUnsupportedAPIVersion = "UNSUPPORTED_API_VERSION"
	StatusInternalError         = "INTERNAL_ERROR"
)

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return "wallet provider: " + e.StatusCode
	}
	return "wallet provider: " + e.StatusCode + ": " + e.Message
}

// Unwrap places the provider error inside the checkout taxonomy.
func (e *ProviderError) Unwrap() error {
	if e.StatusCode == StatusCanceled {
		return ErrUserCancelled
	}
	return ErrProvider
}

// Classify maps an arbitrary error onto the checkout taxonomy.
// Unknown errors become ErrProvider; context expiry becomes ErrTransport.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrReadiness):
		return ErrReadiness
	case errors.Is(err, ErrUserCancelled):
		return ErrUserCancelled
	case errors.Is(err, ErrBackendRejection):
		return ErrBackendRejection
	case errors.Is(err, ErrTransport),
		errors.Is(err, context.DeadlineExceeded):
		return ErrTransport
	default:
		return ErrProvider
	}
}
