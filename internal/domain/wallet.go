package domain

import (
	"fmt"
	"log/slog"
)

// Wallet API version implemented by this integration.
const (
	APIVersion      = 2
	APIVersionMinor = 0
)

// Payment method and tokenization type tags.
const (
	PaymentMethodCard          = "CARD"
	TokenizationPaymentGateway = "PAYMENT_GATEWAY"
)

// TotalPriceStatus tells the wallet how final the displayed total is.
type TotalPriceStatus string

const (
	PriceStatusEstimated         TotalPriceStatus = "ESTIMATED"
	PriceStatusFinal             TotalPriceStatus = "FINAL"
	PriceStatusNotCurrentlyKnown TotalPriceStatus = "NOT_CURRENTLY_KNOWN"
)

// Valid reports whether s is one of the declared statuses.
func (s TotalPriceStatus) Valid() bool {
	switch s {
	case PriceStatusEstimated, PriceStatusFinal, PriceStatusNotCurrentlyKnown:
		return true
	}
	return false
}

// TokenizationSpecification names the gateway that receives the encrypted payment data.
type TokenizationSpecification struct {
	Type       string                 `json:"type"`
	Parameters TokenizationParameters `json:"parameters"`
}

// TokenizationParameters identifies the merchant at the gateway.
type TokenizationParameters struct {
	Gateway           string `json:"gateway"`
	GatewayMerchantID string `json:"gatewayMerchantId"`
}

// CardParameters restricts which cards the wallet may offer.
type CardParameters struct {
	AllowedCardNetworks []string `json:"allowedCardNetworks"`
	AllowedAuthMethods  []string `json:"allowedAuthMethods"`
}

// PaymentMethod describes one acceptable payment instrument class.
type PaymentMethod struct {
	Type                      string                     `json:"type"`
	Parameters                CardParameters             `json:"parameters"`
	TokenizationSpecification *TokenizationSpecification `json:"tokenizationSpecification,omitempty"`
}

// NewCardPaymentMethod builds the CARD method tokenized for the given gateway.
// The network and auth method slices are copied.
func NewCardPaymentMethod(gateway, gatewayMerchantID string, networks, authMethods []string) PaymentMethod {
	return PaymentMethod{
		Type: PaymentMethodCard,
		Parameters: CardParameters{
			AllowedCardNetworks: append([]string(nil), networks...),
			AllowedAuthMethods:  append([]string(nil), authMethods...),
		},
		TokenizationSpecification: &TokenizationSpecification{
			Type: TokenizationPaymentGateway,
			Parameters: TokenizationParameters{
				Gateway:           gateway,
				GatewayMerchantID: gatewayMerchantID,
			},
		},
	}
}

// clone returns a deep copy so templates can't be mutated through requests.
func (m PaymentMethod) clone() PaymentMethod {
	out := m
	out.Parameters.AllowedCardNetworks = append([]string(nil), m.Parameters.AllowedCardNetworks...)
	out.Parameters.AllowedAuthMethods = append([]string(nil), m.Parameters.AllowedAuthMethods...)
	if m.TokenizationSpecification != nil {
		spec := *m.TokenizationSpecification
		out.TokenizationSpecification = &spec
	}
	return out
}

// WalletConfiguration is the static, versioned part of every wallet request.
type WalletConfiguration struct {
	APIVersion            int             `json:"apiVersion"`
	APIVersionMinor       int             `json:"apiVersionMinor"`
	AllowedPaymentMethods []PaymentMethod `json:"allowedPaymentMethods"`
}

// NewWalletConfiguration returns a configuration at the supported API version.
func NewWalletConfiguration(methods ...PaymentMethod) WalletConfiguration {
	return WalletConfiguration{
		APIVersion:            APIVersion,
		APIVersionMinor:       APIVersionMinor,
		AllowedPaymentMethods: cloneMethods(methods),
	}
}

// Clone returns a deep copy of the configuration.
func (c WalletConfiguration) Clone() WalletConfiguration {
	out := c
	out.AllowedPaymentMethods = cloneMethods(c.AllowedPaymentMethods)
	return out
}

func cloneMethods(methods []PaymentMethod) []PaymentMethod {
	if methods == nil {
		return nil
	}
	out := make([]PaymentMethod, len(methods))
	for i, m := range methods {
		out[i] = m.clone()
	}
	return out
}

// IsReadyToPayRequest is the readiness query sent to the wallet provider.
type IsReadyToPayRequest struct {
	WalletConfiguration
}

// IsReadyToPayResponse is the wallet provider's readiness answer.
type IsReadyToPayResponse struct {
	Result bool `json:"result"`
}

// MerchantInfo identifies the merchant to the wallet.
type MerchantInfo struct {
	MerchantID   string `json:"merchantId"`
	MerchantName string `json:"merchantName"`
}

// TransactionInfo carries the per-transaction amount fields.
type TransactionInfo struct {
	TotalPriceStatus TotalPriceStatus `json:"totalPriceStatus"`
	TotalPrice       string           `json:"totalPrice"`
	CurrencyCode     string           `json:"currencyCode"`
	CountryCode      string           `json:"countryCode"`
}

// PaymentDataRequest is the full envelope for one checkout attempt.
// Build a new one per activation; amount and currency may change between attempts.
type PaymentDataRequest struct {
	WalletConfiguration
	MerchantInfo    MerchantInfo    `json:"merchantInfo"`
	TransactionInfo TransactionInfo `json:"transactionInfo"`
}

// OpaquePaymentToken is the gateway-specific signed blob produced by the wallet.
// It formats as a redacted placeholder so it never reaches logs.
type OpaquePaymentToken string

const redacted = "[REDACTED]"

func (t OpaquePaymentToken) String() string { return redacted }

// GoString keeps %#v from printing the token.
func (t OpaquePaymentToken) GoString() string { return redacted }

// LogValue implements slog.LogValuer.
func (t OpaquePaymentToken) LogValue() slog.Value { return slog.StringValue(redacted) }

// Format covers %s, %v, %q and friends.
func (t OpaquePaymentToken) Format(f fmt.State, _ rune) { _, _ = f.Write([]byte(redacted)) }

// Reveal returns the raw token. Only the order submitter and gateway adapters call it.
func (t OpaquePaymentToken) Reveal() string { return string(t) }

// Empty reports whether no token was produced.
func (t OpaquePaymentToken) Empty() bool { return t == "" }

// TokenizationData is the wallet's tokenized payload.
type TokenizationData struct {
	Type  string             `json:"type"`
	Token OpaquePaymentToken `json:"token"`
}

// CardInfo describes the card the user selected, for display only.
type CardInfo struct {
	CardNetwork string `json:"cardNetwork"`
	CardDetails string `json:"cardDetails"`
}

// PaymentMethodData is the selected instrument plus its token.
type PaymentMethodData struct {
	Type             string           `json:"type"`
	Description      string           `json:"description,omitempty"`
	Info             CardInfo         `json:"info"`
	TokenizationData TokenizationData `json:"tokenizationData"`
}

// PaymentData is what the wallet provider resolves with after a completed sheet.
type PaymentData struct {
	APIVersion        int               `json:"apiVersion"`
	APIVersionMinor   int               `json:"apiVersionMinor"`
	PaymentMethodData PaymentMethodData `json:"paymentMethodData"`
}

// Token returns the opaque payment token.
func (p PaymentData) Token() OpaquePaymentToken {
	return p.PaymentMethodData.TokenizationData.Token
}
