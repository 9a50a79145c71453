// Package walletsim implements domain.WalletProvider as a TEST-environment
// wallet: it validates requests the way the real wallet does and returns
// dummy gateway tokens that no gateway will ever charge.
package walletsim

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"slices"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/google/uuid"
)

var (
	supportedNetworks    = []string{"AMEX", "DISCOVER", "INTERAC", "JCB", "MASTERCARD", "VISA"}
	supportedAuthMethods = []string{"PAN_ONLY", "CRYPTOGRAM_3DS"}
)

// Provider is a simulated wallet client for one checkout.
type Provider struct {
	unavailable bool
	cancel      bool
	network     string
	details     string
}

// Option configures a Provider.
type Option func(*Provider)

// Unavailable makes IsReadyToPay answer false.
func Unavailable() Option { return func(p *Provider) { p.unavailable = true } }

// CancelSheet makes LoadPaymentData behave as if the user dismissed the sheet.
func CancelSheet() Option { return func(p *Provider) { p.cancel = true } }

// WithCard sets the network and last digits reported for the selected card.
func WithCard(network, details string) Option {
	return func(p *Provider) {
		p.network = network
		p.details = details
	}
}

// New creates a simulated wallet client.
func New(opts ...Option) *Provider {
	p := &Provider{network: "VISA", details: "1111"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsReadyToPay reports whether any allowed method is one the simulator can serve.
func (p *Provider) IsReadyToPay(ctx context.Context, req domain.IsReadyToPayRequest) (domain.IsReadyToPayResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.IsReadyToPayResponse{}, err
	}
	if err := checkVersion(req.WalletConfiguration); err != nil {
		return domain.IsReadyToPayResponse{}, err
	}
	if p.unavailable {
		return domain.IsReadyToPayResponse{Result: false}, nil
	}
	for _, m := range req.AllowedPaymentMethods {
		if supportsMethod(m) {
			return domain.IsReadyToPayResponse{Result: true}, nil
		}
	}
	return domain.IsReadyToPayResponse{Result: false}, nil
}

// LoadPaymentData validates the request and returns a dummy token for the
// first tokenizable CARD method.
func (p *Provider) LoadPaymentData(ctx context.Context, req domain.PaymentDataRequest) (domain.PaymentData, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentData{}, err
	}
	if err := checkVersion(req.WalletConfiguration); err != nil {
		return domain.PaymentData{}, err
	}
	if req.MerchantInfo.MerchantID == "" {
		return domain.PaymentData{}, developerError("merchantInfo.merchantId is required")
	}
	if !req.TransactionInfo.TotalPriceStatus.Valid() {
		return domain.PaymentData{}, developerError("transactionInfo.totalPriceStatus is invalid")
	}
	if req.TransactionInfo.CurrencyCode == "" {
		return domain.PaymentData{}, developerError("transactionInfo.currencyCode is required")
	}

	var method *domain.PaymentMethod
	for i := range req.AllowedPaymentMethods {
		if supportsMethod(req.AllowedPaymentMethods[i]) {
			method = &req.AllowedPaymentMethods[i]
			break
		}
	}
	if method == nil {
		return domain.PaymentData{}, developerError("no supported payment method")
	}
	spec := method.TokenizationSpecification
	if spec == nil || spec.Type != domain.TokenizationPaymentGateway || spec.Parameters.Gateway == "" {
		return domain.PaymentData{}, developerError("tokenizationSpecification with a gateway is required")
	}

	if p.cancel {
		return domain.PaymentData{}, &domain.ProviderError{StatusCode: domain.StatusCanceled, Message: "User closed the Payment Request UI."}
	}

	token, err := testToken(spec.Parameters)
	if err != nil {
		return domain.PaymentData{}, &domain.ProviderError{StatusCode: domain.StatusInternalError, Message: err.Error()}
	}

	return domain.PaymentData{
		APIVersion:      req.APIVersion,
		APIVersionMinor: req.APIVersionMinor,
		PaymentMethodData: domain.PaymentMethodData{
			Type:        domain.PaymentMethodCard,
			Description: p.network + " •••• " + p.details,
			Info:        domain.CardInfo{CardNetwork: p.network, CardDetails: p.details},
			TokenizationData: domain.TokenizationData{
				Type:  domain.TokenizationPaymentGateway,
				Token: token,
			},
		},
	}, nil
}

func checkVersion(cfg domain.WalletConfiguration) error {
	if cfg.APIVersion != domain.APIVersion || cfg.APIVersionMinor != domain.APIVersionMinor {
		return &domain.ProviderError{StatusCode: domain.StatusUnsupportedAPIVersion, Message: "only apiVersion 2.0 is supported"}
	}
	return nil
}

func supportsMethod(m domain.PaymentMethod) bool {
	if m.Type != domain.PaymentMethodCard {
		return false
	}
	networkOK := false
	for _, n := range m.Parameters.AllowedCardNetworks {
		if slices.Contains(supportedNetworks, n) {
			networkOK = true
			break
		}
	}
	authOK := false
	for _, a := range m.Parameters.AllowedAuthMethods {
		if slices.Contains(supportedAuthMethods, a) {
			authOK = true
			break
		}
	}
	return networkOK && authOK
}

func developerError(msg string) error {
	return &domain.ProviderError{StatusCode: domain.StatusDeveloperError, Message: msg}
}

// testToken mimics the ECv2 token envelope; the signature is random filler.
func testToken(params domain.TokenizationParameters) (domain.OpaquePaymentToken, error) {
	signed, err := json.Marshal(map[string]string{
		"encryptedMessage":   base64.StdEncoding.EncodeToString([]byte(uuid.NewString())),
		"ephemeralPublicKey": base64.StdEncoding.EncodeToString([]byte(params.Gateway)),
		"tag":                base64.StdEncoding.EncodeToString([]byte(params.GatewayMerchantID)),
	})
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(map[string]string{
		"signature":       base64.StdEncoding.EncodeToString([]byte(uuid.NewString())),
		"protocolVersion": "ECv2",
		"signedMessage":   string(signed),
	})
	if err != nil {
		return "", err
	}
	return domain.OpaquePaymentToken(raw), nil
}
