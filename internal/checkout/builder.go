package checkout

import (
	"github.com/fitstack/walletpay/internal/domain"
)

// TransactionParams are the per-checkout values supplied by the merchant backend.
type TransactionParams struct {
	Merchant         domain.MerchantInfo
	TotalPrice       string
	CurrencyCode     string
	CountryCode      string
	TotalPriceStatus domain.TotalPriceStatus
}

// ParamsFromContext extracts transaction params from a server-rendered checkout context.
func ParamsFromContext(cc domain.CheckoutContext) TransactionParams {
	return TransactionParams{
		Merchant:         cc.MerchantInfo,
		TotalPrice:       cc.TransactionInfo.TotalPrice,
		CurrencyCode:     cc.TransactionInfo.CurrencyCode,
		CountryCode:      cc.TransactionInfo.CountryCode,
		TotalPriceStatus: cc.TransactionInfo.TotalPriceStatus,
	}
}

// RequestBuilder merges the static wallet configuration with transaction params.
type RequestBuilder struct {
	template domain.WalletConfiguration
}

// NewRequestBuilder creates a builder over an immutable copy of template.
func NewRequestBuilder(template domain.WalletConfiguration) *RequestBuilder {
	return &RequestBuilder{template: template.Clone()}
}

// Build returns a fresh, validated payment data request.
func (b *RequestBuilder) Build(params TransactionParams) (domain.PaymentDataRequest, error) {
	if err := validateTemplate(b.template); err != nil {
		return domain.PaymentDataRequest{}, err
	}
	if params.Merchant.MerchantID == "" {
		return domain.PaymentDataRequest{}, invalid("merchant id is required", "MISSING_MERCHANT_ID")
	}
	if params.Merchant.MerchantName == "" {
		return domain.PaymentDataRequest{}, invalid("merchant name is required", "MISSING_MERCHANT_NAME")
	}
	if params.TotalPrice == "" {
		return domain.PaymentDataRequest{}, invalid("total price is required", "MISSING_TOTAL_PRICE")
	}
	if params.CurrencyCode == "" {
		return domain.PaymentDataRequest{}, invalid("currency code is required", "MISSING_CURRENCY")
	}
	if params.CountryCode == "" {
		return domain.PaymentDataRequest{}, invalid("country code is required", "MISSING_COUNTRY")
	}

	status := params.TotalPriceStatus
	if status == "" {
		status = domain.PriceStatusFinal
	}
	if !status.Valid() {
		return domain.PaymentDataRequest{}, invalid("unknown total price status "+string(status), "INVALID_PRICE_STATUS")
	}
	if err := domain.ValidateCurrency(params.CurrencyCode); err != nil {
		return domain.PaymentDataRequest{}, invalid(err.Error(), "INVALID_CURRENCY")
	}
	if err := domain.ValidateCountry(params.CountryCode); err != nil {
		return domain.PaymentDataRequest{}, invalid(err.Error(), "INVALID_COUNTRY")
	}

	amount, err := domain.ParseAmount(params.TotalPrice)
	if err != nil {
		return domain.PaymentDataRequest{}, invalid(err.Error(), "INVALID_TOTAL_PRICE")
	}
	totalPrice, err := domain.FormatAmount(amount, params.CurrencyCode)
	if err != nil {
		return domain.PaymentDataRequest{}, invalid(err.Error(), "INVALID_TOTAL_PRICE")
	}

	return domain.PaymentDataRequest{
		WalletConfiguration: b.template.Clone(),
		MerchantInfo:        params.Merchant,
		TransactionInfo: domain.TransactionInfo{
			TotalPriceStatus: status,
			TotalPrice:       totalPrice,
			CurrencyCode:     params.CurrencyCode,
			CountryCode:      params.CountryCode,
		},
	}, nil
}

func validateTemplate(cfg domain.WalletConfiguration) error {
	if cfg.APIVersion == 0 {
		return invalid("api version is required", "MISSING_API_VERSION")
	}
	if len(cfg.AllowedPaymentMethods) == 0 {
		return invalid("at least one payment method is required", "MISSING_PAYMENT_METHODS")
	}
	for _, m := range cfg.AllowedPaymentMethods {
		if m.TokenizationSpecification == nil || m.TokenizationSpecification.Parameters.Gateway == "" {
			return invalid("payment method "+m.Type+" has no tokenization gateway", "MISSING_TOKENIZATION")
		}
	}
	return nil
}

func invalid(message, code string) error {
	return domain.NewPaymentError(domain.ErrInvalidPaymentRequest, message, code)
}
