package checkout

import (
	"testing"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() TransactionParams {
	return TransactionParams{
		Merchant:         domain.MerchantInfo{MerchantID: "BCR2DN6T7P04XAJG", MerchantName: "Your Shop Name"},
		TotalPrice:       "1",
		CurrencyCode:     "EUR",
		CountryCode:      "ES",
		TotalPriceStatus: domain.PriceStatusFinal,
	}
}

func TestRequestBuilder_Build(t *testing.T) {
	builder := NewRequestBuilder(testConfiguration())

	req, err := builder.Build(validParams())

	require.NoError(t, err)
	assert.Equal(t, 2, req.APIVersion)
	assert.Equal(t, 0, req.APIVersionMinor)
	assert.Equal(t, "1.00", req.TransactionInfo.TotalPrice)
	assert.Equal(t, "EUR", req.TransactionInfo.CurrencyCode)
	assert.Equal(t, "ES", req.TransactionInfo.CountryCode)
	assert.Equal(t, domain.PriceStatusFinal, req.TransactionInfo.TotalPriceStatus)
	assert.Equal(t, "BCR2DN6T7P04XAJG", req.MerchantInfo.MerchantID)
	require.Len(t, req.AllowedPaymentMethods, 1)
	assert.Equal(t, "dlocal", req.AllowedPaymentMethods[0].TokenizationSpecification.Parameters.Gateway)
}

func TestRequestBuilder_ZeroDecimalCurrency(t *testing.T) {
	params := validParams()
	params.TotalPrice = "1500"
	params.CurrencyCode = "JPY"
	params.CountryCode = "JP"

	req, err := NewRequestBuilder(testConfiguration()).Build(params)

	require.NoError(t, err)
	assert.Equal(t, "1500", req.TransactionInfo.TotalPrice)
}

func TestRequestBuilder_DefaultsToFinal(t *testing.T) {
	params := validParams()
	params.TotalPriceStatus = ""

	req, err := NewRequestBuilder(testConfiguration()).Build(params)

	require.NoError(t, err)
	assert.Equal(t, domain.PriceStatusFinal, req.TransactionInfo.TotalPriceStatus)
}

func TestRequestBuilder_RejectsMissingOrInvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TransactionParams)
		code   string
	}{
		{"missing merchant id", func(p *TransactionParams) { p.Merchant.MerchantID = "" }, "MISSING_MERCHANT_ID"},
		{"missing merchant name", func(p *TransactionParams) { p.Merchant.MerchantName = "" }, "MISSING_MERCHANT_NAME"},
		{"missing amount", func(p *TransactionParams) { p.TotalPrice = "" }, "MISSING_TOTAL_PRICE"},
		{"missing currency", func(p *TransactionParams) { p.CurrencyCode = "" }, "MISSING_CURRENCY"},
		{"missing country", func(p *TransactionParams) { p.CountryCode = "" }, "MISSING_COUNTRY"},
		{"bad amount", func(p *TransactionParams) { p.TotalPrice = "1,00" }, "INVALID_TOTAL_PRICE"},
		{"negative amount", func(p *TransactionParams) { p.TotalPrice = "-1" }, "INVALID_TOTAL_PRICE"},
		{"sub-cent amount", func(p *TransactionParams) { p.TotalPrice = "1.005" }, "INVALID_TOTAL_PRICE"},
		{"fractional yen", func(p *TransactionParams) { p.TotalPrice = "1.5"; p.CurrencyCode = "JPY" }, "INVALID_TOTAL_PRICE"},
		{"bad currency", func(p *TransactionParams) { p.CurrencyCode = "EURO" }, "INVALID_CURRENCY"},
		{"bad country", func(p *TransactionParams) { p.CountryCode = "Spain" }, "INVALID_COUNTRY"},
		{"bad status", func(p *TransactionParams) { p.TotalPriceStatus = "MAYBE" }, "INVALID_PRICE_STATUS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)

			_, err := NewRequestBuilder(testConfiguration()).Build(params)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidPaymentRequest)
			var perr *domain.PaymentError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.code, perr.Code)
		})
	}
}

func TestRequestBuilder_RejectsTemplateWithoutMethods(t *testing.T) {
	_, err := NewRequestBuilder(domain.NewWalletConfiguration()).Build(validParams())

	assert.ErrorIs(t, err, domain.ErrInvalidPaymentRequest)
}

func TestRequestBuilder_RequestsAreIndependent(t *testing.T) {
	builder := NewRequestBuilder(testConfiguration())

	first, err := builder.Build(validParams())
	require.NoError(t, err)
	first.AllowedPaymentMethods[0].Parameters.AllowedCardNetworks[0] = "AMEX"

	second, err := builder.Build(validParams())
	require.NoError(t, err)
	assert.Equal(t, "VISA", second.AllowedPaymentMethods[0].Parameters.AllowedCardNetworks[0])
}
