package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// MinorUnit returns the number of decimal places used by an ISO 4217 currency.
func MinorUnit(code string) (int32, error) {
	unit, err := parseCurrency(code)
	if err != nil {
		return 0, err
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale), nil
}

// ValidateCurrency checks that code is an upper-case ISO 4217 currency code.
func ValidateCurrency(code string) error {
	_, err := parseCurrency(code)
	return err
}

func parseCurrency(code string) (currency.Unit, error) {
	if len(code) != 3 || !isUpperAlpha(code) {
		return currency.Unit{}, fmt.Errorf("currency code %q is not an ISO 4217 code", code)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency code %q is not an ISO 4217 code", code)
	}
	return unit, nil
}

// ValidateCountry checks that code is an ISO 3166-1 alpha-2 country code.
func ValidateCountry(code string) error {
	if len(code) != 2 || !isUpperAlpha(code) {
		return fmt.Errorf("country code %q is not an ISO 3166-1 alpha-2 code", code)
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return fmt.Errorf("country code %q is not an ISO 3166-1 alpha-2 code", code)
	}
	return nil
}

func isUpperAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// ParseAmount parses a non-negative decimal amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("amount %q is not a decimal number", s)
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("amount %q is negative", s)
	}
	return amount, nil
}

// FormatAmount renders amount with exactly the currency's minor unit precision.
// Amounts finer than the minor unit are rejected, never rounded.
func FormatAmount(amount decimal.Decimal, code string) (string, error) {
	scale, err := MinorUnit(code)
	if err != nil {
		return "", err
	}
	if !amount.Truncate(scale).Equal(amount) {
		return "", fmt.Errorf("amount %s has more precision than %s allows (%d decimals)", amount.String(), code, scale)
	}
	return amount.StringFixed(scale), nil
}

// SameAmount reports whether two decimal strings denote the same value in the
// given currency. Either side carrying sub-minor-unit precision never matches.
func SameAmount(a, b, code string) bool {
	da, err := ParseAmount(a)
	if err != nil {
		return false
	}
	db, err := ParseAmount(b)
	if err != nil {
		return false
	}
	if _, err := FormatAmount(da, code); err != nil {
		return false
	}
	if _, err := FormatAmount(db, code); err != nil {
		return false
	}
	return da.Equal(db)
}
