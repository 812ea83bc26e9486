package domain

import "strings"

// BaseCurrencyCode is the reference currency of the external rate feed.
// All cross rates are computed through it.
const BaseCurrencyCode = "RUB"

// supportedCurrencies is the enumerated set of currencies accounts may be
// denominated in. All of them are quoted by the rate feed (the base quotes
// itself at 1).
var supportedCurrencies = map[string]struct{}{
	"RUB": {},
	"USD": {},
	"EUR": {},
	"GBP": {},
	"CNY": {},
	"KZT": {},
}

// IsSupportedCurrency reports whether code belongs to the supported set.
// Comparison is case-insensitive.
func IsSupportedCurrency(code string) bool {
	_, ok := supportedCurrencies[strings.ToUpper(code)]
	return ok
}

// SupportedCurrencies returns the supported currency codes.
func SupportedCurrencies() []string {
	codes := make([]string, 0, len(supportedCurrencies))
	for code := range supportedCurrencies {
		codes = append(codes, code)
	}
	return codes
}
