package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateConverter converts monetary amounts between currencies.
type RateConverter interface {
	// Convert returns amount expressed in the "to" currency.
	//
	// When from and to are equal the result is amount normalized to 2 decimal
	// places and no external lookup happens. Cross-currency results are
	// returned at 3 decimal places. Any feed or lookup failure yields an error
	// matching apperrors.ErrConversionFailure; Convert never fabricates a rate.
	Convert(ctx context.Context, amount decimal.Decimal, from string, to string) (decimal.Decimal, error)
}
