package repository

import (
	"github.com/shopspring/decimal"

	commonErrors "github.com/centavoapp/backend/internal/domain/errors"
)

// Money amounts are stored as strings. attributevalue cannot marshal
// decimal.Decimal directly, and strings survive round-trips without the
// precision loss a float attribute would introduce.

func amountString(d decimal.Decimal) string {
	return d.String()
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, commonErrors.NewInternalError("stored amount is not a valid decimal", err)
	}
	return d, nil
}
