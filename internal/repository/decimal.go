package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Los NUMERIC viajan como texto ($n::numeric / col::text) para no depender
// del codec binario de pgx con decimal.Decimal.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}
