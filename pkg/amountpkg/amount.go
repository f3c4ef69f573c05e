// Package amountpkg parses and truncates money amounts sent to the ledger.
package amountpkg

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates that the amount could not be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNonPositiveAmount indicates that the amount is zero or negative after truncation.
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// Truncate cuts value down to scale fractional digits without rounding.
func Truncate(value float64, scale int32) float64 {
	if scale < 0 {
		scale = 0
	}

	f, _ := decimal.NewFromFloat(value).Truncate(scale).Float64()

	return f
}

// Positive truncates value to scale digits and reports an error when the result is not
// strictly positive.
func Positive(value float64, scale int32) (float64, error) {
	t := Truncate(value, scale)
	if t <= 0 {
		return 0, ErrNonPositiveAmount
	}

	return t, nil
}

// Parse reads a user supplied amount, truncates it to scale digits and requires it to be
// strictly positive.
func Parse(s string, scale int32) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidAmount
	}

	d = d.Truncate(scale)
	if !d.IsPositive() {
		return 0, ErrNonPositiveAmount
	}

	f, _ := d.Float64()

	return f, nil
}

// Mul multiplies two amounts exactly and truncates the product to scale digits.
func Mul(a, b float64, scale int32) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Truncate(scale).Float64()
	return f
}

// Add returns a+b computed in decimal to avoid binary drift across repeated deltas.
func Add(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Float64()
	return f
}

// String formats an amount the way the ledger and the treasury expect it.
func String(value float64) string {
	return decimal.NewFromFloat(value).String()
}
