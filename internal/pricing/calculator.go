package pricing

import (
	"errors"
	"math"
)

var (
	// ErrInvalidSubtotal is returned for negative or non-finite subtotals.
	ErrInvalidSubtotal = errors.New("pricing: subtotal must be a non-negative number")
	// ErrInvalidSettings is returned when tax or shipping is negative or non-finite.
	ErrInvalidSettings = errors.New("pricing: tax percentage and shipping must be non-negative numbers")
)

// CalculateTotals converts a subtotal into the full price breakdown.
// tax = subtotal * taxPercentage/100, shipping is a flat fee,
// total = subtotal + tax + shipping.
func CalculateTotals(subtotal float64, s Settings) (OrderTotals, error) {
	if math.IsNaN(subtotal) || math.IsInf(subtotal, 0) || subtotal < 0 {
		return OrderTotals{}, ErrInvalidSubtotal
	}
	if !validRate(s.TaxPercentage) || !validRate(s.ShippingHandling) {
		return OrderTotals{}, ErrInvalidSettings
	}
	// Amounts persist into NUMERIC(12,2) columns; rounding here keeps the
	// computed values identical to what a reload returns.
	tax := Round2(subtotal * s.TaxPercentage / 100)
	return OrderTotals{
		Subtotal: Round2(subtotal),
		Tax:      tax,
		Shipping: s.ShippingHandling,
		Total:    Round2(subtotal + tax + s.ShippingHandling),
	}, nil
}

// Round2 rounds a monetary amount to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validRate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
