package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name     string
		subtotal float64
		settings Settings
		want     OrderTotals
	}{
		{
			name:     "standard rates",
			subtotal: 300,
			settings: Settings{TaxPercentage: 7.5, ShippingHandling: 10},
			want:     OrderTotals{Subtotal: 300, Tax: 22.5, Shipping: 10, Total: 332.5},
		},
		{
			name:     "zero subtotal",
			subtotal: 0,
			settings: Settings{TaxPercentage: 7.5, ShippingHandling: 10},
			want:     OrderTotals{Subtotal: 0, Tax: 0, Shipping: 10, Total: 10},
		},
		{
			name:     "zero rates",
			subtotal: 100,
			settings: Settings{},
			want:     OrderTotals{Subtotal: 100, Tax: 0, Shipping: 0, Total: 100},
		},
		{
			name:     "whole percent",
			subtotal: 50,
			settings: Settings{TaxPercentage: 10, ShippingHandling: 5},
			want:     OrderTotals{Subtotal: 50, Tax: 5, Shipping: 5, Total: 60},
		},
		{
			// 99.99 * 7.5% = 7.49925; amounts are stored in two-decimal
			// columns, so the computed values carry the rounding.
			name:     "rounds to cents",
			subtotal: 99.99,
			settings: Settings{TaxPercentage: 7.5, ShippingHandling: 10},
			want:     OrderTotals{Subtotal: 99.99, Tax: 7.5, Shipping: 10, Total: 117.49},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateTotals(tc.subtotal, tc.settings)
			require.NoError(t, err)
			assert.InDelta(t, tc.want.Tax, got.Tax, 1e-9)
			assert.InDelta(t, tc.want.Total, got.Total, 1e-9)
			assert.Equal(t, tc.want.Subtotal, got.Subtotal)
			assert.Equal(t, tc.want.Shipping, got.Shipping)
		})
	}
}

func TestCalculateTotalsRejectsBadInput(t *testing.T) {
	valid := Settings{TaxPercentage: 7.5, ShippingHandling: 10}

	_, err := CalculateTotals(-1, valid)
	assert.ErrorIs(t, err, ErrInvalidSubtotal)

	_, err = CalculateTotals(math.NaN(), valid)
	assert.ErrorIs(t, err, ErrInvalidSubtotal)

	_, err = CalculateTotals(math.Inf(1), valid)
	assert.ErrorIs(t, err, ErrInvalidSubtotal)

	_, err = CalculateTotals(100, Settings{TaxPercentage: -5, ShippingHandling: 10})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	_, err = CalculateTotals(100, Settings{TaxPercentage: 7.5, ShippingHandling: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings
	assert.Equal(t, 7.5, s.TaxPercentage)
	assert.Equal(t, 10.0, s.ShippingHandling)
}
