package pricing

import "time"

// Settings is the store-wide pricing configuration. Rows are append-only;
// the highest version is authoritative.
type Settings struct {
	Version          int64     `json:"version"`
	TaxPercentage    float64   `json:"tax_percentage"`
	ShippingHandling float64   `json:"shipping_handling"`
	UpdatedBy        string    `json:"updated_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// OrderTotals is the derived price breakdown for a cart or receipt. It is
// never stored on its own.
type OrderTotals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// UpdateSettingsRequest carries an admin settings change.
type UpdateSettingsRequest struct {
	TaxPercentage    float64 `json:"tax_percentage" validate:"gte=0,lte=100"`
	ShippingHandling float64 `json:"shipping_handling" validate:"gte=0"`
}
