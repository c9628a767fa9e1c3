package cart

import (
	"time"

	"github.com/batikthread/batikthread/internal/catalog"
	"github.com/batikthread/batikthread/internal/pricing"
)

// Cart is a guest shopping cart. It lives in Redis under an opaque token and
// expires after the configured TTL; nothing about it is authoritative until
// checkout.
type Cart struct {
	Token     string    `json:"token"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Line is one (product, size, quantity) entry.
type Line struct {
	ProductID int64        `json:"product_id"`
	Name      string       `json:"name"`
	Size      catalog.Size `json:"size"`
	Quantity  int          `json:"quantity"`
	UnitPrice float64      `json:"unit_price"`
	// Clamped is set when the requested quantity was reduced to fit the
	// stock remaining for the chosen size.
	Clamped bool `json:"clamped,omitempty"`
}

// View is the cart plus its current price breakdown.
type View struct {
	Cart
	Totals pricing.OrderTotals `json:"totals"`
}

// PutLineRequest adds or replaces one line in a cart.
type PutLineRequest struct {
	ProductID int64        `json:"product_id" validate:"required,gt=0"`
	Size      catalog.Size `json:"size" validate:"required"`
	Quantity  int          `json:"quantity" validate:"required,gte=1"`
}

// Subtotal sums the line amounts.
func (c Cart) Subtotal() float64 {
	total := 0.0
	for _, line := range c.Lines {
		total += float64(line.Quantity) * line.UnitPrice
	}
	return total
}
