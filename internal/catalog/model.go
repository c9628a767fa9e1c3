package catalog

import "time"

// Size is a garment size label.
type Size string

const (
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

// Sizes lists the supported size labels in display order.
var Sizes = []Size{SizeS, SizeM, SizeL, SizeXL}

// ValidSize reports whether the label is one of the supported sizes.
func ValidSize(s Size) bool {
	switch s {
	case SizeS, SizeM, SizeL, SizeXL:
		return true
	}
	return false
}

// Product is a catalog entry. Stock is held per size; LegacyStock survives
// from records created before size-keyed stock and is never written to.
type Product struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Price       float64      `json:"price"`
	Gender      string       `json:"gender"`
	Color       string       `json:"color"`
	Fabric      string       `json:"fabric"`
	Origin      string       `json:"origin"`
	Narrative   string       `json:"narrative"`
	Images      []string     `json:"images"`
	StockBySize map[Size]int `json:"stock_by_size,omitempty"`
	LegacyStock int          `json:"stock"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// EffectiveStock is the sum of per-size counts when a size map exists,
// otherwise the legacy integer.
func (p Product) EffectiveStock() int {
	if len(p.StockBySize) == 0 {
		return p.LegacyStock
	}
	total := 0
	for _, qty := range p.StockBySize {
		total += qty
	}
	return total
}

// AvailableStock returns the remaining count for one size. Legacy records
// have no per-size counts; the total divided by four is an approximation
// carried over from the original storefront.
func (p Product) AvailableStock(size Size) int {
	if len(p.StockBySize) > 0 {
		return p.StockBySize[size]
	}
	return p.LegacyStock / 4
}

// AvailableSizes lists sizes with at least one unit remaining.
func (p Product) AvailableSizes() []Size {
	var out []Size
	for _, size := range Sizes {
		if p.AvailableStock(size) > 0 {
			out = append(out, size)
		}
	}
	return out
}

// IsLowStock reports whether the product is down to its last unit.
func (p Product) IsLowStock() bool {
	total := p.EffectiveStock()
	return total > 0 && total <= 1
}

// IsOutOfStock reports whether the product has no remaining units.
func (p Product) IsOutOfStock() bool {
	return p.EffectiveStock() == 0
}
