package receipts

import "time"

// Receipt is the immutable record of a completed sale. Totals are computed
// once at creation and never recalculated.
type Receipt struct {
	ID              int64     `json:"id"`
	ReceiptNumber   string    `json:"receipt_number"`
	Token           string    `json:"token"`
	Date            time.Time `json:"date"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerAddress string    `json:"customer_address"`
	Items           []Item    `json:"items"`
	Subtotal        float64   `json:"subtotal"`
	Shipping        float64   `json:"shipping"`
	TaxPercent      float64   `json:"tax_percent"`
	TaxAmount       float64   `json:"tax_amount"`
	GrandTotal      float64   `json:"grand_total"`
	CreatedAt       time.Time `json:"created_at"`
}

// Item is one line on a receipt.
type Item struct {
	ID          int64   `json:"id"`
	ReceiptID   int64   `json:"receipt_id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	LineOrder   int     `json:"line_order"`
}

// CreateReceiptRequest carries an admin-entered receipt.
type CreateReceiptRequest struct {
	Date            time.Time       `json:"date" validate:"required"`
	CustomerName    string          `json:"customer_name" validate:"required,max=200"`
	CustomerPhone   string          `json:"customer_phone" validate:"max=50"`
	CustomerAddress string          `json:"customer_address" validate:"max=500"`
	Items           []CreateItemReq `json:"items" validate:"required,min=1,dive"`
	TaxPercent      float64         `json:"tax_percent" validate:"gte=0,lte=100"`
	Shipping        float64         `json:"shipping" validate:"gte=0"`
}

// CreateItemReq is one submitted line item.
type CreateItemReq struct {
	Description string  `json:"description" validate:"required,max=300"`
	Quantity    int     `json:"quantity" validate:"required,gte=1"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

// ListFilters narrows receipt listings.
type ListFilters struct {
	ReceiptNumber string
	StartDate     *time.Time
	EndDate       *time.Time
	MinAmount     *float64
	MaxAmount     *float64
	Limit         int
	Offset        int
}
