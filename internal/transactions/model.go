package transactions

import "time"

// Status is the lifecycle state of a transaction.
type Status string

const (
	// StatusCompleted is the initial state after a successful payment.
	StatusCompleted Status = "completed"
	// StatusRefunded is terminal, reached by explicit admin action.
	StatusRefunded Status = "refunded"
	// StatusClosed is terminal, reached by the stale-transaction sweep.
	StatusClosed Status = "transaction_closed"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusCompleted, StatusRefunded, StatusClosed:
		return true
	}
	return false
}

// Source distinguishes checkout-originated transactions from admin-entered ones.
type Source string

const (
	SourceCheckout Source = "checkout"
	SourceAdmin    Source = "admin"
)

// Transaction tracks the payment lifecycle of a sale. It is the only mutable
// financial record; the linked receipt never changes.
type Transaction struct {
	ID              int64      `json:"id"`
	ReceiptID       *int64     `json:"receipt_id,omitempty"`
	ReceiptNumber   string     `json:"receipt_number"`
	CustomerName    string     `json:"customer_name"`
	ProductTotal    float64    `json:"product_total"`
	ShippingCost    float64    `json:"shipping_cost"`
	TaxAmount       float64    `json:"tax_amount"`
	TotalAmount     float64    `json:"total_amount"`
	Status          Status     `json:"status"`
	Source          Source     `json:"source"`
	TransactionDate time.Time  `json:"transaction_date"`
	RefundAmount    *float64   `json:"refund_amount,omitempty"`
	RefundReason    *string    `json:"refund_reason,omitempty"`
	RefundDate      *time.Time `json:"refund_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateTransactionRequest carries an admin-entered transaction.
type CreateTransactionRequest struct {
	ReceiptID       *int64    `json:"receipt_id,omitempty"`
	ReceiptNumber   string    `json:"receipt_number" validate:"max=50"`
	CustomerName    string    `json:"customer_name" validate:"required,max=200"`
	ProductTotal    float64   `json:"product_total" validate:"gte=0"`
	ShippingCost    float64   `json:"shipping_cost" validate:"gte=0"`
	TaxAmount       float64   `json:"tax_amount" validate:"gte=0"`
	TotalAmount     float64   `json:"total_amount" validate:"gte=0"`
	TransactionDate time.Time `json:"transaction_date" validate:"required"`
}

// UpdateTransactionRequest is the PATCH body. Status is the requested target
// state; refund fields apply only when it is "refunded".
type UpdateTransactionRequest struct {
	Status       Status   `json:"status" validate:"required"`
	RefundAmount *float64 `json:"refund_amount,omitempty" validate:"omitempty,gte=0"`
	RefundReason *string  `json:"refund_reason,omitempty" validate:"omitempty,max=500"`
}

// ListFilters narrows transaction listings.
type ListFilters struct {
	ReceiptNumber string
	CustomerName  string
	Status        *Status
	StartDate     *time.Time
	EndDate       *time.Time
	MinAmount     *float64
	MaxAmount     *float64
	Limit         int
	Offset        int
}
