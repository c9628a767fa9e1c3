package checkout

import (
	"github.com/batikthread/batikthread/internal/receipts"
	"github.com/batikthread/batikthread/internal/transactions"
)

// CheckoutRequest is the public checkout submission. The cart token refers
// to a Redis cart; customer details go onto the receipt.
type CheckoutRequest struct {
	CartToken       string `json:"cart_token" validate:"required,uuid4"`
	CustomerName    string `json:"customer_name" validate:"required,max=200"`
	CustomerPhone   string `json:"customer_phone" validate:"required,max=50"`
	CustomerAddress string `json:"customer_address" validate:"required,max=500"`
	PaymentMethod   string `json:"payment_method" validate:"required,oneof=card transfer cod"`
}

// CheckoutResult is returned after a successful simulated payment.
type CheckoutResult struct {
	PaymentRef  string                   `json:"payment_ref"`
	Receipt     receipts.Receipt         `json:"receipt"`
	Transaction transactions.Transaction `json:"transaction"`
}
