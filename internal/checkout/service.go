package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/batikthread/batikthread/internal/cart"
	"github.com/batikthread/batikthread/internal/pricing"
	"github.com/batikthread/batikthread/internal/receipts"
	"github.com/batikthread/batikthread/internal/transactions"
)

var (
	// ErrEmptyCart rejects checkouts with no lines.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrPaymentDeclined is the simulated gateway rejection.
	ErrPaymentDeclined = errors.New("checkout: payment declined")
)

// CartPort loads and clears guest carts.
type CartPort interface {
	Get(ctx context.Context, token string) (cart.View, error)
	Clear(ctx context.Context, token string) error
}

// SettingsPort supplies the current pricing configuration.
type SettingsPort interface {
	Current(ctx context.Context) (pricing.Settings, error)
}

// Payer authorizes a payment. The production implementation is a simulator;
// a real gateway would slot in here.
type Payer interface {
	Authorize(ctx context.Context, method string, amount float64) (string, error)
}

// SimulatedPayer approves every sane payment and hands back a reference.
type SimulatedPayer struct{}

func (SimulatedPayer) Authorize(ctx context.Context, method string, amount float64) (string, error) {
	if amount <= 0 {
		return "", ErrPaymentDeclined
	}
	return "PAY-" + uuid.NewString(), nil
}

type Service struct {
	logger   *slog.Logger
	store    Store
	carts    CartPort
	settings SettingsPort
	payer    Payer
}

func NewService(logger *slog.Logger, store Store, carts CartPort, settings SettingsPort, payer Payer) *Service {
	if payer == nil {
		payer = SimulatedPayer{}
	}
	return &Service{logger: logger, store: store, carts: carts, settings: settings, payer: payer}
}

// Checkout turns a cart into a paid order: price it with the current
// settings, authorize the simulated payment, then decrement stock and write
// the receipt and transaction in one database transaction.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	view, err := s.carts.Get(ctx, req.CartToken)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(view.Lines) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("load settings: %w", err)
	}
	totals, err := pricing.CalculateTotals(view.Subtotal(), settings)
	if err != nil {
		return CheckoutResult{}, err
	}

	paymentRef, err := s.payer.Authorize(ctx, req.PaymentMethod, totals.Total)
	if err != nil {
		return CheckoutResult{}, err
	}

	now := time.Now()
	receipt := receipts.Receipt{
		Token:           uuid.NewString(),
		Date:            now,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		TaxPercent:      settings.TaxPercentage,
		TaxAmount:       totals.Tax,
		GrandTotal:      totals.Total,
	}
	stockLines := make([]StockLine, 0, len(view.Lines))
	for i, line := range view.Lines {
		receipt.Items = append(receipt.Items, receipts.Item{
			Description: fmt.Sprintf("%s (%s)", line.Name, line.Size),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   pricing.Round2(float64(line.Quantity) * line.UnitPrice),
			LineOrder:   i + 1,
		})
		stockLines = append(stockLines, StockLine{
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  line.Quantity,
		})
	}

	txRecord := transactions.Transaction{
		CustomerName:    req.CustomerName,
		ProductTotal:    totals.Subtotal,
		ShippingCost:    totals.Shipping,
		TaxAmount:       totals.Tax,
		TotalAmount:     totals.Total,
		Status:          transactions.StatusCompleted,
		Source:          transactions.SourceCheckout,
		TransactionDate: now,
	}

	if err := s.store.Finalize(ctx, stockLines, &receipt, &txRecord); err != nil {
		return CheckoutResult{}, err
	}

	if err := s.carts.Clear(ctx, req.CartToken); err != nil {
		s.logger.Warn("clear cart after checkout", slog.Any("error", err))
	}

	s.logger.Info("checkout completed",
		slog.String("receipt_number", receipt.ReceiptNumber),
		slog.Float64("total", totals.Total))

	return CheckoutResult{
		PaymentRef:  paymentRef,
		Receipt:     receipt,
		Transaction: txRecord,
	}, nil
}
