package receipts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/batikthread/batikthread/internal/pricing"
)

// ErrInvalidItems is returned when line items fail the arithmetic invariants.
var ErrInvalidItems = errors.New("receipts: invalid line items")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Build computes the breakdown for a receipt without persisting it.
// line total = qty * unit price; subtotal = sum of line totals;
// tax = subtotal * taxPercent/100; grand total = subtotal + shipping + tax.
func Build(req CreateReceiptRequest) (Receipt, error) {
	if req.TaxPercent < 0 || req.Shipping < 0 {
		return Receipt{}, fmt.Errorf("%w: negative tax or shipping", ErrInvalidItems)
	}

	items := make([]Item, 0, len(req.Items))
	subtotal := 0.0
	for i, in := range req.Items {
		if in.Quantity < 1 || in.UnitPrice < 0 {
			return Receipt{}, fmt.Errorf("%w: line %d", ErrInvalidItems, i+1)
		}
		lineTotal := pricing.Round2(float64(in.Quantity) * in.UnitPrice)
		items = append(items, Item{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			LineTotal:   lineTotal,
			LineOrder:   i + 1,
		})
		subtotal += lineTotal
	}

	// Totals are rounded to cents before persisting so the NUMERIC(12,2)
	// columns hand back exactly what was computed and returned on create.
	subtotal = pricing.Round2(subtotal)
	taxAmount := pricing.Round2(subtotal * req.TaxPercent / 100)
	return Receipt{
		Token:           uuid.NewString(),
		Date:            req.Date,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Items:           items,
		Subtotal:        subtotal,
		Shipping:        req.Shipping,
		TaxPercent:      req.TaxPercent,
		TaxAmount:       taxAmount,
		GrandTotal:      pricing.Round2(subtotal + req.Shipping + taxAmount),
	}, nil
}

// Create builds and persists an admin-entered receipt.
func (s *Service) Create(ctx context.Context, req CreateReceiptRequest) (Receipt, error) {
	receipt, err := Build(req)
	if err != nil {
		return Receipt{}, err
	}
	if err := s.repo.Create(ctx, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("create receipt: %w", err)
	}
	return receipt, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Receipt, error) {
	if id <= 0 {
		return Receipt{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Receipt, int, error) {
	return s.repo.List(ctx, filters)
}
