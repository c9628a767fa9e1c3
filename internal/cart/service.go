package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/batikthread/batikthread/internal/catalog"
	"github.com/batikthread/batikthread/internal/pricing"
)

var (
	// ErrProductUnavailable means the product is unknown or out of stock
	// for the requested size.
	ErrProductUnavailable = errors.New("cart: product unavailable")
	// ErrInvalidLine covers malformed line input.
	ErrInvalidLine = errors.New("cart: invalid line")
)

// CatalogPort supplies product data for line validation.
type CatalogPort interface {
	Get(ctx context.Context, id int64) (catalog.Product, error)
}

// PricingPort quotes a subtotal into order totals.
type PricingPort interface {
	Quote(ctx context.Context, subtotal float64) (pricing.OrderTotals, error)
}

type Service struct {
	store   *Store
	catalog CatalogPort
	pricing PricingPort
}

func NewService(store *Store, catalogPort CatalogPort, pricingPort PricingPort) *Service {
	return &Service{store: store, catalog: catalogPort, pricing: pricingPort}
}

// Create opens an empty cart and returns its token.
func (s *Service) Create(ctx context.Context) (View, error) {
	now := time.Now()
	c := Cart{Token: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if err := s.store.Save(ctx, c); err != nil {
		return View{}, err
	}
	return s.view(ctx, c)
}

// Get loads a cart and prices it with the current settings.
func (s *Service) Get(ctx context.Context, token string) (View, error) {
	c, err := s.store.Load(ctx, token)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, c)
}

// PutLine adds or replaces the line for (product, size). Quantity is clamped
// to the stock available for the size; changing size re-clamps against the
// new size's stock.
func (s *Service) PutLine(ctx context.Context, token string, req PutLineRequest) (View, error) {
	if !catalog.ValidSize(req.Size) {
		return View{}, fmt.Errorf("%w: size %q", ErrInvalidLine, req.Size)
	}
	if req.Quantity < 1 {
		return View{}, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidLine)
	}

	c, err := s.store.Load(ctx, token)
	if err != nil {
		return View{}, err
	}

	product, err := s.catalog.Get(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return View{}, ErrProductUnavailable
		}
		return View{}, err
	}

	available := product.AvailableStock(req.Size)
	if available < 1 {
		return View{}, fmt.Errorf("%w: size %s out of stock", ErrProductUnavailable, req.Size)
	}

	line := Line{
		ProductID: product.ID,
		Name:      product.Name,
		Size:      req.Size,
		Quantity:  req.Quantity,
		UnitPrice: product.Price,
	}
	if line.Quantity > available {
		line.Quantity = available
		line.Clamped = true
	}

	replaced := false
	for i := range c.Lines {
		if c.Lines[i].ProductID == line.ProductID && c.Lines[i].Size == line.Size {
			c.Lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		c.Lines = append(c.Lines, line)
	}
	c.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, c); err != nil {
		return View{}, err
	}
	return s.view(ctx, c)
}

// RemoveLine deletes the line for (product, size) if present.
func (s *Service) RemoveLine(ctx context.Context, token string, productID int64, size catalog.Size) (View, error) {
	c, err := s.store.Load(ctx, token)
	if err != nil {
		return View{}, err
	}

	kept := c.Lines[:0]
	for _, line := range c.Lines {
		if line.ProductID == productID && line.Size == size {
			continue
		}
		kept = append(kept, line)
	}
	c.Lines = kept
	c.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, c); err != nil {
		return View{}, err
	}
	return s.view(ctx, c)
}

// Clear empties the cart after a successful checkout.
func (s *Service) Clear(ctx context.Context, token string) error {
	return s.store.Delete(ctx, token)
}

func (s *Service) view(ctx context.Context, c Cart) (View, error) {
	totals, err := s.pricing.Quote(ctx, c.Subtotal())
	if err != nil {
		return View{}, fmt.Errorf("price cart: %w", err)
	}
	return View{Cart: c, Totals: totals}, nil
}
