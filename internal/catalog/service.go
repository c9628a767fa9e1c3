package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidSize is returned for size labels outside S/M/L/XL.
var ErrInvalidSize = errors.New("catalog: invalid size")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListPublic returns the shop catalog with out-of-stock products excluded.
func (s *Service) ListPublic(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	filters.PublicOnly = true
	return s.repo.List(ctx, filters)
}

// ListAll returns every product, including out-of-stock ones, for the back office.
func (s *Service) ListAll(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	filters.PublicOnly = false
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (Product, error) {
	stock, err := normalizeStock(req.StockBySize)
	if err != nil {
		return Product{}, err
	}
	product := Product{
		Name:        req.Name,
		Price:       req.Price,
		Gender:      req.Gender,
		Color:       req.Color,
		Fabric:      req.Fabric,
		Origin:      req.Origin,
		Narrative:   req.Narrative,
		Images:      req.Images,
		StockBySize: stock,
	}
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (Product, error) {
	if id <= 0 {
		return Product{}, ErrNotFound
	}
	product := Product{
		Name:      req.Name,
		Price:     req.Price,
		Gender:    req.Gender,
		Color:     req.Color,
		Fabric:    req.Fabric,
		Origin:    req.Origin,
		Narrative: req.Narrative,
		Images:    req.Images,
	}
	if err := s.repo.Update(ctx, id, product); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}

// ReplaceStock sets the per-size counters. Size-keyed stock is the only
// mutable representation; legacy integers are read-only leftovers.
func (s *Service) ReplaceStock(ctx context.Context, id int64, req ReplaceStockRequest) (Product, error) {
	stock, err := normalizeStock(req.StockBySize)
	if err != nil {
		return Product{}, err
	}
	if err := s.repo.ReplaceStock(ctx, id, stock); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func normalizeStock(stock map[Size]int) (map[Size]int, error) {
	out := make(map[Size]int, len(stock))
	for size, qty := range stock {
		if !ValidSize(size) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSize, size)
		}
		if qty < 0 {
			qty = 0
		}
		out[size] = qty
	}
	return out, nil
}
