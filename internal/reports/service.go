// Package reports aggregates store activity for the admin dashboard.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/batikthread/batikthread/internal/catalog"
)

// Summary is the admin dashboard snapshot.
type Summary struct {
	ReceiptCount      int            `json:"receipt_count"`
	ReceiptTotal      float64        `json:"receipt_total"`
	TransactionCounts map[string]int `json:"transaction_counts"`
	RefundedTotal     float64        `json:"refunded_total"`
	LowStockProducts  int            `json:"low_stock_products"`
	PendingRequests   int            `json:"pending_requests"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// CatalogPort lists products for the low-stock aggregate.
type CatalogPort interface {
	ListAll(ctx context.Context, filters catalog.ListFilters) ([]catalog.Product, int, error)
}

type Service struct {
	pool    *pgxpool.Pool
	catalog CatalogPort
}

func NewService(pool *pgxpool.Pool, catalogPort CatalogPort) *Service {
	return &Service{pool: pool, catalog: catalogPort}
}

// Summarize runs the dashboard aggregates concurrently. Each query is
// independent and read only, so a shared pool connection per goroutine
// is safe.
func (s *Service) Summarize(ctx context.Context) (*Summary, error) {
	out := &Summary{
		TransactionCounts: make(map[string]int),
		GeneratedAt:       time.Now().UTC(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		const q = `SELECT count(*), COALESCE(sum(grand_total), 0) FROM receipts`
		if err := s.pool.QueryRow(ctx, q).Scan(&out.ReceiptCount, &out.ReceiptTotal); err != nil {
			return fmt.Errorf("reports: receipt totals: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		const q = `SELECT status, count(*) FROM transactions GROUP BY status`
		rows, err := s.pool.Query(ctx, q)
		if err != nil {
			return fmt.Errorf("reports: transaction counts: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var status string
			var n int
			if err := rows.Scan(&status, &n); err != nil {
				return fmt.Errorf("reports: transaction counts scan: %w", err)
			}
			out.TransactionCounts[status] = n
		}
		return rows.Err()
	})

	g.Go(func() error {
		const q = `SELECT COALESCE(sum(refund_amount), 0) FROM transactions WHERE status = 'refunded'`
		if err := s.pool.QueryRow(ctx, q).Scan(&out.RefundedTotal); err != nil {
			return fmt.Errorf("reports: refunded total: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		n, err := s.lowStockCount(ctx)
		if err != nil {
			return fmt.Errorf("reports: low stock: %w", err)
		}
		out.LowStockProducts = n
		return nil
	})

	g.Go(func() error {
		const q = `SELECT count(*) FROM custom_requests WHERE status = 'pending'`
		if err := s.pool.QueryRow(ctx, q).Scan(&out.PendingRequests); err != nil {
			return fmt.Errorf("reports: pending requests: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// lowStockCount counts products whose effective stock is down to the last
// unit, using the same size-aware definition the catalog renders with.
func (s *Service) lowStockCount(ctx context.Context) (int, error) {
	products, _, err := s.catalog.ListAll(ctx, catalog.ListFilters{})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range products {
		if p.IsLowStock() {
			n++
		}
	}
	return n, nil
}
