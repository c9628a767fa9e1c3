package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batikthread/batikthread/internal/catalog"
	"github.com/batikthread/batikthread/internal/pricing"
)

type stubCatalog struct {
	products map[int64]catalog.Product
}

func (s stubCatalog) Get(ctx context.Context, id int64) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

type stubPricing struct{}

func (stubPricing) Quote(ctx context.Context, subtotal float64) (pricing.OrderTotals, error) {
	return pricing.CalculateTotals(subtotal, pricing.Settings{TaxPercentage: 7.5, ShippingHandling: 10})
}

func newTestService(t *testing.T, products map[int64]catalog.Product) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client, time.Hour)
	return NewService(store, stubCatalog{products: products}, stubPricing{})
}

func shirt() catalog.Product {
	return catalog.Product{
		ID:    1,
		Name:  "Parang Shirt",
		Price: 85,
		StockBySize: map[catalog.Size]int{
			catalog.SizeM: 2,
			catalog.SizeL: 5,
		},
	}
}

func TestPutLineClampsToStock(t *testing.T) {
	svc := newTestService(t, map[int64]catalog.Product{1: shirt()})

	view, err := svc.Create(context.Background())
	require.NoError(t, err)

	view, err = svc.PutLine(context.Background(), view.Token, PutLineRequest{
		ProductID: 1, Size: catalog.SizeM, Quantity: 5,
	})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.True(t, view.Lines[0].Clamped)
	assert.InDelta(t, 170.0, view.Cart.Subtotal(), 1e-9)
	assert.InDelta(t, 192.75, view.Totals.Total, 1e-9)
}

func TestPutLineReplacesAndReclamps(t *testing.T) {
	svc := newTestService(t, map[int64]catalog.Product{1: shirt()})

	view, err := svc.Create(context.Background())
	require.NoError(t, err)
	token := view.Token

	_, err = svc.PutLine(context.Background(), token, PutLineRequest{
		ProductID: 1, Size: catalog.SizeL, Quantity: 4,
	})
	require.NoError(t, err)

	// Same product, different size: a separate line, clamped to the new
	// size's stock.
	view, err = svc.PutLine(context.Background(), token, PutLineRequest{
		ProductID: 1, Size: catalog.SizeM, Quantity: 4,
	})
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)

	// Re-putting an existing (product, size) replaces its quantity.
	view, err = svc.PutLine(context.Background(), token, PutLineRequest{
		ProductID: 1, Size: catalog.SizeL, Quantity: 1,
	})
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	for _, line := range view.Lines {
		if line.Size == catalog.SizeL {
			assert.Equal(t, 1, line.Quantity)
			assert.False(t, line.Clamped)
		}
	}
}

func TestPutLineRejectsOutOfStockSize(t *testing.T) {
	svc := newTestService(t, map[int64]catalog.Product{1: shirt()})

	view, err := svc.Create(context.Background())
	require.NoError(t, err)

	_, err = svc.PutLine(context.Background(), view.Token, PutLineRequest{
		ProductID: 1, Size: catalog.SizeS, Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestPutLineRejectsBadInput(t *testing.T) {
	svc := newTestService(t, map[int64]catalog.Product{1: shirt()})

	view, err := svc.Create(context.Background())
	require.NoError(t, err)

	_, err = svc.PutLine(context.Background(), view.Token, PutLineRequest{
		ProductID: 1, Size: catalog.Size("XXL"), Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = svc.PutLine(context.Background(), view.Token, PutLineRequest{
		ProductID: 1, Size: catalog.SizeM, Quantity: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = svc.PutLine(context.Background(), view.Token, PutLineRequest{
		ProductID: 999, Size: catalog.SizeM, Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestRemoveLine(t *testing.T) {
	svc := newTestService(t, map[int64]catalog.Product{1: shirt()})

	view, err := svc.Create(context.Background())
	require.NoError(t, err)
	token := view.Token

	_, err = svc.PutLine(context.Background(), token, PutLineRequest{
		ProductID: 1, Size: catalog.SizeM, Quantity: 1,
	})
	require.NoError(t, err)

	view, err = svc.RemoveLine(context.Background(), token, 1, catalog.SizeM)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.InDelta(t, 10.0, view.Totals.Total, 1e-9)
}

func TestClearDeletesCart(t *testing.T) {
	svc := newTestService(t, map[int64]catalog.Product{1: shirt()})

	view, err := svc.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), view.Token))

	_, err = svc.Get(context.Background(), view.Token)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestGetUnknownToken(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Get(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrCartNotFound)
}
