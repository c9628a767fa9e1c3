package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTx mimics the two tables DecrementStockTx touches: a per-size stock
// map (nil means no product_stock rows at all) and the legacy aggregate.
type stubTx struct {
	legacy int
	stock  map[Size]int
}

func (s *stubTx) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	switch {
	case strings.HasPrefix(sql, "UPDATE product_stock"):
		size := args[1].(Size)
		qty := args[2].(int)
		if cur, ok := s.stock[size]; ok && cur >= qty {
			s.stock[size] = cur - qty
			return pgconn.NewCommandTag("UPDATE 1"), nil
		}
		return pgconn.NewCommandTag("UPDATE 0"), nil
	case strings.HasPrefix(sql, "INSERT INTO product_stock"):
		if s.stock == nil {
			s.stock = make(map[Size]int)
		}
		s.stock[args[1].(Size)] = args[2].(int)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "UPDATE products"):
		s.legacy = 0
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected exec: %s", sql)
}

func (s *stubTx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected query")
}

func (s *stubTx) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	if !strings.HasPrefix(sql, "SELECT legacy_stock") {
		return stubRow{err: fmt.Errorf("unexpected query row: %s", sql)}
	}
	if s.legacy <= 0 || len(s.stock) > 0 {
		return stubRow{err: pgx.ErrNoRows}
	}
	return stubRow{value: s.legacy}
}

type stubRow struct {
	value int
	err   error
}

func (r stubRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int) = r.value
	return nil
}

func TestDecrementStockTxMigratesLegacyProduct(t *testing.T) {
	tx := &stubTx{legacy: 8}

	err := DecrementStockTx(context.Background(), tx, 1, SizeM, 2)
	require.NoError(t, err)

	assert.Equal(t, 0, tx.legacy, "aggregate should be zeroed after migration")
	assert.Equal(t, 0, tx.stock[SizeM], "M started at 8/4=2 and 2 were sold")
	assert.Equal(t, 2, tx.stock[SizeS])
	assert.Equal(t, 2, tx.stock[SizeL])
	assert.Equal(t, 2, tx.stock[SizeXL])

	// The migrated rows now carry the stock; a second buy of the same
	// size has nothing left.
	err = DecrementStockTx(context.Background(), tx, 1, SizeM, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestDecrementStockTxLegacyOverAsk(t *testing.T) {
	tx := &stubTx{legacy: 8}

	err := DecrementStockTx(context.Background(), tx, 1, SizeM, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock, "8/4=2 per size cannot cover 3")
}

func TestDecrementStockTxSizeRows(t *testing.T) {
	tx := &stubTx{stock: map[Size]int{SizeS: 1, SizeM: 4}}

	require.NoError(t, DecrementStockTx(context.Background(), tx, 1, SizeM, 3))
	assert.Equal(t, 1, tx.stock[SizeM])

	err := DecrementStockTx(context.Background(), tx, 1, SizeM, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, tx.stock[SizeM], "failed decrement must not change stock")
}

func TestDecrementStockTxNoStockAnywhere(t *testing.T) {
	tx := &stubTx{}

	err := DecrementStockTx(context.Background(), tx, 1, SizeS, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}
