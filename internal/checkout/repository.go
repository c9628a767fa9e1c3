package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/batikthread/batikthread/internal/catalog"
	"github.com/batikthread/batikthread/internal/platform/db"
	"github.com/batikthread/batikthread/internal/receipts"
	"github.com/batikthread/batikthread/internal/transactions"
)

// StockLine is one per-size decrement applied during finalization.
type StockLine struct {
	ProductID int64
	Size      catalog.Size
	Quantity  int
}

// Store persists the outcome of a paid checkout as a single unit: stock
// decrements, the receipt, and the transaction either all land or none do.
type Store interface {
	Finalize(ctx context.Context, lines []StockLine, receipt *receipts.Receipt, tx *transactions.Transaction) error
}

type pgStore struct {
	db *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{db: pool}
}

const numberAllocRetries = 3

func (s *pgStore) Finalize(ctx context.Context, lines []StockLine, receipt *receipts.Receipt, txRecord *transactions.Transaction) error {
	var lastErr error
	for attempt := 0; attempt < numberAllocRetries; attempt++ {
		err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
			for _, line := range lines {
				if err := catalog.DecrementStockTx(ctx, tx, line.ProductID, line.Size, line.Quantity); err != nil {
					return err
				}
			}
			if err := receipts.InsertReceiptTx(ctx, tx, receipt); err != nil {
				return err
			}
			txRecord.ReceiptID = &receipt.ID
			txRecord.ReceiptNumber = receipt.ReceiptNumber
			return transactions.InsertTransactionTx(ctx, tx, txRecord)
		})
		if err == nil {
			return nil
		}
		// Receipt-number races retry; anything else aborts the order.
		if !isUniqueViolation(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("finalize checkout: %w", lastErr)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
