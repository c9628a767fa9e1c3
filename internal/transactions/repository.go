package transactions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates a missing transaction.
var ErrNotFound = errors.New("transactions: transaction not found")

// DBTX is the query surface shared by pools and transactions.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	Get(ctx context.Context, id int64) (Transaction, error)
	List(ctx context.Context, filters ListFilters) ([]Transaction, int, error)
	MarkRefunded(ctx context.Context, id int64, amount float64, reason *string, refundDate time.Time) error
	MarkClosed(ctx context.Context, id int64) error
	CloseStale(ctx context.Context, cutoff time.Time) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tx *Transaction) error {
	return InsertTransactionTx(ctx, r.db, tx)
}

// InsertTransactionTx writes a transaction row, usable inside an existing
// database transaction during checkout.
func InsertTransactionTx(ctx context.Context, q DBTX, tx *Transaction) error {
	now := time.Now()
	query := `INSERT INTO transactions (receipt_id, receipt_number, customer_name,
			product_total, shipping_cost, tax_amount, total_amount,
			status, source, transaction_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err := q.QueryRow(ctx, query,
		tx.ReceiptID, tx.ReceiptNumber, tx.CustomerName,
		tx.ProductTotal, tx.ShippingCost, tx.TaxAmount, tx.TotalAmount,
		tx.Status, tx.Source, tx.TransactionDate, now, now,
	).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	tx.CreatedAt = now
	tx.UpdatedAt = now
	return nil
}

const txColumns = `id, receipt_id, receipt_number, customer_name,
	product_total, shipping_cost, tax_amount, total_amount,
	status, source, transaction_date, refund_amount, refund_reason, refund_date,
	created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return tx, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.ReceiptNumber != "" {
		argCount++
		where += ` AND receipt_number ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.ReceiptNumber+"%")
	}
	if filters.CustomerName != "" {
		argCount++
		where += ` AND customer_name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.CustomerName+"%")
	}
	if filters.Status != nil {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, *filters.Status)
	}
	if filters.StartDate != nil {
		argCount++
		where += ` AND transaction_date >= $` + strconv.Itoa(argCount)
		args = append(args, *filters.StartDate)
	}
	if filters.EndDate != nil {
		argCount++
		where += ` AND transaction_date <= $` + strconv.Itoa(argCount)
		args = append(args, *filters.EndDate)
	}
	if filters.MinAmount != nil {
		argCount++
		where += ` AND total_amount >= $` + strconv.Itoa(argCount)
		args = append(args, *filters.MinAmount)
	}
	if filters.MaxAmount != nil {
		argCount++
		where += ` AND total_amount <= $` + strconv.Itoa(argCount)
		args = append(args, *filters.MaxAmount)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + txColumns + ` FROM transactions` + where + ` ORDER BY transaction_date DESC, id DESC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, tx)
	}
	return txs, total, rows.Err()
}

func (r *repository) MarkRefunded(ctx context.Context, id int64, amount float64, reason *string, refundDate time.Time) error {
	// The status guard in the WHERE clause makes the transition atomic:
	// a concurrent refund or sweep loses the race and matches zero rows.
	query := `UPDATE transactions
		SET status = $1, refund_amount = $2, refund_reason = $3, refund_date = $4, updated_at = $5
		WHERE id = $6 AND status = $7`
	tag, err := r.db.Exec(ctx, query, StatusRefunded, amount, reason, refundDate, time.Now(), id, StatusCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, id)
	}
	return nil
}

func (r *repository) MarkClosed(ctx context.Context, id int64) error {
	query := `UPDATE transactions SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	tag, err := r.db.Exec(ctx, query, StatusClosed, time.Now(), id, StatusCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, id)
	}
	return nil
}

// transitionError separates a missing row from one the status guard
// filtered, so a refund losing a race to the sweep reports a conflict
// rather than a phantom 404.
func (r *repository) transitionError(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

func (r *repository) CloseStale(ctx context.Context, cutoff time.Time) (int, error) {
	query := `UPDATE transactions SET status = $1, updated_at = $2
		WHERE status = $3 AND transaction_date < $4`
	tag, err := r.db.Exec(ctx, query, StatusClosed, time.Now(), StatusCompleted, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tx Transaction
	err := row.Scan(&tx.ID, &tx.ReceiptID, &tx.ReceiptNumber, &tx.CustomerName,
		&tx.ProductTotal, &tx.ShippingCost, &tx.TaxAmount, &tx.TotalAmount,
		&tx.Status, &tx.Source, &tx.TransactionDate, &tx.RefundAmount, &tx.RefundReason, &tx.RefundDate,
		&tx.CreatedAt, &tx.UpdatedAt)
	return tx, err
}
