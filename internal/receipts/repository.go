package receipts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/batikthread/batikthread/internal/platform/db"
)

// ErrNotFound indicates a missing receipt.
var ErrNotFound = errors.New("receipts: receipt not found")

// DBTX is the query surface shared by pools and transactions.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Repository interface {
	Create(ctx context.Context, receipt *Receipt) error
	Get(ctx context.Context, id int64) (Receipt, error)
	GetByNumber(ctx context.Context, number string) (Receipt, error)
	List(ctx context.Context, filters ListFilters) ([]Receipt, int, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const numberAllocRetries = 3

func (r *repository) Create(ctx context.Context, receipt *Receipt) error {
	// Receipt numbers come from a per-day counter allocated inside the
	// transaction. A concurrent creation can race the counter read; the
	// unique index on receipt_number catches that and we retry.
	var lastErr error
	for attempt := 0; attempt < numberAllocRetries; attempt++ {
		err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
			return InsertReceiptTx(ctx, tx, receipt)
		})
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("allocate receipt number: %w", lastErr)
}

// InsertReceiptTx writes a receipt, its items, and its freshly allocated
// number inside an existing transaction. The caller owns retries.
func InsertReceiptTx(ctx context.Context, q DBTX, receipt *Receipt) error {
	number, err := nextNumber(ctx, q, receipt.Date)
	if err != nil {
		return err
	}
	receipt.ReceiptNumber = number

	now := time.Now()
	query := `INSERT INTO receipts (receipt_number, token, date, customer_name, customer_phone, customer_address,
			subtotal, shipping, tax_percent, tax_amount, grand_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err = q.QueryRow(ctx, query,
		receipt.ReceiptNumber, receipt.Token, receipt.Date,
		receipt.CustomerName, receipt.CustomerPhone, receipt.CustomerAddress,
		receipt.Subtotal, receipt.Shipping, receipt.TaxPercent, receipt.TaxAmount, receipt.GrandTotal, now,
	).Scan(&receipt.ID)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	receipt.CreatedAt = now

	for i := range receipt.Items {
		item := &receipt.Items[i]
		item.ReceiptID = receipt.ID
		if item.LineOrder == 0 {
			item.LineOrder = i + 1
		}
		itemQuery := `INSERT INTO receipt_items (receipt_id, description, quantity, unit_price, line_total, line_order)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
		err := q.QueryRow(ctx, itemQuery,
			item.ReceiptID, item.Description, item.Quantity, item.UnitPrice, item.LineTotal, item.LineOrder,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert receipt item: %w", err)
		}
	}
	return nil
}

// nextNumber produces BT-YYMMDD-NNNN, sequenced per calendar day.
func nextNumber(ctx context.Context, q DBTX, date time.Time) (string, error) {
	var count int64
	err := q.QueryRow(ctx, `SELECT count(*) FROM receipts WHERE date::date = $1::date`, date).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("count receipts: %w", err)
	}
	return fmt.Sprintf("BT-%s-%04d", date.Format("060102"), count+1), nil
}

const receiptColumns = `id, receipt_number, token, date, customer_name, customer_phone, customer_address,
	subtotal, shipping, tax_percent, tax_amount, grand_total, created_at`

func (r *repository) Get(ctx context.Context, id int64) (Receipt, error) {
	row := r.db.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id)
	return r.scanWithItems(ctx, row)
}

func (r *repository) GetByNumber(ctx context.Context, number string) (Receipt, error) {
	row := r.db.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE receipt_number = $1`, number)
	return r.scanWithItems(ctx, row)
}

func (r *repository) scanWithItems(ctx context.Context, row pgx.Row) (Receipt, error) {
	rec, err := scanReceipt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Receipt{}, ErrNotFound
	}
	if err != nil {
		return Receipt{}, err
	}
	items, err := r.loadItems(ctx, rec.ID)
	if err != nil {
		return Receipt{}, err
	}
	rec.Items = items
	return rec, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Receipt, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.ReceiptNumber != "" {
		argCount++
		where += ` AND receipt_number ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.ReceiptNumber+"%")
	}
	if filters.StartDate != nil {
		argCount++
		where += ` AND date >= $` + strconv.Itoa(argCount)
		args = append(args, *filters.StartDate)
	}
	if filters.EndDate != nil {
		argCount++
		where += ` AND date <= $` + strconv.Itoa(argCount)
		args = append(args, *filters.EndDate)
	}
	if filters.MinAmount != nil {
		argCount++
		where += ` AND grand_total >= $` + strconv.Itoa(argCount)
		args = append(args, *filters.MinAmount)
	}
	if filters.MaxAmount != nil {
		argCount++
		where += ` AND grand_total <= $` + strconv.Itoa(argCount)
		args = append(args, *filters.MaxAmount)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM receipts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + receiptColumns + ` FROM receipts` + where + ` ORDER BY date DESC, id DESC`
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

	var receipts []Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, 0, err
		}
		receipts = append(receipts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range receipts {
		items, err := r.loadItems(ctx, receipts[i].ID)
		if err != nil {
			return nil, 0, err
		}
		receipts[i].Items = items
	}
	return receipts, total, nil
}

func (r *repository) loadItems(ctx context.Context, receiptID int64) ([]Item, error) {
	query := `SELECT id, receipt_id, description, quantity, unit_price, line_total, line_order
		FROM receipt_items WHERE receipt_id = $1 ORDER BY line_order ASC`
	rows, err := r.db.Query(ctx, query, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ReceiptID, &it.Description, &it.Quantity, &it.UnitPrice, &it.LineTotal, &it.LineOrder); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanReceipt(row pgx.Row) (Receipt, error) {
	var rec Receipt
	err := row.Scan(&rec.ID, &rec.ReceiptNumber, &rec.Token, &rec.Date,
		&rec.CustomerName, &rec.CustomerPhone, &rec.CustomerAddress,
		&rec.Subtotal, &rec.Shipping, &rec.TaxPercent, &rec.TaxAmount, &rec.GrandTotal, &rec.CreatedAt)
	return rec, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
