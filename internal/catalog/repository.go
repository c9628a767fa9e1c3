package catalog

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

var (
	// ErrNotFound indicates a missing product.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrInsufficientStock is returned when a decrement would go negative.
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

// DBTX is the query surface shared by pools and transactions.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	ReplaceStock(ctx context.Context, id int64, stock map[Size]int) error
	Delete(ctx context.Context, id int64) error
	DecrementStock(ctx context.Context, productID int64, size Size, qty int) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `p.id, p.name, p.price, p.gender, p.color, p.fabric, p.origin, p.narrative, p.images, p.legacy_stock, p.created_at, p.updated_at`

// effectiveStockExpr computes total stock per product: the per-size sum when
// size rows exist, else the legacy integer.
const effectiveStockExpr = `CASE WHEN s.total IS NULL THEN p.legacy_stock ELSE s.total END`

const stockJoin = `LEFT JOIN (SELECT product_id, SUM(quantity) AS total FROM product_stock GROUP BY product_id) s ON s.product_id = p.id`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Gender != "" {
		argCount++
		where += ` AND p.gender = $` + strconv.Itoa(argCount)
		args = append(args, filters.Gender)
	}
	if filters.Search != "" {
		argCount++
		where += ` AND (p.name ILIKE $` + strconv.Itoa(argCount) + ` OR p.fabric ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.PublicOnly {
		where += ` AND ` + effectiveStockExpr + ` > 0`
	}

	countQuery := `SELECT COUNT(*) FROM products p ` + stockJoin + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products p ` + stockJoin + where + ` ORDER BY p.name ASC, p.id ASC`
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

	var products []Product
	var ids []int64
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachStock(ctx, products, ids); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`
	row := r.db.QueryRow(ctx, query, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	products := []Product{p}
	if err := r.attachStock(ctx, products, []int64{id}); err != nil {
		return Product{}, err
	}
	return products[0], nil
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	now := time.Now()
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `INSERT INTO products (name, price, gender, color, fabric, origin, narrative, images, legacy_stock, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
		err := tx.QueryRow(ctx, query,
			product.Name, product.Price, product.Gender, product.Color, product.Fabric,
			product.Origin, product.Narrative, product.Images, product.LegacyStock, now, now,
		).Scan(&product.ID)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		return replaceStockTx(ctx, tx, product.ID, product.StockBySize)
	})
	if err != nil {
		return Product{}, err
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	query := `UPDATE products SET name = $1, price = $2, gender = $3, color = $4, fabric = $5,
		origin = $6, narrative = $7, images = $8, updated_at = $9 WHERE id = $10`
	tag, err := r.db.Exec(ctx, query,
		product.Name, product.Price, product.Gender, product.Color, product.Fabric,
		product.Origin, product.Narrative, product.Images, time.Now(), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceStock(ctx context.Context, id int64, stock map[Size]int) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return replaceStockTx(ctx, tx, id, stock)
	})
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DecrementStock(ctx context.Context, productID int64, size Size, qty int) error {
	return DecrementStockTx(ctx, r.db, productID, size, qty)
}

const decrementStockQuery = `UPDATE product_stock SET quantity = quantity - $3
		WHERE product_id = $1 AND size = $2 AND quantity >= $3`

// DecrementStockTx applies a conditional decrement so two concurrent buyers
// of the last unit cannot both succeed. Records from before size-keyed stock
// have no product_stock rows at all; those get migrated to per-size rows
// first so the guarded decrement can apply.
func DecrementStockTx(ctx context.Context, q DBTX, productID int64, size Size, qty int) error {
	tag, err := q.Exec(ctx, decrementStockQuery, productID, size, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	migrated, err := migrateLegacyStockTx(ctx, q, productID)
	if err != nil {
		return err
	}
	if !migrated {
		return ErrInsufficientStock
	}

	tag, err = q.Exec(ctx, decrementStockQuery, productID, size, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// migrateLegacyStockTx converts a legacy aggregate count into per-size rows,
// a quarter per size, and zeroes the aggregate so the size rows become the
// single source of truth. Reports whether a conversion happened.
func migrateLegacyStockTx(ctx context.Context, q DBTX, productID int64) (bool, error) {
	var legacy int
	err := q.QueryRow(ctx, `SELECT legacy_stock FROM products
		WHERE id = $1 AND legacy_stock > 0
		AND NOT EXISTS (SELECT 1 FROM product_stock WHERE product_id = $1)
		FOR UPDATE`, productID).Scan(&legacy)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load legacy stock: %w", err)
	}

	for _, size := range Sizes {
		query := `INSERT INTO product_stock (product_id, size, quantity) VALUES ($1, $2, $3)`
		if _, err := q.Exec(ctx, query, productID, size, legacy/4); err != nil {
			return false, fmt.Errorf("migrate stock %s: %w", size, err)
		}
	}
	if _, err := q.Exec(ctx, `UPDATE products SET legacy_stock = 0 WHERE id = $1`, productID); err != nil {
		return false, fmt.Errorf("clear legacy stock: %w", err)
	}
	return true, nil
}

func replaceStockTx(ctx context.Context, tx pgx.Tx, productID int64, stock map[Size]int) error {
	if _, err := tx.Exec(ctx, `DELETE FROM product_stock WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear stock: %w", err)
	}
	for _, size := range Sizes {
		qty, ok := stock[size]
		if !ok {
			continue
		}
		if qty < 0 {
			qty = 0
		}
		query := `INSERT INTO product_stock (product_id, size, quantity) VALUES ($1, $2, $3)`
		if _, err := tx.Exec(ctx, query, productID, size, qty); err != nil {
			return fmt.Errorf("insert stock %s: %w", size, err)
		}
	}
	return nil
}

func (r *repository) attachStock(ctx context.Context, products []Product, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := r.db.Query(ctx, `SELECT product_id, size, quantity FROM product_stock WHERE product_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	bySize := make(map[int64]map[Size]int)
	for rows.Next() {
		var productID int64
		var size Size
		var qty int
		if err := rows.Scan(&productID, &size, &qty); err != nil {
			return err
		}
		if bySize[productID] == nil {
			bySize[productID] = make(map[Size]int)
		}
		bySize[productID][size] = qty
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range products {
		products[i].StockBySize = bySize[products[i].ID]
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Gender, &p.Color, &p.Fabric,
		&p.Origin, &p.Narrative, &p.Images, &p.LegacyStock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
