package requests

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no custom request matches the id.
var ErrNotFound = errors.New("requests: not found")

type Repository interface {
	Create(ctx context.Context, cr *CustomRequest) error
	Get(ctx context.Context, id int64) (*CustomRequest, error)
	List(ctx context.Context, f ListFilters) ([]CustomRequest, int, error)
	UpdateStatus(ctx context.Context, id int64, to Status) error
	UpdateNotes(ctx context.Context, id int64, notes string) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const requestColumns = `id, customer_name, customer_email, customer_phone, event_name,
	event_date, quantity, size_breakdown, description, style_images,
	status, admin_notes, created_at, updated_at`

func (r *repository) Create(ctx context.Context, cr *CustomRequest) error {
	const q = `
		INSERT INTO custom_requests
			(customer_name, customer_email, customer_phone, event_name, event_date,
			 quantity, size_breakdown, description, style_images, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		cr.CustomerName, cr.CustomerEmail, cr.CustomerPhone, cr.EventName, cr.EventDate,
		cr.Quantity, cr.SizeBreakdown, cr.Description, cr.StyleImages, cr.Status,
	).Scan(&cr.ID, &cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("requests: create: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id int64) (*CustomRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM custom_requests WHERE id = $1`
	cr, err := scanRequest(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("requests: get: %w", err)
	}
	return cr, nil
}

func (r *repository) List(ctx context.Context, f ListFilters) ([]CustomRequest, int, error) {
	where := ""
	args := []any{}
	if f.Status != nil {
		where = " WHERE status = $1"
		args = append(args, *f.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM custom_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("requests: count: %w", err)
	}

	q := `SELECT ` + requestColumns + ` FROM custom_requests` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("requests: list: %w", err)
	}
	defer rows.Close()

	out := make([]CustomRequest, 0, f.Limit)
	for rows.Next() {
		cr, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("requests: list scan: %w", err)
		}
		out = append(out, *cr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("requests: list rows: %w", err)
	}
	return out, total, nil
}

// UpdateStatus moves a request to the given status only when the change is
// legal from its current status. The guard lives in the WHERE clause so two
// concurrent reviews cannot both win.
func (r *repository) UpdateStatus(ctx context.Context, id int64, to Status) error {
	froms := make([]Status, 0, 2)
	for from, nexts := range allowedTransitions {
		for _, next := range nexts {
			if next == to {
				froms = append(froms, from)
			}
		}
	}
	if len(froms) == 0 {
		return ErrInvalidTransition
	}

	const q = `
		UPDATE custom_requests
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`
	tag, err := r.pool.Exec(ctx, q, id, to, froms)
	if err != nil {
		return fmt.Errorf("requests: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM custom_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("requests: update status: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInvalidTransition
	}
	return nil
}

func (r *repository) UpdateNotes(ctx context.Context, id int64, notes string) error {
	const q = `UPDATE custom_requests SET admin_notes = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, notes)
	if err != nil {
		return fmt.Errorf("requests: update notes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM custom_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("requests: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (*CustomRequest, error) {
	var cr CustomRequest
	err := row.Scan(
		&cr.ID, &cr.CustomerName, &cr.CustomerEmail, &cr.CustomerPhone, &cr.EventName,
		&cr.EventDate, &cr.Quantity, &cr.SizeBreakdown, &cr.Description, &cr.StyleImages,
		&cr.Status, &cr.AdminNotes, &cr.CreatedAt, &cr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cr, nil
}
