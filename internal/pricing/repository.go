package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoSettings indicates that no settings row has been written yet.
var ErrNoSettings = errors.New("pricing: no settings configured")

type Repository interface {
	Latest(ctx context.Context) (Settings, error)
	Append(ctx context.Context, s Settings) (Settings, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Latest(ctx context.Context) (Settings, error) {
	query := `SELECT version, tax_percentage, shipping_handling, updated_by, created_at
		FROM store_settings ORDER BY version DESC LIMIT 1`
	var s Settings
	err := r.db.QueryRow(ctx, query).Scan(&s.Version, &s.TaxPercentage, &s.ShippingHandling, &s.UpdatedBy, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, ErrNoSettings
	}
	return s, err
}

func (r *repository) Append(ctx context.Context, s Settings) (Settings, error) {
	query := `INSERT INTO store_settings (tax_percentage, shipping_handling, updated_by, created_at)
		VALUES ($1, $2, $3, $4) RETURNING version`
	now := time.Now()
	err := r.db.QueryRow(ctx, query, s.TaxPercentage, s.ShippingHandling, s.UpdatedBy, now).Scan(&s.Version)
	if err != nil {
		return Settings{}, err
	}
	s.CreatedAt = now
	return s, nil
}
