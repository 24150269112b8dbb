package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresDirectory reads the provider catalog from the relational database.
type PostgresDirectory struct {
	db db
}

// NewPostgresDirectory initializes a directory backed by a pgx pool.
func NewPostgresDirectory(db db) *PostgresDirectory {
	if db == nil {
		panic("directory: db required")
	}
	return &PostgresDirectory{db: db}
}

// GetProvider returns the provider with the given id.
func (d *PostgresDirectory) GetProvider(ctx context.Context, id string) (*Provider, error) {
	query := `
		SELECT id, name, specialties, base_price_cents, accepted_payers
		FROM providers
		WHERE id = $1
	`
	var p Provider
	err := d.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Specialties,
		&p.BasePriceCents,
		&p.AcceptedPayers,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory: load provider: %w", err)
	}
	return &p, nil
}

// ListProviders returns the full catalog ordered by name.
func (d *PostgresDirectory) ListProviders(ctx context.Context) ([]*Provider, error) {
	query := `
		SELECT id, name, specialties, base_price_cents, accepted_payers
		FROM providers
		ORDER BY name
	`
	rows, err := d.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("directory: list providers: %w", err)
	}
	defer rows.Close()

	var out []*Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Specialties, &p.BasePriceCents, &p.AcceptedPayers); err != nil {
			return nil, fmt.Errorf("directory: scan provider: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: list providers: %w", err)
	}
	return out, nil
}
