package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type archiveDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresArchive persists ended bookings in the archived_bookings table.
type PostgresArchive struct {
	db archiveDB
}

// NewPostgresArchive initializes an archive backed by a pgx pool.
func NewPostgresArchive(db archiveDB) *PostgresArchive {
	if db == nil {
		panic("booking: db required")
	}
	return &PostgresArchive{db: db}
}

// Save inserts the record. Re-saving the same booking is a no-op so
// repeated EndCall calls stay idempotent.
func (a *PostgresArchive) Save(ctx context.Context, rec *ArchivedBooking) error {
	const q = `
		INSERT INTO archived_bookings
			(id, caller_id, provider_id, visit_date, time_label,
			 total_due_cents, charge_id, duration_seconds, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`
	_, err := a.db.Exec(ctx, q,
		rec.ID, rec.CallerID, rec.ProviderID, rec.Date, rec.TimeLabel,
		rec.TotalDueCents, rec.ChargeID, rec.DurationSeconds, rec.EndedAt)
	if err != nil {
		return fmt.Errorf("booking: archive booking %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns an archived booking by id.
func (a *PostgresArchive) Get(ctx context.Context, id string) (*ArchivedBooking, error) {
	const q = `
		SELECT id, caller_id, provider_id, visit_date, time_label,
		       total_due_cents, charge_id, duration_seconds, ended_at
		FROM archived_bookings WHERE id = $1`
	rec := &ArchivedBooking{}
	err := a.db.QueryRow(ctx, q, id).Scan(
		&rec.ID, &rec.CallerID, &rec.ProviderID, &rec.Date, &rec.TimeLabel,
		&rec.TotalDueCents, &rec.ChargeID, &rec.DurationSeconds, &rec.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("booking: get archived booking %s: %w", id, err)
	}
	return rec, nil
}
