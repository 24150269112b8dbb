package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func archivedFixture() *ArchivedBooking {
	return &ArchivedBooking{
		ID:              "bk-1",
		CallerID:        "caller-1",
		ProviderID:      "prov-chen",
		Date:            "2026-06-03",
		TimeLabel:       "10:00",
		TotalDueCents:   12200,
		ChargeID:        "fake:abc",
		DurationSeconds: 65,
		EndedAt:         time.Date(2026, time.June, 3, 10, 30, 0, 0, time.UTC),
	}
}

func TestPostgresArchiveSave(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	rec := archivedFixture()
	mock.ExpectExec("INSERT INTO archived_bookings").
		WithArgs(rec.ID, rec.CallerID, rec.ProviderID, rec.Date, rec.TimeLabel,
			rec.TotalDueCents, rec.ChargeID, rec.DurationSeconds, rec.EndedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := NewPostgresArchive(mock)
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresArchiveGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	want := archivedFixture()
	rows := pgxmock.NewRows([]string{
		"id", "caller_id", "provider_id", "visit_date", "time_label",
		"total_due_cents", "charge_id", "duration_seconds", "ended_at",
	}).AddRow(want.ID, want.CallerID, want.ProviderID, want.Date, want.TimeLabel,
		want.TotalDueCents, want.ChargeID, want.DurationSeconds, want.EndedAt)
	mock.ExpectQuery("SELECT id, caller_id, provider_id").
		WithArgs("bk-1").
		WillReturnRows(rows)

	store := NewPostgresArchive(mock)
	got, err := store.Get(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DurationSeconds != 65 || got.TotalDueCents != 12200 {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestPostgresArchiveGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, caller_id, provider_id").
		WithArgs("bk-missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "caller_id", "provider_id", "visit_date", "time_label",
			"total_due_cents", "charge_id", "duration_seconds", "ended_at",
		}))

	store := NewPostgresArchive(mock)
	_, err = store.Get(context.Background(), "bk-missing")
	if !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestMemoryArchiveKeepsFirstRecord(t *testing.T) {
	store := NewMemoryArchive()
	ctx := context.Background()

	first := archivedFixture()
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dup := archivedFixture()
	dup.DurationSeconds = 999
	if err := store.Save(ctx, dup); err != nil {
		t.Fatalf("Save duplicate: %v", err)
	}

	got, err := store.Get(ctx, "bk-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DurationSeconds != 65 {
		t.Errorf("duration = %d, want first record preserved (65)", got.DurationSeconds)
	}
}
