package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresDirectoryGetProvider(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "name", "specialties", "base_price_cents", "accepted_payers"}).
		AddRow("prov-chen", "Dr. Amelia Chen", []string{"dermatology"}, int64(12000), []string{"Acme Health"})
	mock.ExpectQuery("SELECT id, name, specialties, base_price_cents, accepted_payers").
		WithArgs("prov-chen").
		WillReturnRows(rows)

	dir := NewPostgresDirectory(mock)
	p, err := dir.GetProvider(context.Background(), "prov-chen")
	if err != nil {
		t.Fatalf("GetProvider: %v", err)
	}
	if p.Name != "Dr. Amelia Chen" || p.BasePriceCents != 12000 {
		t.Errorf("unexpected provider: %+v", p)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDirectoryGetProviderNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, name, specialties, base_price_cents, accepted_payers").
		WithArgs("prov-nobody").
		WillReturnError(pgx.ErrNoRows)

	dir := NewPostgresDirectory(mock)
	_, err = dir.GetProvider(context.Background(), "prov-nobody")
	if !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("err = %v, want ErrProviderNotFound", err)
	}
}

func TestPostgresDirectoryListProviders(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "name", "specialties", "base_price_cents", "accepted_payers"}).
		AddRow("prov-chen", "Dr. Amelia Chen", []string{"dermatology"}, int64(12000), []string{"Acme Health"}).
		AddRow("prov-okafor", "Dr. Daniel Okafor", []string{"general practice"}, int64(9500), []string{"Acme Health"})
	mock.ExpectQuery("SELECT id, name, specialties, base_price_cents, accepted_payers").
		WillReturnRows(rows)

	dir := NewPostgresDirectory(mock)
	listed, err := dir.ListProviders(context.Background())
	if err != nil {
		t.Fatalf("ListProviders: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed %d providers, want 2", len(listed))
	}
	if listed[1].ID != "prov-okafor" {
		t.Errorf("listed[1] = %s, want prov-okafor", listed[1].ID)
	}
}
