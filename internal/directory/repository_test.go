package directory

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryDirectoryGetProvider(t *testing.T) {
	dir := NewInMemoryDirectory(SeedCatalog()...)

	p, err := dir.GetProvider(context.Background(), "prov-chen")
	if err != nil {
		t.Fatalf("GetProvider: %v", err)
	}
	if p.Name != "Dr. Amelia Chen" {
		t.Errorf("name = %q, want Dr. Amelia Chen", p.Name)
	}
	if p.BasePriceCents != 12000 {
		t.Errorf("base price = %d, want 12000", p.BasePriceCents)
	}
}

func TestInMemoryDirectoryNotFound(t *testing.T) {
	dir := NewInMemoryDirectory(SeedCatalog()...)

	_, err := dir.GetProvider(context.Background(), "prov-nobody")
	if !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("err = %v, want ErrProviderNotFound", err)
	}
}

func TestInMemoryDirectoryListOrder(t *testing.T) {
	catalog := SeedCatalog()
	dir := NewInMemoryDirectory(catalog...)

	listed, err := dir.ListProviders(context.Background())
	if err != nil {
		t.Fatalf("ListProviders: %v", err)
	}
	if len(listed) != len(catalog) {
		t.Fatalf("listed %d providers, want %d", len(listed), len(catalog))
	}
	for i := range catalog {
		if listed[i].ID != catalog[i].ID {
			t.Errorf("listed[%d] = %s, want %s", i, listed[i].ID, catalog[i].ID)
		}
	}
}

func TestAcceptsPayer(t *testing.T) {
	p := &Provider{AcceptedPayers: []string{"Acme Health", "Union Mutual"}}

	if !p.AcceptsPayer("Acme Health") {
		t.Error("expected Acme Health accepted")
	}
	if p.AcceptsPayer("Pacific Care") {
		t.Error("expected Pacific Care rejected")
	}
}
