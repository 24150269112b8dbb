package directory

import (
	"context"
	"sync"
)

// Directory is the read-only provider catalog consumed by the engine.
type Directory interface {
	GetProvider(ctx context.Context, id string) (*Provider, error)
	ListProviders(ctx context.Context) ([]*Provider, error)
}

// InMemoryDirectory serves a fixed catalog from memory. Used when no
// database is configured and throughout the test suite.
type InMemoryDirectory struct {
	mu        sync.RWMutex
	providers map[string]*Provider
	order     []string
}

// NewInMemoryDirectory creates a directory preloaded with the given providers.
func NewInMemoryDirectory(providers ...*Provider) *InMemoryDirectory {
	d := &InMemoryDirectory{providers: make(map[string]*Provider)}
	for _, p := range providers {
		d.providers[p.ID] = p
		d.order = append(d.order, p.ID)
	}
	return d
}

// SeedCatalog returns the demo provider catalog used in development.
func SeedCatalog() []*Provider {
	return []*Provider{
		{
			ID:             "prov-chen",
			Name:           "Dr. Amelia Chen",
			Specialties:    []string{"dermatology"},
			BasePriceCents: 12000,
			AcceptedPayers: []string{"Acme Health", "Union Mutual"},
		},
		{
			ID:             "prov-okafor",
			Name:           "Dr. Daniel Okafor",
			Specialties:    []string{"general practice", "telemedicine"},
			BasePriceCents: 9500,
			AcceptedPayers: []string{"Acme Health"},
		},
		{
			ID:             "prov-ivanova",
			Name:           "Dr. Mira Ivanova",
			Specialties:    []string{"psychiatry"},
			BasePriceCents: 15500,
			AcceptedPayers: []string{"Union Mutual", "Pacific Care"},
		},
	}
}

// GetProvider returns the provider with the given id.
func (d *InMemoryDirectory) GetProvider(ctx context.Context, id string) (*Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return p, nil
}

// ListProviders returns the catalog in insertion order.
func (d *InMemoryDirectory) ListProviders(ctx context.Context) ([]*Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Provider, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.providers[id])
	}
	return out, nil
}
