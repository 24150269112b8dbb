package booking

import (
	"context"
	"sync"
	"time"
)

// ArchivedBooking is the immutable record written when a call ends.
type ArchivedBooking struct {
	ID              string
	CallerID        string
	ProviderID      string
	Date            string
	TimeLabel       string
	TotalDueCents   int64
	ChargeID        string
	DurationSeconds int
	EndedAt         time.Time
}

// ArchiveStore persists ended bookings.
type ArchiveStore interface {
	Save(ctx context.Context, rec *ArchivedBooking) error
	Get(ctx context.Context, id string) (*ArchivedBooking, error)
}

// MemoryArchive keeps archived bookings in memory.
type MemoryArchive struct {
	mu   sync.RWMutex
	byID map[string]*ArchivedBooking
}

// NewMemoryArchive creates an in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{byID: make(map[string]*ArchivedBooking)}
}

// Save stores the record. Saving the same booking twice keeps the first
// record, which makes repeated EndCall calls harmless.
func (a *MemoryArchive) Save(ctx context.Context, rec *ArchivedBooking) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byID[rec.ID]; ok {
		return nil
	}
	a.byID[rec.ID] = rec
	return nil
}

// Get returns an archived booking.
func (a *MemoryArchive) Get(ctx context.Context, id string) (*ArchivedBooking, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rec, ok := a.byID[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return rec, nil
}
