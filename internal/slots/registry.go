// Package slots owns the shared slot-hold registry: the exclusive claim
// on a (provider, date, time label) tuple that prevents double booking.
// Acquisition is a single atomic check-and-set in every implementation.
package slots

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrSlotHeld is returned when another booking already holds the slot.
	ErrSlotHeld = errors.New("slots: slot already held")

	// ErrNotHolder is returned when a booking operates on a hold it does
	// not own.
	ErrNotHolder = errors.New("slots: booking does not hold the slot")
)

// Key identifies one bookable slot.
type Key struct {
	ProviderID string
	Date       string // YYYY-MM-DD
	TimeLabel  string
}

func (k Key) String() string {
	return fmt.Sprintf("hold:%s:%s:%s", k.ProviderID, k.Date, k.TimeLabel)
}

// Registry tracks slot holds. Holds expire after their TTL unless
// confirmed; a confirmed hold lasts until released.
type Registry interface {
	// Hold atomically claims the slot for bookingID. Re-holding by the
	// same booking renews the TTL. Returns ErrSlotHeld on conflict.
	Hold(ctx context.Context, key Key, bookingID string, ttl time.Duration) error

	// Confirm makes the hold durable (payment completed).
	Confirm(ctx context.Context, key Key, bookingID string) error

	// Release frees the slot if bookingID holds it. Releasing an absent
	// or expired hold is a no-op.
	Release(ctx context.Context, key Key, bookingID string) error

	// Holder returns the booking currently holding the slot, or "".
	Holder(ctx context.Context, key Key) (string, error)
}

type memoryHold struct {
	bookingID string
	expiresAt time.Time // zero means durable
}

// MemoryRegistry is an in-process registry for single-node deployments
// and tests.
type MemoryRegistry struct {
	mu    sync.Mutex
	holds map[string]memoryHold
	now   func() time.Time
}

// NewMemoryRegistry creates an in-memory registry. A nil now defaults to
// time.Now.
func NewMemoryRegistry(now func() time.Time) *MemoryRegistry {
	if now == nil {
		now = time.Now
	}
	return &MemoryRegistry{holds: make(map[string]memoryHold), now: now}
}

// Hold claims the slot under the registry lock.
func (r *MemoryRegistry) Hold(ctx context.Context, key Key, bookingID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key.String()
	if h, ok := r.holds[k]; ok && !r.expired(h) && h.bookingID != bookingID {
		return ErrSlotHeld
	}
	r.holds[k] = memoryHold{bookingID: bookingID, expiresAt: r.now().Add(ttl)}
	return nil
}

// Confirm drops the expiry on the hold.
func (r *MemoryRegistry) Confirm(ctx context.Context, key Key, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key.String()
	h, ok := r.holds[k]
	if !ok || r.expired(h) || h.bookingID != bookingID {
		return ErrNotHolder
	}
	r.holds[k] = memoryHold{bookingID: bookingID}
	return nil
}

// Release frees the slot if bookingID holds it.
func (r *MemoryRegistry) Release(ctx context.Context, key Key, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key.String()
	h, ok := r.holds[k]
	if !ok || r.expired(h) {
		return nil
	}
	if h.bookingID != bookingID {
		return ErrNotHolder
	}
	delete(r.holds, k)
	return nil
}

// Holder returns the current holder, if any.
func (r *MemoryRegistry) Holder(ctx context.Context, key Key) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.holds[key.String()]
	if !ok || r.expired(h) {
		return "", nil
	}
	return h.bookingID, nil
}

func (r *MemoryRegistry) expired(h memoryHold) bool {
	return !h.expiresAt.IsZero() && !r.now().Before(h.expiresAt)
}
