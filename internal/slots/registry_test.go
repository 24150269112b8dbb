package slots

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testKey() Key {
	return Key{ProviderID: "prov-chen", Date: "2026-06-10", TimeLabel: "09:30"}
}

func TestMemoryRegistryHoldConflict(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	ctx := context.Background()

	if err := reg.Hold(ctx, testKey(), "booking-a", time.Minute); err != nil {
		t.Fatalf("first hold: %v", err)
	}
	err := reg.Hold(ctx, testKey(), "booking-b", time.Minute)
	if !errors.Is(err, ErrSlotHeld) {
		t.Errorf("second hold err = %v, want ErrSlotHeld", err)
	}

	holder, err := reg.Holder(ctx, testKey())
	if err != nil {
		t.Fatalf("Holder: %v", err)
	}
	if holder != "booking-a" {
		t.Errorf("holder = %q, want booking-a", holder)
	}
}

func TestMemoryRegistryRenewBySameBooking(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	ctx := context.Background()

	if err := reg.Hold(ctx, testKey(), "booking-a", time.Minute); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := reg.Hold(ctx, testKey(), "booking-a", time.Minute); err != nil {
		t.Errorf("re-hold by holder should renew, got %v", err)
	}
}

func TestMemoryRegistryTTLExpiry(t *testing.T) {
	now := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := NewMemoryRegistry(clock)
	ctx := context.Background()

	if err := reg.Hold(ctx, testKey(), "booking-a", 15*time.Minute); err != nil {
		t.Fatalf("hold: %v", err)
	}

	now = now.Add(16 * time.Minute)

	holder, _ := reg.Holder(ctx, testKey())
	if holder != "" {
		t.Errorf("holder = %q, want expired", holder)
	}
	if err := reg.Hold(ctx, testKey(), "booking-b", 15*time.Minute); err != nil {
		t.Errorf("hold after expiry: %v", err)
	}
}

func TestMemoryRegistryConfirmOutlivesTTL(t *testing.T) {
	now := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := NewMemoryRegistry(clock)
	ctx := context.Background()

	if err := reg.Hold(ctx, testKey(), "booking-a", 15*time.Minute); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := reg.Confirm(ctx, testKey(), "booking-a"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	now = now.Add(24 * time.Hour)

	holder, _ := reg.Holder(ctx, testKey())
	if holder != "booking-a" {
		t.Errorf("holder = %q, want booking-a after confirm", holder)
	}
}

func TestMemoryRegistryConfirmRequiresHolder(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	ctx := context.Background()

	if err := reg.Confirm(ctx, testKey(), "booking-a"); !errors.Is(err, ErrNotHolder) {
		t.Errorf("confirm absent hold err = %v, want ErrNotHolder", err)
	}

	_ = reg.Hold(ctx, testKey(), "booking-a", time.Minute)
	if err := reg.Confirm(ctx, testKey(), "booking-b"); !errors.Is(err, ErrNotHolder) {
		t.Errorf("confirm by non-holder err = %v, want ErrNotHolder", err)
	}
}

func TestMemoryRegistryReleaseSemantics(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	ctx := context.Background()

	// Releasing an absent hold is a no-op.
	if err := reg.Release(ctx, testKey(), "booking-a"); err != nil {
		t.Errorf("release absent: %v", err)
	}

	_ = reg.Hold(ctx, testKey(), "booking-a", time.Minute)
	if err := reg.Release(ctx, testKey(), "booking-b"); !errors.Is(err, ErrNotHolder) {
		t.Errorf("release by non-holder err = %v, want ErrNotHolder", err)
	}
	if err := reg.Release(ctx, testKey(), "booking-a"); err != nil {
		t.Fatalf("release: %v", err)
	}

	if err := reg.Hold(ctx, testKey(), "booking-b", time.Minute); err != nil {
		t.Errorf("hold after release: %v", err)
	}
}

func TestKeyString(t *testing.T) {
	got := testKey().String()
	want := "hold:prov-chen:2026-06-10:09:30"
	if got != want {
		t.Errorf("key = %q, want %q", got, want)
	}
}
