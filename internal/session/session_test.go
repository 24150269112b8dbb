package session

import (
	"errors"
	"testing"
	"time"
)

func TestTickAndFormattedDuration(t *testing.T) {
	s := newSession("booking-a", time.Now().UTC())

	for i := 0; i < 65; i++ {
		s.Tick()
	}

	if got := s.ElapsedSeconds(); got != 65 {
		t.Errorf("elapsed = %d, want 65", got)
	}
	if got := s.FormattedDuration(); got != "01:05" {
		t.Errorf("duration = %q, want 01:05", got)
	}
}

func TestFormattedDurationZeroPadded(t *testing.T) {
	s := newSession("booking-a", time.Now().UTC())

	if got := s.FormattedDuration(); got != "00:00" {
		t.Errorf("duration = %q, want 00:00", got)
	}
	for i := 0; i < 9; i++ {
		s.Tick()
	}
	if got := s.FormattedDuration(); got != "00:09" {
		t.Errorf("duration = %q, want 00:09", got)
	}
}

func TestApplyTogglesIndependently(t *testing.T) {
	s := newSession("booking-a", time.Now().UTC())

	on, err := s.Apply(ActionMute)
	if err != nil || !on {
		t.Fatalf("mute toggle = (%v, %v), want (true, nil)", on, err)
	}
	on, err = s.Apply(ActionBlur)
	if err != nil || !on {
		t.Fatalf("blur toggle = (%v, %v), want (true, nil)", on, err)
	}

	snap := s.Snapshot()
	if !snap.Muted || !snap.BackgroundBlur {
		t.Errorf("snapshot = %+v, want muted and blurred", snap)
	}
	if snap.VideoOff || snap.LightCorrection {
		t.Errorf("untouched flags flipped: %+v", snap)
	}

	off, err := s.Apply(ActionMute)
	if err != nil || off {
		t.Errorf("second mute toggle = (%v, %v), want (false, nil)", off, err)
	}
}

func TestApplyUnknownAction(t *testing.T) {
	s := newSession("booking-a", time.Now().UTC())

	_, err := s.Apply("wave")
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("err = %v, want ErrUnknownAction", err)
	}
}

func TestSnapshotCarriesDuration(t *testing.T) {
	s := newSession("booking-a", time.Now().UTC())
	for i := 0; i < 125; i++ {
		s.Tick()
	}

	snap := s.Snapshot()
	if snap.ElapsedSeconds != 125 {
		t.Errorf("elapsed = %d, want 125", snap.ElapsedSeconds)
	}
	if snap.Duration != "02:05" {
		t.Errorf("duration = %q, want 02:05", snap.Duration)
	}
	if snap.BookingID != "booking-a" {
		t.Errorf("booking id = %q, want booking-a", snap.BookingID)
	}
}
