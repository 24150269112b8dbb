// Package booking owns the lifecycle of one appointment from provider
// selection through call termination. All mutation goes through the
// Service's transition methods; the presentation layer consumes
// snapshots only.
package booking

import (
	"time"

	"github.com/wolfman30/telecare-platform/internal/insurance"
	"github.com/wolfman30/telecare-platform/internal/slots"
	"github.com/wolfman30/telecare-platform/internal/statefeed"
)

// State is a booking's lifecycle position. Transitions follow a fixed
// graph; no state may be skipped.
type State string

const (
	// StateBrowsing is the conceptual zero state before a provider is
	// selected; no booking entity exists yet.
	StateBrowsing        State = "browsing"
	StateSelectingSlot   State = "selecting_slot"
	StateAwaitingPayment State = "awaiting_payment"
	StateConfirmed       State = "confirmed"
	StateInCall          State = "in_call"
	StateEnded           State = "ended"
	StateCancelled       State = "cancelled"
)

// Terminal reports whether the state permits no further transitions.
func (s State) Terminal() bool {
	return s == StateEnded || s == StateCancelled
}

// Booking is the central entity. Mutated only by Service transitions.
type Booking struct {
	ID          string
	CallerID    string
	CallerName  string
	CallerEmail string
	ProviderID  string

	// Denormalized from the provider directory at creation time.
	ProviderName   string
	BasePriceCents int64

	Date      string // YYYY-MM-DD, empty until chosen
	TimeLabel string

	State State

	PayerName       string
	MemberID        string
	InsuranceStatus insurance.Status
	CopayCents      int64

	TotalDueCents    int64
	TotalComputed    bool
	PaymentConfirmed bool
	ChargeID         string

	SessionID string

	CreatedAt time.Time
	UpdatedAt time.Time
	EndedAt   *time.Time
}

func (b *Booking) slotKey() slots.Key {
	return slots.Key{ProviderID: b.ProviderID, Date: b.Date, TimeLabel: b.TimeLabel}
}

func (b *Booking) hasSlot() bool {
	return b.Date != "" && b.TimeLabel != ""
}

func (b *Booking) eligibility() insurance.Result {
	if b.InsuranceStatus.Terminal() {
		return insurance.Result{Status: b.InsuranceStatus, CopayCents: b.CopayCents}
	}
	return insurance.NotSubmitted()
}

func (b *Booking) snapshot(elapsedSeconds int) statefeed.BookingSnapshot {
	return statefeed.BookingSnapshot{
		BookingID:       b.ID,
		State:           string(b.State),
		ProviderID:      b.ProviderID,
		Date:            b.Date,
		TimeLabel:       b.TimeLabel,
		InsuranceStatus: string(b.InsuranceStatus),
		TotalDueCents:   b.TotalDueCents,
		SessionID:       b.SessionID,
		ElapsedSeconds:  elapsedSeconds,
		UpdatedAt:       b.UpdatedAt,
	}
}

// View is the read model returned by GetBooking.
type View struct {
	ID               string           `json:"id"`
	ProviderID       string           `json:"provider_id"`
	State            State            `json:"state"`
	Date             string           `json:"date,omitempty"`
	TimeLabel        string           `json:"time_label,omitempty"`
	InsuranceStatus  insurance.Status `json:"insurance_status"`
	TotalDueCents    int64            `json:"total_due_cents"`
	PaymentConfirmed bool             `json:"payment_confirmed"`
	SessionID        string           `json:"session_id,omitempty"`
}

func (b *Booking) view() View {
	return View{
		ID:               b.ID,
		ProviderID:       b.ProviderID,
		State:            b.State,
		Date:             b.Date,
		TimeLabel:        b.TimeLabel,
		InsuranceStatus:  b.InsuranceStatus,
		TotalDueCents:    b.TotalDueCents,
		PaymentConfirmed: b.PaymentConfirmed,
		SessionID:        b.SessionID,
	}
}
