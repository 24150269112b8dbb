package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/telecare-platform/internal/availability"
	"github.com/wolfman30/telecare-platform/internal/directory"
	"github.com/wolfman30/telecare-platform/internal/insurance"
	"github.com/wolfman30/telecare-platform/internal/notify"
	"github.com/wolfman30/telecare-platform/internal/observability/metrics"
	"github.com/wolfman30/telecare-platform/internal/payments"
	"github.com/wolfman30/telecare-platform/internal/pricing"
	"github.com/wolfman30/telecare-platform/internal/session"
	"github.com/wolfman30/telecare-platform/internal/slots"
	"github.com/wolfman30/telecare-platform/internal/statefeed"
	"github.com/wolfman30/telecare-platform/pkg/logging"
)

var bookingTracer = otel.Tracer("telecare.internal.booking")

// Publisher receives booking snapshots after every state change.
type Publisher interface {
	Publish(snap statefeed.BookingSnapshot)
}

// Deps bundles the collaborators a Service needs.
type Deps struct {
	Directory directory.Directory
	Calendar  *availability.Calculator
	Resolver  insurance.Resolver
	Pricing   *pricing.Engine
	Processor payments.Processor
	Slots     slots.Registry
	Sessions  *session.Manager
	Archive   ArchiveStore
	Feed      Publisher
	Mailer    notify.EmailSender
	Metrics   *metrics.BookingMetrics
	Logger    *logging.Logger

	Currency           string
	HoldTTL            time.Duration
	EligibilityTimeout time.Duration

	// TerminalRetention bounds how long ended and cancelled bookings
	// stay queryable in memory. The archive keeps the durable record.
	TerminalRetention time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service drives bookings through their lifecycle. All transitions are
// serialized through a single mutex; slow collaborators (eligibility,
// charging, archival, email) run outside it.
type Service struct {
	mu              sync.Mutex
	bookings        map[string]*Booking
	activeByCaller  map[string]string
	sessionBookings map[string]string
	pendingElig     map[string]chan struct{}
	charging        map[string]bool

	deps Deps
	now  func() time.Time
}

// NewService creates a booking service. Panics if a required
// collaborator is missing.
func NewService(deps Deps) *Service {
	if deps.Directory == nil || deps.Calendar == nil || deps.Resolver == nil ||
		deps.Pricing == nil || deps.Processor == nil || deps.Slots == nil ||
		deps.Sessions == nil || deps.Archive == nil {
		panic("booking: missing service dependency")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.HoldTTL <= 0 {
		deps.HoldTTL = 15 * time.Minute
	}
	if deps.EligibilityTimeout <= 0 {
		deps.EligibilityTimeout = 5 * time.Second
	}
	if deps.TerminalRetention <= 0 {
		deps.TerminalRetention = 24 * time.Hour
	}
	if deps.Currency == "" {
		deps.Currency = "USD"
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		bookings:        make(map[string]*Booking),
		activeByCaller:  make(map[string]string),
		sessionBookings: make(map[string]string),
		pendingElig:     make(map[string]chan struct{}),
		charging:        make(map[string]bool),
		deps:            deps,
		now:             now,
	}
}

// StartInput identifies the caller and the chosen provider.
type StartInput struct {
	CallerID    string
	CallerName  string
	CallerEmail string
	ProviderID  string
}

// StartBooking creates a booking in the slot-selection state. A
// caller's previous unpaid booking is cancelled and its hold released;
// a previous booking that is already paid or in a call blocks the new
// one.
func (s *Service) StartBooking(ctx context.Context, in StartInput) (View, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.StartBooking",
		trace.WithAttributes(attribute.String("provider.id", in.ProviderID)))
	defer span.End()

	if strings.TrimSpace(in.CallerID) == "" || strings.TrimSpace(in.ProviderID) == "" {
		return View{}, fmt.Errorf("%w: caller and provider are required", ErrInvalidSelection)
	}
	prov, err := s.deps.Directory.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	if prevID, ok := s.activeByCaller[in.CallerID]; ok {
		prev := s.bookings[prevID]
		switch {
		case prev == nil || prev.State.Terminal():
			// stale entry, fall through
		case prev.State == StateSelectingSlot || prev.State == StateAwaitingPayment:
			s.cancelLocked(ctx, prev)
		default:
			s.mu.Unlock()
			return View{}, ErrActiveBookingInProgress
		}
	}

	b := &Booking{
		ID:              uuid.New().String(),
		CallerID:        in.CallerID,
		CallerName:      in.CallerName,
		CallerEmail:     in.CallerEmail,
		ProviderID:      prov.ID,
		ProviderName:    prov.Name,
		BasePriceCents:  prov.BasePriceCents,
		State:           StateSelectingSlot,
		InsuranceStatus: insurance.StatusNotSubmitted,
		CreatedAt:       s.now(),
		UpdatedAt:       s.now(),
	}
	s.bookings[b.ID] = b
	s.activeByCaller[in.CallerID] = b.ID
	view, snap := b.view(), b.snapshot(0)
	s.mu.Unlock()

	s.deps.Metrics.ObserveTransition(string(StateSelectingSlot))
	s.publish(snap)
	s.deps.Logger.Info("booking started",
		"booking_id", b.ID, "provider_id", prov.ID, "caller_id", in.CallerID)
	return view, nil
}

// ChooseSlot selects (or re-selects) an appointment slot and holds it.
// An empty timeLabel records the date only and releases any prior hold.
func (s *Service) ChooseSlot(ctx context.Context, bookingID, date, timeLabel string) (View, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.ChooseSlot",
		trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer span.End()

	day, err := availability.ParseDate(date)
	if err != nil {
		return View{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	if timeLabel != "" && !s.deps.Calendar.HasTimeLabel(timeLabel) {
		return View{}, fmt.Errorf("%w: unknown time slot %q", ErrInvalidSelection, timeLabel)
	}
	if _, bookable := s.deps.Calendar.SlotsForDate(day); !bookable {
		return View{}, fmt.Errorf("%w: %s is not bookable", ErrInvalidSelection, date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.getLocked(bookingID)
	if err != nil {
		return View{}, err
	}
	if b.State != StateSelectingSlot {
		return View{}, invalidTransition(b.State, "ChooseSlot")
	}

	oldKey, hadSlot := b.slotKey(), b.hasSlot()
	if timeLabel == "" {
		if hadSlot {
			s.releaseHold(ctx, oldKey, b.ID)
		}
		b.Date, b.TimeLabel = date, ""
		b.UpdatedAt = s.now()
		s.publish(b.snapshot(0))
		return b.view(), nil
	}

	newKey := slots.Key{ProviderID: b.ProviderID, Date: date, TimeLabel: timeLabel}
	if err := s.deps.Slots.Hold(ctx, newKey, b.ID, s.deps.HoldTTL); err != nil {
		if errors.Is(err, slots.ErrSlotHeld) {
			s.deps.Metrics.ObserveSlotConflict()
			return View{}, fmt.Errorf("%w: %s %s", ErrSlotConflict, date, timeLabel)
		}
		return View{}, fmt.Errorf("booking: hold slot: %w", err)
	}
	if hadSlot && oldKey != newKey {
		s.releaseHold(ctx, oldKey, b.ID)
	}
	b.Date, b.TimeLabel = date, timeLabel
	b.UpdatedAt = s.now()
	snap := b.snapshot(0)
	s.publish(snap)
	return b.view(), nil
}

// ProceedToPayment locks in the selection, prices the visit and moves
// the booking to the payment stage.
func (s *Service) ProceedToPayment(ctx context.Context, bookingID string) (View, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.ProceedToPayment",
		trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer span.End()

	s.mu.Lock()
	b, err := s.getLocked(bookingID)
	if err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	if b.State != StateSelectingSlot {
		s.mu.Unlock()
		return View{}, invalidTransition(b.State, "ProceedToPayment")
	}
	if !b.hasSlot() {
		s.mu.Unlock()
		return View{}, ErrIncompleteSelection
	}
	// Renew the hold so it cannot lapse mid-checkout. A conflict here
	// means the original hold expired and someone else took the slot.
	if err := s.deps.Slots.Hold(ctx, b.slotKey(), b.ID, s.deps.HoldTTL); err != nil {
		s.mu.Unlock()
		if errors.Is(err, slots.ErrSlotHeld) {
			s.deps.Metrics.ObserveSlotConflict()
			return View{}, ErrSlotConflict
		}
		return View{}, fmt.Errorf("booking: renew hold: %w", err)
	}
	b.State = StateAwaitingPayment
	b.TotalDueCents = s.deps.Pricing.ComputeTotal(b.BasePriceCents, b.eligibility())
	b.TotalComputed = true
	b.UpdatedAt = s.now()
	view, snap := b.view(), b.snapshot(0)
	s.mu.Unlock()

	s.deps.Metrics.ObserveTransition(string(StateAwaitingPayment))
	s.publish(snap)
	return view, nil
}

// SubmitInsurance records the caller's coverage details and starts an
// asynchronous eligibility check. The booking reports a pending status
// until the check resolves.
func (s *Service) SubmitInsurance(ctx context.Context, bookingID, payerName, memberID string) (View, error) {
	_, span := bookingTracer.Start(ctx, "booking.SubmitInsurance",
		trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer span.End()

	if strings.TrimSpace(payerName) == "" || strings.TrimSpace(memberID) == "" {
		return View{}, insurance.ErrInvalidInput
	}

	s.mu.Lock()
	b, err := s.getLocked(bookingID)
	if err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	if b.State != StateAwaitingPayment {
		s.mu.Unlock()
		return View{}, invalidTransition(b.State, "SubmitInsurance")
	}
	b.PayerName, b.MemberID = payerName, memberID
	b.InsuranceStatus = insurance.StatusPending
	b.CopayCents = 0
	b.UpdatedAt = s.now()
	done := make(chan struct{})
	s.pendingElig[b.ID] = done
	view, snap := b.view(), b.snapshot(0)
	s.mu.Unlock()

	s.publish(snap)
	go s.resolveEligibility(b.ID, payerName, memberID, done)
	return view, nil
}

// resolveEligibility runs the payer check off the request goroutine and
// folds the result back into the booking. A failed or timed-out check
// falls back to the self-pay price.
func (s *Service) resolveEligibility(bookingID, payerName, memberID string, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.EligibilityTimeout)
	defer cancel()

	res, err := s.deps.Resolver.Resolve(ctx, payerName, memberID)
	if err != nil {
		s.deps.Logger.Warn("eligibility check failed, treating as self-pay",
			"booking_id", bookingID, "error", err)
		res = insurance.NotSubmitted()
	}

	s.mu.Lock()
	// Resubmitting insurance replaces the pending channel. A check that
	// was superseded mid-flight must neither apply its result nor
	// remove the newer submission's entry.
	if s.pendingElig[bookingID] != done {
		s.mu.Unlock()
		return
	}
	delete(s.pendingElig, bookingID)
	b, ok := s.bookings[bookingID]
	// A late result must not override a payment that already went
	// through with the fallback price.
	if !ok || b.State != StateAwaitingPayment || b.InsuranceStatus != insurance.StatusPending {
		s.mu.Unlock()
		return
	}
	b.InsuranceStatus = res.Status
	b.CopayCents = res.CopayCents
	if b.TotalComputed {
		b.TotalDueCents = s.deps.Pricing.ComputeTotal(b.BasePriceCents, b.eligibility())
	}
	b.UpdatedAt = s.now()
	snap := b.snapshot(0)
	s.mu.Unlock()

	s.deps.Metrics.ObserveEligibility(string(res.Status))
	s.publish(snap)
}

// SubmitPayment charges the amount due and confirms the booking. If an
// eligibility check is still in flight the charge waits for it, bounded
// by the eligibility timeout; on timeout the visit is charged at the
// self-pay price.
func (s *Service) SubmitPayment(ctx context.Context, bookingID, tokenID string) (View, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.SubmitPayment",
		trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer span.End()

	s.mu.Lock()
	b, err := s.getLocked(bookingID)
	if err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	if b.State != StateAwaitingPayment {
		s.mu.Unlock()
		return View{}, invalidTransition(b.State, "SubmitPayment")
	}
	pending := s.pendingElig[b.ID]
	s.mu.Unlock()

	if pending != nil {
		select {
		case <-pending:
		case <-time.After(s.deps.EligibilityTimeout):
			s.mu.Lock()
			if b.InsuranceStatus == insurance.StatusPending {
				b.InsuranceStatus = insurance.StatusNotSubmitted
				b.UpdatedAt = s.now()
			}
			s.mu.Unlock()
		case <-ctx.Done():
			return View{}, ctx.Err()
		}
	}

	s.mu.Lock()
	if b.State != StateAwaitingPayment {
		state := b.State
		s.mu.Unlock()
		return View{}, invalidTransition(state, "SubmitPayment")
	}
	// Only one charge may be in flight per booking. The lock is
	// released around the external call, so a flag carries the claim.
	if s.charging[b.ID] {
		s.mu.Unlock()
		return View{}, ErrPaymentInProgress
	}
	s.charging[b.ID] = true
	b.TotalDueCents = s.deps.Pricing.ComputeTotal(b.BasePriceCents, b.eligibility())
	b.TotalComputed = true
	charge := payments.ChargeInput{
		BookingID:   b.ID,
		TokenID:     tokenID,
		AmountCents: b.TotalDueCents,
		Currency:    s.deps.Currency,
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.charging, b.ID)
		s.mu.Unlock()
	}()

	result, err := s.deps.Processor.Charge(ctx, charge)
	if err != nil {
		if errors.Is(err, payments.ErrCardDeclined) {
			s.deps.Metrics.ObservePayment("declined")
			s.deps.Logger.Info("payment declined", "booking_id", b.ID)
			return View{}, ErrPaymentDeclined
		}
		s.deps.Metrics.ObservePayment("error")
		return View{}, fmt.Errorf("booking: charge: %w", err)
	}

	s.mu.Lock()
	if b.State != StateAwaitingPayment {
		state := b.State
		s.mu.Unlock()
		return View{}, invalidTransition(state, "SubmitPayment")
	}
	b.PaymentConfirmed = true
	b.ChargeID = result.ChargeID
	b.State = StateConfirmed
	b.UpdatedAt = s.now()
	view, snap := b.view(), b.snapshot(0)
	key := b.slotKey()
	s.mu.Unlock()

	if err := s.deps.Slots.Confirm(ctx, key, b.ID); err != nil {
		s.deps.Logger.Error("confirming slot hold failed",
			"booking_id", b.ID, "slot", key.String(), "error", err)
	}
	s.deps.Metrics.ObservePayment("succeeded")
	s.deps.Metrics.ObserveTransition(string(StateConfirmed))
	s.publish(snap)
	s.sendConfirmation(b, view)
	s.deps.Logger.Info("booking confirmed",
		"booking_id", b.ID, "charge_id", result.ChargeID, "amount_cents", view.TotalDueCents)
	return view, nil
}

func (s *Service) sendConfirmation(b *Booking, view View) {
	if s.deps.Mailer == nil || b.CallerEmail == "" {
		return
	}
	msg := notify.ConfirmationMessage(notify.ConfirmationInput{
		PatientEmail: b.CallerEmail,
		PatientName:  b.CallerName,
		ProviderName: b.ProviderName,
		Date:         view.Date,
		TimeLabel:    view.TimeLabel,
		TotalCents:   view.TotalDueCents,
		Currency:     s.deps.Currency,
	})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.deps.Mailer.Send(ctx, msg); err != nil {
			s.deps.Logger.Warn("confirmation email failed",
				"booking_id", b.ID, "error", err)
		}
	}()
}

// JoinCall starts the video session for a confirmed booking.
func (s *Service) JoinCall(ctx context.Context, bookingID string) (View, *session.Session, error) {
	_, span := bookingTracer.Start(ctx, "booking.JoinCall",
		trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer span.End()

	s.mu.Lock()
	b, err := s.getLocked(bookingID)
	if err != nil {
		s.mu.Unlock()
		return View{}, nil, err
	}
	if b.State != StateInCall && b.State != StateConfirmed {
		s.mu.Unlock()
		return View{}, nil, invalidTransition(b.State, "JoinCall")
	}
	if b.State == StateInCall {
		// Rejoining an active call returns the existing session.
		sess, serr := s.deps.Sessions.Get(b.SessionID)
		view := b.view()
		s.mu.Unlock()
		if serr != nil {
			return View{}, nil, serr
		}
		return view, sess, nil
	}
	sess := s.deps.Sessions.Start(b.ID)
	b.SessionID = sess.ID()
	b.State = StateInCall
	b.UpdatedAt = s.now()
	s.sessionBookings[sess.ID()] = b.ID
	view, snap := b.view(), b.snapshot(0)
	s.mu.Unlock()

	s.deps.Metrics.SessionStarted()
	s.deps.Metrics.ObserveTransition(string(StateInCall))
	s.publish(snap)
	s.deps.Logger.Info("call joined", "booking_id", b.ID, "session_id", sess.ID())
	return view, sess, nil
}

// EndCallBySession terminates the call, frees the slot and archives the
// booking. Calling it again for the same session is a no-op.
func (s *Service) EndCallBySession(ctx context.Context, sessionID string) (View, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.EndCall",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	s.mu.Lock()
	bookingID, ok := s.sessionBookings[sessionID]
	if !ok {
		s.mu.Unlock()
		return View{}, session.ErrSessionNotFound
	}
	b := s.bookings[bookingID]
	if b.State == StateEnded {
		view := b.view()
		s.mu.Unlock()
		return view, nil
	}
	if b.State != StateInCall {
		state := b.State
		s.mu.Unlock()
		return View{}, invalidTransition(state, "EndCall")
	}

	elapsed := 0
	if sess, err := s.deps.Sessions.Get(sessionID); err == nil {
		elapsed = sess.ElapsedSeconds()
	}
	s.deps.Sessions.Stop(sessionID)

	endedAt := s.now()
	b.State = StateEnded
	b.EndedAt = &endedAt
	b.UpdatedAt = endedAt
	if s.activeByCaller[b.CallerID] == b.ID {
		delete(s.activeByCaller, b.CallerID)
	}
	rec := &ArchivedBooking{
		ID:              b.ID,
		CallerID:        b.CallerID,
		ProviderID:      b.ProviderID,
		Date:            b.Date,
		TimeLabel:       b.TimeLabel,
		TotalDueCents:   b.TotalDueCents,
		ChargeID:        b.ChargeID,
		DurationSeconds: elapsed,
		EndedAt:         endedAt,
	}
	view, snap, key := b.view(), b.snapshot(elapsed), b.slotKey()
	s.mu.Unlock()

	s.releaseHold(ctx, key, bookingID)
	if err := s.deps.Archive.Save(ctx, rec); err != nil {
		s.deps.Logger.Error("archiving booking failed", "booking_id", bookingID, "error", err)
	}
	s.deps.Metrics.SessionEnded(float64(elapsed))
	s.deps.Metrics.ObserveTransition(string(StateEnded))
	s.publish(snap)
	s.deps.Logger.Info("call ended",
		"booking_id", bookingID, "session_id", sessionID, "duration_seconds", elapsed)
	return view, nil
}

// Cancel abandons an unpaid booking and releases its hold.
func (s *Service) Cancel(ctx context.Context, bookingID string) (View, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.Cancel",
		trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer span.End()

	s.mu.Lock()
	b, err := s.getLocked(bookingID)
	if err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	if b.State != StateSelectingSlot && b.State != StateAwaitingPayment {
		s.mu.Unlock()
		return View{}, invalidTransition(b.State, "Cancel")
	}
	s.cancelLocked(ctx, b)
	view, snap := b.view(), b.snapshot(0)
	s.mu.Unlock()

	s.deps.Metrics.ObserveTransition(string(StateCancelled))
	s.publish(snap)
	return view, nil
}

// cancelLocked marks the booking cancelled and frees its hold. Caller
// holds s.mu.
func (s *Service) cancelLocked(ctx context.Context, b *Booking) {
	if b.hasSlot() {
		s.releaseHold(ctx, b.slotKey(), b.ID)
	}
	b.State = StateCancelled
	b.UpdatedAt = s.now()
	if s.activeByCaller[b.CallerID] == b.ID {
		delete(s.activeByCaller, b.CallerID)
	}
	s.deps.Logger.Info("booking cancelled", "booking_id", b.ID)
}

// GetBooking returns the booking's current read model.
func (s *Service) GetBooking(ctx context.Context, bookingID string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.getLocked(bookingID)
	if err != nil {
		return View{}, err
	}
	return b.view(), nil
}

// PublishTick pushes the session's elapsed time to feed subscribers.
// Wired as the session manager's tick observer.
func (s *Service) PublishTick(sess *session.Session) {
	s.mu.Lock()
	b, ok := s.bookings[sess.BookingID()]
	if !ok || b.State != StateInCall {
		s.mu.Unlock()
		return
	}
	snap := b.snapshot(sess.ElapsedSeconds())
	s.mu.Unlock()
	s.publish(snap)
}

// SweepTerminal evicts ended and cancelled bookings whose last update
// is older than the retention window, together with their session
// lookup entries. Returns the number of bookings evicted. Run it
// periodically; GetBooking and repeated EndCall stop answering for a
// booking once it is swept.
func (s *Service) SweepTerminal() int {
	cutoff := s.now().Add(-s.deps.TerminalRetention)
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, b := range s.bookings {
		if !b.State.Terminal() || b.UpdatedAt.After(cutoff) {
			continue
		}
		delete(s.bookings, id)
		if b.SessionID != "" {
			delete(s.sessionBookings, b.SessionID)
		}
		evicted++
	}
	if evicted > 0 {
		s.deps.Logger.Info("evicted terminal bookings", "count", evicted)
	}
	return evicted
}

func (s *Service) getLocked(bookingID string) (*Booking, error) {
	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *Service) releaseHold(ctx context.Context, key slots.Key, bookingID string) {
	if err := s.deps.Slots.Release(ctx, key, bookingID); err != nil {
		s.deps.Logger.Warn("releasing slot hold failed",
			"slot", key.String(), "booking_id", bookingID, "error", err)
	}
}

func (s *Service) publish(snap statefeed.BookingSnapshot) {
	if s.deps.Feed != nil {
		s.deps.Feed.Publish(snap)
	}
}
