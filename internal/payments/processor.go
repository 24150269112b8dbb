// Package payments defines the charge contract the booking flow uses.
// Real card processing is fulfilled by an injected external service;
// this package ships the contract and a dev/demo processor.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/telecare-platform/pkg/logging"
)

var (
	// ErrCardDeclined is returned when the charge is rejected. The caller
	// may retry with a different payment method without losing its slot.
	ErrCardDeclined = errors.New("payments: card declined")

	// ErrInvalidCharge is returned for malformed charge input.
	ErrInvalidCharge = errors.New("payments: invalid charge input")
)

// ChargeInput describes one charge attempt.
type ChargeInput struct {
	BookingID   string
	TokenID     string
	AmountCents int64
	Currency    string
}

// ChargeResult is returned for a successful charge.
type ChargeResult struct {
	ChargeID    string
	AmountCents int64
}

// Processor charges a tokenized payment method.
type Processor interface {
	Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error)
}

// FakeProcessor approves every well-formed charge except tokens carrying
// the "declined" marker. It simulates processor latency.
//
// This MUST be gated by configuration (ALLOW_FAKE_PAYMENTS) and should
// never be enabled in production.
type FakeProcessor struct {
	latency time.Duration
	logger  *logging.Logger
}

// NewFakeProcessor creates the dev/demo processor.
func NewFakeProcessor(latency time.Duration, logger *logging.Logger) *FakeProcessor {
	if logger == nil {
		logger = logging.Default()
	}
	return &FakeProcessor{latency: latency, logger: logger}
}

// Charge validates the input, waits the simulated latency, then approves
// or declines by token marker.
func (p *FakeProcessor) Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error) {
	if strings.TrimSpace(input.TokenID) == "" || input.AmountCents <= 0 {
		return nil, ErrInvalidCharge
	}

	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if strings.Contains(strings.ToLower(input.TokenID), "declined") {
		p.logger.Warn("fake charge declined", "booking_id", input.BookingID, "amount_cents", input.AmountCents)
		return nil, ErrCardDeclined
	}

	result := &ChargeResult{
		ChargeID:    fmt.Sprintf("fake:%s", uuid.NewString()),
		AmountCents: input.AmountCents,
	}
	p.logger.Info("fake charge approved",
		"booking_id", input.BookingID,
		"charge_id", result.ChargeID,
		"amount_cents", input.AmountCents,
	)
	return result, nil
}
