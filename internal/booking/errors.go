package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrBookingNotFound is returned for an unknown booking id.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidSelection is returned for a malformed or unbookable
	// date/time selection.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrSlotConflict is returned when another booking already holds the
	// requested slot. Retryable with a different slot.
	ErrSlotConflict = errors.New("slot already held by another booking")

	// ErrIncompleteSelection is returned when payment is attempted before
	// both date and time are set.
	ErrIncompleteSelection = errors.New("date and time slot must be selected")

	// ErrPaymentDeclined is returned when the charge is rejected. The
	// slot hold is preserved so the caller may retry.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrPaymentInProgress is returned when a charge for the booking is
	// already being processed.
	ErrPaymentInProgress = errors.New("payment already in progress")

	// ErrActiveBookingInProgress is returned when a new booking is
	// started while the caller's current one is already paid or in call.
	ErrActiveBookingInProgress = errors.New("caller has a confirmed booking in progress")
)

// InvalidTransitionError reports an operation attempted from a state
// that does not permit it. Always a client/programming error.
type InvalidTransitionError struct {
	From      State
	Operation string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("operation %s not permitted in state %s", e.Operation, e.From)
}

func invalidTransition(from State, op string) error {
	return &InvalidTransitionError{From: from, Operation: op}
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
