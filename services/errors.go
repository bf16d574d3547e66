package services

import (
	"errors"
	"fmt"
)

// Validation-class errors: surfaced to the caller, never retried.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrCoachNotFound      = errors.New("coach not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrOfferingNotFound   = errors.New("offering not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrDuplicateFreeIntro = errors.New("a free intro with this coach was already used in the last 30 days")
	ErrTerminalState      = errors.New("booking is in a terminal state")
	ErrNotYetStarted      = errors.New("booking cannot be completed before its scheduled start")
)

// ErrNotBookingParty rejects callers who are neither the booking's student
// nor its coach (admins bypass the check).
var ErrNotBookingParty = errors.New("caller is not a party to this booking")

// Consistency-class errors: rejected before any external call is made.
var (
	ErrNoPayoutAccount    = errors.New("coach has no payout account")
	ErrInactiveAccount    = errors.New("coach payout account is not active")
	ErrBelowMinimumPayout = errors.New("pending balance below minimum payout threshold")
	ErrRefundExceedsPaid  = errors.New("refund amount exceeds remaining payable amount")
)

// ExternalServiceError wraps a failure from the payment processor, the
// scheduling provider, or the calendar bridge. Primary-path callers abort on
// it; secondary-path callers fold it into a SideEffect and continue.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether the error maps to a 400-class response.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrDuplicateFreeIntro),
		errors.Is(err, ErrTerminalState),
		errors.Is(err, ErrNotYetStarted),
		errors.Is(err, ErrSlotConflict),
		errors.Is(err, ErrSlotInPast),
		errors.Is(err, ErrBelowMinimumPayout),
		errors.Is(err, ErrRefundExceedsPaid):
		return true
	}
	return false
}

// IsForbidden reports whether the error maps to a 403 response.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrNotBookingParty)
}

// IsNotFound reports whether the error maps to a 404 response.
func IsNotFound(err error) bool {
	switch {
	case errors.Is(err, ErrCoachNotFound),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrOfferingNotFound),
		errors.Is(err, ErrCourseNotFound):
		return true
	}
	return false
}
