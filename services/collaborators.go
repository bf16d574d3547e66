package services

import (
	"time"

	"github.com/mwangi2684/coachmarket/payments"
)

// PaymentProcessor is the payment-side collaborator. The production
// implementation is payments.StripeService; tests substitute fakes.
type PaymentProcessor interface {
	CreateCheckout(amountCents int64, currency, destinationAccount string, metadata map[string]string) (*payments.CheckoutSession, error)
	RetrievePaymentIntent(ref string) (*payments.PaymentIntent, error)
	CreateRefund(chargeID string, amountCents int64, reason string, metadata map[string]string) (*payments.Refund, error)
	CreateTransfer(amountCents int64, currency, destinationAccount string, metadata map[string]string, idempotencyKey string) (*payments.Transfer, error)
	RetrieveAccount(accountID string) (*payments.Account, error)
}

// SchedulingProvider mirrors bookings into the external scheduler. All calls
// are best-effort for the core.
type SchedulingProvider interface {
	CreateBooking(coachEmail, studentEmail string, start, end time.Time, title string) (string, error)
	CancelBooking(ref, reason string) error
	RescheduleBooking(ref string, start, end time.Time) error
}

// CalendarSync is the fire-and-forget calendar bridge.
type CalendarSync interface {
	CreateEvent(eventID, summary string, start, end time.Time, attendees []string) error
	UpdateEvent(eventID string, start, end time.Time) error
	DeleteEvent(eventID string) error
}

// SideEffect records the outcome of one best-effort operation so callers and
// tests can assert on partial-failure reporting instead of losing it to an
// inline log line.
type SideEffect struct {
	Op    string `json:"op"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func sideEffect(op string, err error) SideEffect {
	if err != nil {
		return SideEffect{Op: op, OK: false, Error: err.Error()}
	}
	return SideEffect{Op: op, OK: true}
}
