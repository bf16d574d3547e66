package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
	"github.com/mwangi2684/coachmarket/money"
)

type purchaseStore interface {
	GetByID(id uuid.UUID) (*models.Purchase, error)
	GetByBookingID(bookingID uuid.UUID) (*models.Purchase, error)
	Save(purchase *models.Purchase) error
}

type pendingDebiter interface {
	Debit(coachID, purchaseID uuid.UUID, cents int64) error
}

// RefundService computes policy-bound refunds and issues them through the
// payment processor, reversing the coach's pending earnings share on success.
// A processor failure leaves the booking's refund fields unset so the refund
// is visibly outstanding; it is never retried here.
type RefundService struct {
	purchaseRepo purchaseStore
	pendingRepo  pendingDebiter
	processor    PaymentProcessor
	policy       money.RefundPolicy
}

func NewRefundService(purchaseRepo purchaseStore, pendingRepo pendingDebiter, processor PaymentProcessor) *RefundService {
	return &RefundService{
		purchaseRepo: purchaseRepo,
		pendingRepo:  pendingRepo,
		processor:    processor,
		policy:       money.DefaultRefundPolicy(),
	}
}

type RefundOutcome struct {
	AmountCents int64  `json:"amount_cents"`
	RefundRef   string `json:"refund_ref,omitempty"`
	Reason      string `json:"reason"`
}

// IssueForCancellation computes the refund for cancelling booking at
// cancelledAt and issues it. Free intros and unpaid bookings resolve to a
// zero outcome with no processor call. On success the booking's refund
// fields are filled in; the caller persists the booking.
func (s *RefundService) IssueForCancellation(booking *models.Booking, cancelledAt time.Time) (*RefundOutcome, error) {
	if booking.Type == models.BookingTypeFreeIntro || booking.PriceCents == 0 {
		return &RefundOutcome{AmountCents: 0, Reason: "no payment to refund"}, nil
	}

	amount, reason := money.RefundAmount(booking.ScheduledStart, cancelledAt, booking.PriceCents, s.policy)
	if amount == 0 {
		return &RefundOutcome{AmountCents: 0, Reason: reason}, nil
	}
	return s.issue(booking, amount, reason)
}

// IssueDifference refunds a fixed amount against a booking's payment, used
// when a reschedule lowers the price.
func (s *RefundService) IssueDifference(booking *models.Booking, amountCents int64, reason string) (*RefundOutcome, error) {
	if amountCents <= 0 {
		return &RefundOutcome{AmountCents: 0, Reason: reason}, nil
	}
	return s.issue(booking, amountCents, reason)
}

func (s *RefundService) issue(booking *models.Booking, amountCents int64, reason string) (*RefundOutcome, error) {
	purchase, err := s.purchaseRepo.GetByBookingID(booking.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Prefer the reference stored on the booking; fall back to the purchase
	// ledger entry if the booking predates that field.
	var chargeRef string
	if booking.PaymentRef != nil {
		chargeRef = *booking.PaymentRef
	} else if purchase != nil {
		chargeRef = purchase.PaymentRef
	}
	if chargeRef == "" {
		return nil, ErrInvalidInput
	}

	// Bound by what was actually paid before touching the processor. The
	// purchase ledger entry is authoritative here: a reschedule to a cheaper
	// offering lowers the booking's price after payment, and the difference
	// already refunded plus the remainder must still add up to the original
	// charge.
	paid := booking.PriceCents
	if purchase != nil {
		paid = purchase.AmountCents
	}
	already := int64(0)
	if booking.RefundAmountCents != nil {
		already = *booking.RefundAmountCents
	}
	if already+amountCents > paid {
		return nil, ErrRefundExceedsPaid
	}

	refund, err := s.processor.CreateRefund(chargeRef, amountCents, reason, map[string]string{
		"booking_id": booking.ID.String(),
	})
	if err != nil {
		return nil, &ExternalServiceError{Service: "payment processor", Err: err}
	}

	total := already + amountCents
	booking.RefundRef = &refund.ID
	booking.RefundAmountCents = &total

	if purchase != nil {
		purchase.RefundRef = &refund.ID
		if total >= purchase.AmountCents {
			purchase.Status = models.PurchaseStatusRefunded
		}
		if err := s.purchaseRepo.Save(purchase); err != nil {
			return nil, err
		}

		// Reverse the coach's share of the refunded amount, proportional to
		// the original fee split, clamped at zero by the repository.
		share := amountCents * purchase.CoachEarningsCents / purchase.AmountCents
		if err := s.pendingRepo.Debit(purchase.CoachID, purchase.ID, share); err != nil {
			return nil, err
		}
	}

	return &RefundOutcome{AmountCents: amountCents, RefundRef: refund.ID, Reason: reason}, nil
}

// RefundCoursePurchase fully refunds a course purchase (admin-approved; no
// cancellation window applies to courses).
func (s *RefundService) RefundCoursePurchase(purchaseID uuid.UUID, reason string) (*RefundOutcome, error) {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.Status == models.PurchaseStatusRefunded {
		return nil, ErrRefundExceedsPaid
	}

	refund, err := s.processor.CreateRefund(purchase.PaymentRef, purchase.AmountCents, reason, map[string]string{
		"purchase_id": purchase.ID.String(),
	})
	if err != nil {
		return nil, &ExternalServiceError{Service: "payment processor", Err: err}
	}

	purchase.Status = models.PurchaseStatusRefunded
	purchase.RefundRef = &refund.ID
	if err := s.purchaseRepo.Save(purchase); err != nil {
		return nil, err
	}
	if err := s.pendingRepo.Debit(purchase.CoachID, purchase.ID, purchase.CoachEarningsCents); err != nil {
		return nil, err
	}

	return &RefundOutcome{AmountCents: purchase.AmountCents, RefundRef: refund.ID, Reason: reason}, nil
}
