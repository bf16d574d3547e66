package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mwangi2684/coachmarket/models"
)

type refundFixture struct {
	service   *RefundService
	purchases *stubPurchaseStore
	pending   *stubPendingLedger
	processor *stubProcessor
	coachID   uuid.UUID
}

func newRefundFixture() *refundFixture {
	f := &refundFixture{
		purchases: newStubPurchaseStore(),
		pending:   newStubPendingLedger(),
		processor: &stubProcessor{},
		coachID:   uuid.New(),
	}
	f.service = NewRefundService(f.purchases, f.pending, f.processor)
	return f
}

func (f *refundFixture) paidBooking(t *testing.T, priceCents int64, start time.Time) *models.Booking {
	t.Helper()

	paymentRef := "pi_refund_test"
	booking := &models.Booking{
		ID:             uuid.New(),
		CoachID:        f.coachID,
		StudentID:      uuid.New(),
		Type:           models.BookingTypePaid,
		Status:         models.BookingConfirmed,
		PriceCents:     priceCents,
		Currency:       "USD",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
		PaymentRef:     &paymentRef,
	}

	purchase := &models.Purchase{
		UserID:             booking.StudentID,
		CoachID:            f.coachID,
		Type:               models.PurchaseTypeSession,
		BookingID:          &booking.ID,
		AmountCents:        priceCents,
		PlatformFeeCents:   priceCents / 5,
		CoachEarningsCents: priceCents - priceCents/5,
		Currency:           "USD",
		PaymentRef:         paymentRef,
		Status:             models.PurchaseStatusPaid,
	}
	if err := f.purchases.Create(purchase); err != nil {
		t.Fatalf("Create purchase: %v", err)
	}
	if err := f.pending.Credit(f.coachID, purchase.ID, purchase.CoachEarningsCents); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	return booking
}

func TestIssueForCancellationFreeIntroSkipsProcessor(t *testing.T) {
	f := newRefundFixture()
	booking := &models.Booking{
		ID:     uuid.New(),
		Type:   models.BookingTypeFreeIntro,
		Status: models.BookingConfirmed,
	}

	outcome, err := f.service.IssueForCancellation(booking, time.Now())
	if err != nil {
		t.Fatalf("IssueForCancellation: %v", err)
	}
	if outcome.AmountCents != 0 {
		t.Fatalf("free intro refund = %d, want 0", outcome.AmountCents)
	}
	if len(f.processor.refunds) != 0 {
		t.Fatalf("free intro must not call the processor")
	}
}

func TestIssueForCancellationLateWindowSkipsProcessor(t *testing.T) {
	f := newRefundFixture()
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	booking := f.paidBooking(t, 5000, start)

	outcome, err := f.service.IssueForCancellation(booking, start.Add(-1*time.Hour))
	if err != nil {
		t.Fatalf("IssueForCancellation: %v", err)
	}
	if outcome.AmountCents != 0 {
		t.Fatalf("late cancellation refund = %d, want 0", outcome.AmountCents)
	}
	if len(f.processor.refunds) != 0 {
		t.Fatalf("zero refund must not call the processor")
	}
	if got := f.pending.balances[f.coachID]; got != 4000 {
		t.Fatalf("pending balance = %d, want untouched 4000", got)
	}
}

func TestIssueRefundUpdatesLedgerProportionally(t *testing.T) {
	f := newRefundFixture()
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	booking := f.paidBooking(t, 5000, start)

	outcome, err := f.service.IssueForCancellation(booking, start.Add(-5*time.Hour))
	if err != nil {
		t.Fatalf("IssueForCancellation: %v", err)
	}
	if outcome.AmountCents != 2500 {
		t.Fatalf("refund = %d, want 2500", outcome.AmountCents)
	}
	if booking.RefundAmountCents == nil || *booking.RefundAmountCents != 2500 {
		t.Fatalf("booking refund total not recorded")
	}
	// Half of the payment back means half of the 4000-cent earnings share
	// comes out of pending.
	if got := f.pending.balances[f.coachID]; got != 2000 {
		t.Fatalf("pending balance = %d, want 2000", got)
	}

	purchase, err := f.purchases.GetByBookingID(booking.ID)
	if err != nil {
		t.Fatalf("GetByBookingID: %v", err)
	}
	if purchase.Status != models.PurchaseStatusPaid {
		t.Fatalf("partial refund must not mark the purchase refunded")
	}
}

func TestIssueRefundsAccumulateAndCap(t *testing.T) {
	f := newRefundFixture()
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	booking := f.paidBooking(t, 5000, start)

	if _, err := f.service.IssueDifference(booking, 2000, "cheaper offering"); err != nil {
		t.Fatalf("first IssueDifference: %v", err)
	}
	if _, err := f.service.IssueDifference(booking, 2000, "again"); err != nil {
		t.Fatalf("second IssueDifference: %v", err)
	}
	if booking.RefundAmountCents == nil || *booking.RefundAmountCents != 4000 {
		t.Fatalf("cumulative refund = %v, want 4000", booking.RefundAmountCents)
	}

	_, err := f.service.IssueDifference(booking, 2000, "over the top")
	if !errors.Is(err, ErrRefundExceedsPaid) {
		t.Fatalf("expected ErrRefundExceedsPaid, got %v", err)
	}
	if len(f.processor.refunds) != 2 {
		t.Fatalf("over-refund must be rejected before the processor call, got %d calls", len(f.processor.refunds))
	}
}

func TestRefundCapUsesPaidAmountNotCurrentPrice(t *testing.T) {
	f := newRefundFixture()
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	booking := f.paidBooking(t, 5000, start)

	if _, err := f.service.IssueDifference(booking, 2000, "cheaper offering"); err != nil {
		t.Fatalf("IssueDifference: %v", err)
	}
	// A downgrade reschedule lowers the booking's price after payment; the
	// remainder of the original charge must still be refundable.
	booking.PriceCents = 3000

	outcome, err := f.service.IssueForCancellation(booking, start.Add(-72*time.Hour))
	if err != nil {
		t.Fatalf("IssueForCancellation: %v", err)
	}
	if outcome.AmountCents != 3000 {
		t.Fatalf("remainder refund = %d, want 3000", outcome.AmountCents)
	}
	if booking.RefundAmountCents == nil || *booking.RefundAmountCents != 5000 {
		t.Fatalf("cumulative refund = %v, want 5000", booking.RefundAmountCents)
	}

	purchase, err := f.purchases.GetByBookingID(booking.ID)
	if err != nil {
		t.Fatalf("GetByBookingID: %v", err)
	}
	if purchase.Status != models.PurchaseStatusRefunded {
		t.Fatalf("fully refunded purchase left %s", purchase.Status)
	}
}

func TestIssueRefundProcessorFailureLeavesStateClean(t *testing.T) {
	f := newRefundFixture()
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	booking := f.paidBooking(t, 5000, start)
	f.processor.refundErr = errStubDown

	_, err := f.service.IssueForCancellation(booking, start.Add(-48*time.Hour))
	var extErr *ExternalServiceError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
	if booking.RefundAmountCents != nil || booking.RefundRef != nil {
		t.Fatalf("failed refund must not record refund fields")
	}
	if got := f.pending.balances[f.coachID]; got != 4000 {
		t.Fatalf("pending balance = %d, want untouched 4000", got)
	}
}

func TestRefundCoursePurchase(t *testing.T) {
	f := newRefundFixture()
	courseID := uuid.New()
	purchase := &models.Purchase{
		UserID:             uuid.New(),
		CoachID:            f.coachID,
		Type:               models.PurchaseTypeCourse,
		CourseID:           &courseID,
		AmountCents:        8000,
		PlatformFeeCents:   1600,
		CoachEarningsCents: 6400,
		Currency:           "USD",
		PaymentRef:         "pi_course",
		Status:             models.PurchaseStatusPaid,
	}
	if err := f.purchases.Create(purchase); err != nil {
		t.Fatalf("Create purchase: %v", err)
	}
	if err := f.pending.Credit(f.coachID, purchase.ID, purchase.CoachEarningsCents); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	outcome, err := f.service.RefundCoursePurchase(purchase.ID, "content dispute")
	if err != nil {
		t.Fatalf("RefundCoursePurchase: %v", err)
	}
	if outcome.AmountCents != 8000 {
		t.Fatalf("refund = %d, want 8000", outcome.AmountCents)
	}
	if got := f.pending.balances[f.coachID]; got != 0 {
		t.Fatalf("pending balance = %d, want 0", got)
	}

	if _, err := f.service.RefundCoursePurchase(purchase.ID, "again"); !errors.Is(err, ErrRefundExceedsPaid) {
		t.Fatalf("double course refund: expected ErrRefundExceedsPaid, got %v", err)
	}
}
