package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
	"github.com/mwangi2684/coachmarket/money"
	"github.com/mwangi2684/coachmarket/notifications"
)

const (
	freeIntroMinutes    = 30
	freeIntroWindowDays = 30
)

type bookingStore interface {
	GetByID(id uuid.UUID) (*models.Booking, error)
	Save(booking *models.Booking) error
	CreateSerialized(booking *models.Booking, validate func(existing []models.Booking) error) error
	UpdateSerialized(booking *models.Booking, validate func(existing []models.Booking) error) error
	CountRecentFreeIntros(studentID, coachID uuid.UUID, since time.Time) (int64, error)
}

type coachStore interface {
	GetByUserID(userID uuid.UUID) (*models.Coach, error)
	GetOffering(offeringID uuid.UUID) (*models.Offering, error)
}

type userReader interface {
	GetByID(id uuid.UUID) (*models.User, error)
}

type purchaseLedger interface {
	Create(purchase *models.Purchase) error
	GetByBookingID(bookingID uuid.UUID) (*models.Purchase, error)
}

type pendingCrediter interface {
	Credit(coachID, purchaseID uuid.UUID, earningsCents int64) error
}

type refundIssuer interface {
	IssueForCancellation(booking *models.Booking, cancelledAt time.Time) (*RefundOutcome, error)
	IssueDifference(booking *models.Booking, amountCents int64, reason string) (*RefundOutcome, error)
}

type reviewWriter interface {
	Create(review *models.Review) error
}

type ratingUpdater interface {
	UpdateRating(coachID uuid.UUID) error
}

// BookingService owns the booking lifecycle: requested -> confirmed ->
// completed, with cancelled reachable from the two non-terminal states.
// Collaborators are injected so tests run against fakes.
type BookingService struct {
	bookingRepo  bookingStore
	coachRepo    coachStore
	userRepo     userReader
	purchaseRepo purchaseLedger
	pendingRepo  pendingCrediter
	refunds      refundIssuer
	reviewRepo   reviewWriter
	ratings      ratingUpdater
	processor    PaymentProcessor
	scheduler    SchedulingProvider
	calendar     CalendarSync
	now          func() time.Time
}

func NewBookingService(
	bookingRepo bookingStore,
	coachRepo coachStore,
	userRepo userReader,
	purchaseRepo purchaseLedger,
	pendingRepo pendingCrediter,
	refunds refundIssuer,
	reviewRepo reviewWriter,
	ratings ratingUpdater,
	processor PaymentProcessor,
	scheduler SchedulingProvider,
	calendar CalendarSync,
) *BookingService {
	return &BookingService{
		bookingRepo:  bookingRepo,
		coachRepo:    coachRepo,
		userRepo:     userRepo,
		purchaseRepo: purchaseRepo,
		pendingRepo:  pendingRepo,
		refunds:      refunds,
		reviewRepo:   reviewRepo,
		ratings:      ratings,
		processor:    processor,
		scheduler:    scheduler,
		calendar:     calendar,
		now:          time.Now,
	}
}

type CreateBookingInput struct {
	CoachID       uuid.UUID
	OfferingID    *uuid.UUID
	Type          string
	Start         time.Time
	BufferMinutes int
	TimeZone      string
}

type CreateBookingResult struct {
	Booking     *models.Booking `json:"booking"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
	CheckoutRef string          `json:"checkout_ref,omitempty"`
	SideEffects []SideEffect    `json:"side_effects,omitempty"`
}

// CreateBooking validates the slot under the coach's write lock and creates
// the booking: free intros land directly in confirmed (no payment gate, one
// per student/coach pair per 30 days), paid sessions land in requested with
// a checkout session opened at the processor.
func (s *BookingService) CreateBooking(studentID uuid.UUID, input CreateBookingInput) (*CreateBookingResult, error) {
	if input.BufferMinutes < 0 || input.Start.IsZero() {
		return nil, ErrInvalidInput
	}
	if input.Type != models.BookingTypeFreeIntro && input.Type != models.BookingTypePaid {
		return nil, ErrInvalidInput
	}

	coach, err := s.coachRepo.GetByUserID(input.CoachID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	student, err := s.userRepo.GetByID(studentID)
	if err != nil {
		return nil, err
	}

	timeZone := input.TimeZone
	if timeZone == "" {
		timeZone = "UTC"
	}

	booking := &models.Booking{
		CoachID:        input.CoachID,
		StudentID:      studentID,
		Type:           input.Type,
		BufferMinutes:  input.BufferMinutes,
		TimeZone:       timeZone,
		ScheduledStart: input.Start.UTC(),
	}

	if input.Type == models.BookingTypeFreeIntro {
		since := s.now().AddDate(0, 0, -freeIntroWindowDays)
		count, err := s.bookingRepo.CountRecentFreeIntros(studentID, input.CoachID, since)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrDuplicateFreeIntro
		}
		booking.SessionMinutes = freeIntroMinutes
		booking.PriceCents = 0
		booking.Currency = "USD"
		booking.Status = models.BookingConfirmed
	} else {
		if input.OfferingID == nil {
			return nil, ErrInvalidInput
		}
		offering, err := s.coachRepo.GetOffering(*input.OfferingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrOfferingNotFound
			}
			return nil, err
		}
		if offering.CoachID != input.CoachID {
			return nil, ErrOfferingNotFound
		}
		booking.SessionMinutes = offering.SessionMinutes
		booking.PriceCents = offering.PriceCents
		booking.Currency = offering.Currency
		booking.Status = models.BookingRequested
	}

	booking.ScheduledEnd = booking.ScheduledStart.Add(time.Duration(booking.SessionMinutes) * time.Minute)

	now := s.now()
	err = s.bookingRepo.CreateSerialized(booking, func(existing []models.Booking) error {
		return CheckSlot(booking.ScheduledStart, booking.ScheduledEnd, booking.BufferMinutes, existing, now)
	})
	if err != nil {
		return nil, err
	}

	result := &CreateBookingResult{Booking: booking}

	if booking.Type == models.BookingTypePaid {
		destination := ""
		if coach.StripeAccountID != nil {
			destination = *coach.StripeAccountID
		}
		session, err := s.processor.CreateCheckout(booking.PriceCents, booking.Currency, destination, map[string]string{
			"booking_id": booking.ID.String(),
		})
		if err != nil {
			// Checkout is the primary side effect of a paid booking; without
			// it the booking can never confirm, so roll it into cancelled
			// before propagating.
			actor := "system"
			reason := "checkout initiation failed"
			cancelledAt := s.now()
			booking.Status = models.BookingCancelled
			booking.CancelReason = &reason
			booking.CancelledBy = &actor
			booking.CancelledAt = &cancelledAt
			_ = s.bookingRepo.Save(booking)
			return nil, &ExternalServiceError{Service: "payment processor", Err: err}
		}
		result.CheckoutURL = session.URL
		result.CheckoutRef = session.ID
	}

	result.SideEffects = s.mirrorCreate(booking, coach, student)

	if booking.Status == models.BookingConfirmed {
		go notifications.SendEmail(student.FullName, student.Email, "Your intro session is booked!",
			"<h1>Booking Confirmed</h1><p>Your free intro session has been scheduled.</p>")
		go notifications.SendEmail(coach.User.FullName, coach.User.Email, "You have a new booking!",
			"<h1>New Booking</h1><p>A student has booked a free intro session with you.</p>")
	}

	return result, nil
}

// mirrorCreate pushes the new booking to the scheduling provider and the
// calendar bridge. Failures are reported, never fatal.
func (s *BookingService) mirrorCreate(booking *models.Booking, coach *models.Coach, student *models.User) []SideEffect {
	var effects []SideEffect

	if s.scheduler != nil {
		ref, err := s.scheduler.CreateBooking(coach.User.Email, student.Email,
			booking.ScheduledStart, booking.ScheduledEnd, "Coaching session")
		if err == nil && ref != "" {
			booking.SchedulingRef = &ref
			if saveErr := s.bookingRepo.Save(booking); saveErr != nil {
				err = saveErr
			}
		}
		effects = append(effects, sideEffect("scheduling provider create", err))
	}
	if s.calendar != nil {
		err := s.calendar.CreateEvent(booking.ID.String(), "Coaching session",
			booking.ScheduledStart, booking.ScheduledEnd, []string{coach.User.Email, student.Email})
		effects = append(effects, sideEffect("calendar create", err))
	}
	return effects
}

type ConfirmResult struct {
	Booking          *models.Booking  `json:"booking"`
	Purchase         *models.Purchase `json:"purchase,omitempty"`
	AlreadyConfirmed bool             `json:"already_confirmed"`
}

// ConfirmBooking is the payment-success webhook target. At-least-once
// delivery makes it idempotent: confirming a booking that is already
// confirmed (or since completed) is a success no-op and never duplicates the
// purchase ledger entry.
func (s *BookingService) ConfirmBooking(bookingID uuid.UUID, paymentRef string) (*ConfirmResult, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Status == models.BookingConfirmed || booking.Status == models.BookingCompleted {
		return &ConfirmResult{Booking: booking, AlreadyConfirmed: true}, nil
	}
	if !booking.Status.CanTransitionTo(models.BookingConfirmed) {
		return nil, ErrTerminalState
	}

	purchase, err := s.purchaseRepo.GetByBookingID(bookingID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if purchase == nil {
		fee := money.PlatformFee(booking.PriceCents)
		purchase = &models.Purchase{
			UserID:             booking.StudentID,
			CoachID:            booking.CoachID,
			Type:               models.PurchaseTypeSession,
			BookingID:          &booking.ID,
			AmountCents:        booking.PriceCents,
			PlatformFeeCents:   fee,
			CoachEarningsCents: money.CoachEarnings(booking.PriceCents, fee),
			Currency:           booking.Currency,
			PaymentRef:         paymentRef,
			Status:             models.PurchaseStatusPaid,
		}
		if err := s.purchaseRepo.Create(purchase); err != nil {
			return nil, err
		}
	}

	// Credit is idempotent per purchase, so a redelivered webhook that died
	// between these steps converges instead of double-counting.
	if err := s.pendingRepo.Credit(booking.CoachID, purchase.ID, purchase.CoachEarningsCents); err != nil {
		return nil, err
	}

	booking.Status = models.BookingConfirmed
	booking.PaymentRef = &paymentRef
	if err := s.bookingRepo.Save(booking); err != nil {
		return nil, err
	}

	if student, err := s.userRepo.GetByID(booking.StudentID); err == nil {
		go notifications.SendEmail(student.FullName, student.Email, "Your booking is confirmed!",
			"<h1>Booking Confirmed</h1><p>Your payment was received and your session is confirmed.</p>")
	}

	return &ConfirmResult{Booking: booking, Purchase: purchase}, nil
}

// bookingParty reports whether the caller may act on the booking: its
// student, its coach, or any admin.
func bookingParty(booking *models.Booking, callerID uuid.UUID, role string) bool {
	return role == "admin" || booking.StudentID == callerID || booking.CoachID == callerID
}

type RescheduleInput struct {
	NewStart   time.Time
	OfferingID *uuid.UUID
	Reason     string
}

type RescheduleResult struct {
	Booking *models.Booking `json:"booking"`
	// Positive when the new offering costs more; the caller collects the
	// difference out of band. Negative deltas were refunded below.
	PriceDeltaCents int64          `json:"price_delta_cents"`
	Refund          *RefundOutcome `json:"refund,omitempty"`
	RefundError     string         `json:"refund_error,omitempty"`
	SideEffects     []SideEffect   `json:"side_effects,omitempty"`
}

// RescheduleBooking moves a requested or confirmed booking to a new slot,
// re-validated against every other non-cancelled booking of the coach. Only
// the booking's student, its coach, or an admin may move it.
func (s *BookingService) RescheduleBooking(bookingID, callerID uuid.UUID, role string, input RescheduleInput) (*RescheduleResult, error) {
	if input.NewStart.IsZero() {
		return nil, ErrInvalidInput
	}

	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !bookingParty(booking, callerID, role) {
		return nil, ErrNotBookingParty
	}
	if booking.Status.IsTerminal() {
		return nil, ErrTerminalState
	}

	oldPrice := booking.PriceCents

	if input.OfferingID != nil && booking.Type == models.BookingTypePaid {
		offering, err := s.coachRepo.GetOffering(*input.OfferingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrOfferingNotFound
			}
			return nil, err
		}
		if offering.CoachID != booking.CoachID {
			return nil, ErrOfferingNotFound
		}
		booking.SessionMinutes = offering.SessionMinutes
		booking.PriceCents = offering.PriceCents
		booking.Currency = offering.Currency
	}

	// Preserve the first original start only; later reschedules keep it.
	if booking.OriginalStart == nil {
		original := booking.ScheduledStart
		booking.OriginalStart = &original
	}
	if input.Reason != "" {
		booking.RescheduleReason = &input.Reason
	}
	booking.ScheduledStart = input.NewStart.UTC()
	booking.ScheduledEnd = booking.ScheduledStart.Add(time.Duration(booking.SessionMinutes) * time.Minute)

	now := s.now()
	err = s.bookingRepo.UpdateSerialized(booking, func(existing []models.Booking) error {
		return CheckSlot(booking.ScheduledStart, booking.ScheduledEnd, booking.BufferMinutes, existing, now)
	})
	if err != nil {
		return nil, err
	}

	result := &RescheduleResult{Booking: booking, PriceDeltaCents: booking.PriceCents - oldPrice}

	if result.PriceDeltaCents < 0 && booking.Status == models.BookingConfirmed {
		outcome, refundErr := s.refunds.IssueDifference(booking, -result.PriceDeltaCents,
			fmt.Sprintf("reschedule to cheaper offering (%d cent difference)", -result.PriceDeltaCents))
		if refundErr != nil {
			result.RefundError = refundErr.Error()
		} else {
			result.Refund = outcome
			if err := s.bookingRepo.Save(booking); err != nil {
				return nil, err
			}
		}
	}

	if s.scheduler != nil && booking.SchedulingRef != nil {
		err := s.scheduler.RescheduleBooking(*booking.SchedulingRef, booking.ScheduledStart, booking.ScheduledEnd)
		result.SideEffects = append(result.SideEffects, sideEffect("scheduling provider reschedule", err))
	}
	if s.calendar != nil {
		err := s.calendar.UpdateEvent(booking.ID.String(), booking.ScheduledStart, booking.ScheduledEnd)
		result.SideEffects = append(result.SideEffects, sideEffect("calendar update", err))
	}

	return result, nil
}

// CompleteBooking moves a confirmed booking whose start has passed into
// completed. No monetary side effect: earnings were recorded at confirmation.
func (s *BookingService) CompleteBooking(bookingID, coachID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.CoachID != coachID {
		return nil, ErrInvalidInput
	}
	if booking.Status.IsTerminal() {
		return nil, ErrTerminalState
	}
	if !booking.Status.CanTransitionTo(models.BookingCompleted) {
		return nil, ErrInvalidInput
	}
	if s.now().Before(booking.ScheduledStart) {
		return nil, ErrNotYetStarted
	}

	booking.Status = models.BookingCompleted
	if err := s.bookingRepo.Save(booking); err != nil {
		return nil, err
	}
	return booking, nil
}

type CancelResult struct {
	Booking *models.Booking `json:"booking"`
	Refund  *RefundOutcome  `json:"refund,omitempty"`
	// Set when the refund could not be issued; the booking is still
	// cancelled and the refund is left for operator retry.
	RefundError string       `json:"refund_error,omitempty"`
	SideEffects []SideEffect `json:"side_effects,omitempty"`
}

// CancelBooking cancels a requested or confirmed booking on behalf of its
// student, its coach, or an admin. The cancellation is persisted before the
// refund is attempted, and a refund failure never blocks it: a stale
// confirmed booking is worse than a pending manual refund.
func (s *BookingService) CancelBooking(bookingID, callerID uuid.UUID, role, reason string) (*CancelResult, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !bookingParty(booking, callerID, role) {
		return nil, ErrNotBookingParty
	}
	if !booking.Status.CanTransitionTo(models.BookingCancelled) {
		return nil, ErrTerminalState
	}

	cancelledAt := s.now()
	booking.Status = models.BookingCancelled
	booking.CancelReason = &reason
	booking.CancelledBy = &role
	booking.CancelledAt = &cancelledAt
	if err := s.bookingRepo.Save(booking); err != nil {
		return nil, err
	}

	result := &CancelResult{Booking: booking}

	outcome, refundErr := s.refunds.IssueForCancellation(booking, cancelledAt)
	switch {
	case refundErr != nil:
		result.RefundError = refundErr.Error()
	case outcome.RefundRef != "":
		result.Refund = outcome
		// Second write carries the refund reference; if it fails the money
		// has already moved, so keep the cancellation and flag the refund
		// bookkeeping for operator follow-up.
		if err := s.bookingRepo.Save(booking); err != nil {
			result.RefundError = err.Error()
		}
	default:
		result.Refund = outcome
	}

	if s.scheduler != nil && booking.SchedulingRef != nil {
		err := s.scheduler.CancelBooking(*booking.SchedulingRef, reason)
		result.SideEffects = append(result.SideEffects, sideEffect("scheduling provider cancel", err))
	}
	if s.calendar != nil {
		err := s.calendar.DeleteEvent(booking.ID.String())
		result.SideEffects = append(result.SideEffects, sideEffect("calendar delete", err))
	}

	if student, err := s.userRepo.GetByID(booking.StudentID); err == nil {
		go notifications.SendEmail(student.FullName, student.Email, "Your booking was cancelled",
			"<h1>Booking Cancelled</h1><p>Your session has been cancelled. Any applicable refund is on its way.</p>")
	}

	return result, nil
}

// SubmitReview records a student review for a completed booking and refreshes
// the coach's average rating (a risk-engine input).
func (s *BookingService) SubmitReview(bookingID, studentID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidInput
	}

	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.StudentID != studentID {
		return nil, ErrInvalidInput
	}
	if booking.Status != models.BookingCompleted {
		return nil, ErrInvalidInput
	}

	review := &models.Review{
		BookingID: booking.ID,
		StudentID: studentID,
		CoachID:   booking.CoachID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}
	if err := s.ratings.UpdateRating(booking.CoachID); err != nil {
		return nil, err
	}
	return review, nil
}
