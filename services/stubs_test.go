package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
	"github.com/mwangi2684/coachmarket/payments"
)

// In-memory fakes shared by the service tests. They keep the same
// idempotency semantics as the real repositories so the webhook and payout
// convergence tests exercise the behavior end to end.

type stubBookingStore struct {
	bookings map[uuid.UUID]*models.Booking
	intros   int64
	saves    int

	// When saveErr is set, Save fails from the failFrom-th call onward
	// (every call when failFrom is zero).
	saveErr  error
	failFrom int
}

func newStubBookingStore() *stubBookingStore {
	return &stubBookingStore{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (s *stubBookingStore) GetByID(id uuid.UUID) (*models.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *booking
	return &copied, nil
}

func (s *stubBookingStore) Save(booking *models.Booking) error {
	s.saves++
	if s.saveErr != nil && s.saves >= s.failFrom {
		return s.saveErr
	}
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func (s *stubBookingStore) others(coachID uuid.UUID, exclude *uuid.UUID) []models.Booking {
	var out []models.Booking
	for _, b := range s.bookings {
		if b.CoachID != coachID {
			continue
		}
		if exclude != nil && b.ID == *exclude {
			continue
		}
		if b.Status == models.BookingCancelled {
			continue
		}
		out = append(out, *b)
	}
	return out
}

func (s *stubBookingStore) CreateSerialized(booking *models.Booking, validate func(existing []models.Booking) error) error {
	if err := validate(s.others(booking.CoachID, nil)); err != nil {
		return err
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func (s *stubBookingStore) UpdateSerialized(booking *models.Booking, validate func(existing []models.Booking) error) error {
	if err := validate(s.others(booking.CoachID, &booking.ID)); err != nil {
		return err
	}
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func (s *stubBookingStore) CountRecentFreeIntros(uuid.UUID, uuid.UUID, time.Time) (int64, error) {
	return s.intros, nil
}

type stubCoachStore struct {
	coaches   map[uuid.UUID]*models.Coach
	offerings map[uuid.UUID]*models.Offering
	rated     []uuid.UUID
}

func newStubCoachStore() *stubCoachStore {
	return &stubCoachStore{
		coaches:   make(map[uuid.UUID]*models.Coach),
		offerings: make(map[uuid.UUID]*models.Offering),
	}
}

func (s *stubCoachStore) GetByUserID(userID uuid.UUID) (*models.Coach, error) {
	coach, ok := s.coaches[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return coach, nil
}

func (s *stubCoachStore) GetOffering(offeringID uuid.UUID) (*models.Offering, error) {
	offering, ok := s.offerings[offeringID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return offering, nil
}

func (s *stubCoachStore) UpdateRating(coachID uuid.UUID) error {
	s.rated = append(s.rated, coachID)
	return nil
}

type stubUserReader struct {
	users map[uuid.UUID]*models.User
}

func newStubUserReader() *stubUserReader {
	return &stubUserReader{users: make(map[uuid.UUID]*models.User)}
}

func (s *stubUserReader) GetByID(id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type stubPurchaseStore struct {
	purchases map[uuid.UUID]*models.Purchase
	creates   int
}

func newStubPurchaseStore() *stubPurchaseStore {
	return &stubPurchaseStore{purchases: make(map[uuid.UUID]*models.Purchase)}
}

func (s *stubPurchaseStore) Create(purchase *models.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	s.creates++
	copied := *purchase
	s.purchases[purchase.ID] = &copied
	return nil
}

func (s *stubPurchaseStore) Save(purchase *models.Purchase) error {
	copied := *purchase
	s.purchases[purchase.ID] = &copied
	return nil
}

func (s *stubPurchaseStore) GetByID(id uuid.UUID) (*models.Purchase, error) {
	purchase, ok := s.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *purchase
	return &copied, nil
}

func (s *stubPurchaseStore) GetByBookingID(bookingID uuid.UUID) (*models.Purchase, error) {
	for _, p := range s.purchases {
		if p.BookingID != nil && *p.BookingID == bookingID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPurchaseStore) GetByPaymentRef(paymentRef string) (*models.Purchase, error) {
	for _, p := range s.purchases {
		if p.PaymentRef == paymentRef {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPurchaseStore) ListByCoach(coachID uuid.UUID) ([]models.Purchase, error) {
	var out []models.Purchase
	for _, p := range s.purchases {
		if p.CoachID == coachID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// stubPendingLedger mirrors the real pending-payout repository: one balance
// per coach, credited at most once per purchase, debits clamped at zero.
type stubPendingLedger struct {
	balances map[uuid.UUID]int64
	credited map[uuid.UUID]bool
}

func newStubPendingLedger() *stubPendingLedger {
	return &stubPendingLedger{
		balances: make(map[uuid.UUID]int64),
		credited: make(map[uuid.UUID]bool),
	}
}

func (s *stubPendingLedger) Credit(coachID, purchaseID uuid.UUID, earningsCents int64) error {
	if s.credited[purchaseID] {
		return nil
	}
	s.credited[purchaseID] = true
	s.balances[coachID] += earningsCents
	return nil
}

func (s *stubPendingLedger) Debit(coachID, purchaseID uuid.UUID, cents int64) error {
	balance := s.balances[coachID] - cents
	if balance < 0 {
		balance = 0
	}
	s.balances[coachID] = balance
	return nil
}

func (s *stubPendingLedger) Get(coachID uuid.UUID) (*models.PendingPayout, error) {
	balance, ok := s.balances[coachID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.PendingPayout{CoachID: coachID, AmountCents: balance}, nil
}

type stubReviewWriter struct {
	reviews []models.Review
}

func (s *stubReviewWriter) Create(review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	s.reviews = append(s.reviews, *review)
	return nil
}

// stubProcessor records every call; individual operations can be failed.
type stubProcessor struct {
	checkoutErr error
	refundErr   error
	transferErr error

	checkouts []int64
	refunds   []int64
	transfers []int64

	transferKeys []string
	account      *payments.Account
}

func (s *stubProcessor) CreateCheckout(amountCents int64, currency, destination string, metadata map[string]string) (*payments.CheckoutSession, error) {
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	s.checkouts = append(s.checkouts, amountCents)
	return &payments.CheckoutSession{ID: "cs_test", URL: "https://checkout.test/cs_test"}, nil
}

func (s *stubProcessor) RetrievePaymentIntent(ref string) (*payments.PaymentIntent, error) {
	return &payments.PaymentIntent{ID: ref, Status: "succeeded"}, nil
}

func (s *stubProcessor) CreateRefund(chargeID string, amountCents int64, reason string, metadata map[string]string) (*payments.Refund, error) {
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	s.refunds = append(s.refunds, amountCents)
	return &payments.Refund{ID: "re_test", Amount: amountCents, Status: "succeeded"}, nil
}

func (s *stubProcessor) CreateTransfer(amountCents int64, currency, destination string, metadata map[string]string, idempotencyKey string) (*payments.Transfer, error) {
	if s.transferErr != nil {
		return nil, s.transferErr
	}
	s.transfers = append(s.transfers, amountCents)
	s.transferKeys = append(s.transferKeys, idempotencyKey)
	return &payments.Transfer{ID: "tr_test"}, nil
}

func (s *stubProcessor) RetrieveAccount(accountID string) (*payments.Account, error) {
	if s.account != nil {
		return s.account, nil
	}
	return &payments.Account{ID: accountID, ChargesEnabled: true, PayoutsEnabled: true, DetailsSubmitted: true}, nil
}

var errStubDown = errors.New("stubbed outage")
