package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
)

type stubCourseReader struct {
	courses map[uuid.UUID]*models.Course
}

func (s *stubCourseReader) GetByID(id uuid.UUID) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return course, nil
}

type courseFixture struct {
	service   *CourseService
	courses   *stubCourseReader
	coaches   *stubCoachStore
	purchases *stubPurchaseStore
	pending   *stubPendingLedger
	processor *stubProcessor
	coachID   uuid.UUID
	courseID  uuid.UUID
}

func newCourseFixture() *courseFixture {
	f := &courseFixture{
		courses:   &stubCourseReader{courses: make(map[uuid.UUID]*models.Course)},
		coaches:   newStubCoachStore(),
		purchases: newStubPurchaseStore(),
		pending:   newStubPendingLedger(),
		processor: &stubProcessor{},
		coachID:   uuid.New(),
		courseID:  uuid.New(),
	}

	account := "acct_course_coach"
	f.coaches.coaches[f.coachID] = &models.Coach{
		UserID:          f.coachID,
		Status:          models.CoachStatusActive,
		StripeAccountID: &account,
	}
	f.courses.courses[f.courseID] = &models.Course{
		ID:          f.courseID,
		CoachID:     f.coachID,
		Title:       "Strength fundamentals",
		PriceCents:  8000,
		Currency:    "USD",
		IsPublished: true,
	}

	f.service = NewCourseService(f.courses, f.coaches, f.purchases, f.pending, f.processor)
	return f
}

func TestPurchaseCourseOpensCheckout(t *testing.T) {
	f := newCourseFixture()

	result, err := f.service.PurchaseCourse(uuid.New(), f.courseID)
	if err != nil {
		t.Fatalf("PurchaseCourse: %v", err)
	}
	if result.CheckoutURL == "" || result.CheckoutRef == "" {
		t.Fatalf("expected checkout session, got %+v", result)
	}
	if len(f.processor.checkouts) != 1 || f.processor.checkouts[0] != 8000 {
		t.Fatalf("checkout amounts = %v", f.processor.checkouts)
	}
}

func TestPurchaseCourseRejectsUnpublished(t *testing.T) {
	f := newCourseFixture()
	f.courses.courses[f.courseID].IsPublished = false

	if _, err := f.service.PurchaseCourse(uuid.New(), f.courseID); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestConfirmCoursePurchaseSplitsAndIsIdempotent(t *testing.T) {
	f := newCourseFixture()
	userID := uuid.New()

	purchase, err := f.service.ConfirmCoursePurchase(userID, f.courseID, "pi_course_1")
	if err != nil {
		t.Fatalf("ConfirmCoursePurchase: %v", err)
	}
	if purchase.AmountCents != 8000 || purchase.PlatformFeeCents != 1600 || purchase.CoachEarningsCents != 6400 {
		t.Fatalf("unexpected split: %+v", purchase)
	}
	if got := f.pending.balances[f.coachID]; got != 6400 {
		t.Fatalf("pending balance = %d, want 6400", got)
	}

	again, err := f.service.ConfirmCoursePurchase(userID, f.courseID, "pi_course_1")
	if err != nil {
		t.Fatalf("redelivered ConfirmCoursePurchase: %v", err)
	}
	if again.ID != purchase.ID {
		t.Fatalf("redelivery created a second purchase")
	}
	if f.purchases.creates != 1 {
		t.Fatalf("purchase created %d times", f.purchases.creates)
	}
	if got := f.pending.balances[f.coachID]; got != 6400 {
		t.Fatalf("pending balance after redelivery = %d, want 6400", got)
	}
}
