package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
	"github.com/mwangi2684/coachmarket/money"
)

type courseReader interface {
	GetByID(id uuid.UUID) (*models.Course, error)
}

type coursePurchaseLedger interface {
	Create(purchase *models.Purchase) error
	GetByPaymentRef(paymentRef string) (*models.Purchase, error)
}

// CourseService handles one-off course purchases: same checkout, fee split
// and pending-payout crediting as sessions, minus any booking lifecycle.
type CourseService struct {
	courseRepo   courseReader
	coachRepo    coachStore
	purchaseRepo coursePurchaseLedger
	pendingRepo  pendingCrediter
	processor    PaymentProcessor
}

func NewCourseService(
	courseRepo courseReader,
	coachRepo coachStore,
	purchaseRepo coursePurchaseLedger,
	pendingRepo pendingCrediter,
	processor PaymentProcessor,
) *CourseService {
	return &CourseService{
		courseRepo:   courseRepo,
		coachRepo:    coachRepo,
		purchaseRepo: purchaseRepo,
		pendingRepo:  pendingRepo,
		processor:    processor,
	}
}

type CourseCheckoutResult struct {
	CheckoutURL string `json:"checkout_url"`
	CheckoutRef string `json:"checkout_ref"`
}

func (s *CourseService) PurchaseCourse(userID, courseID uuid.UUID) (*CourseCheckoutResult, error) {
	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !course.IsPublished {
		return nil, ErrCourseNotFound
	}

	coach, err := s.coachRepo.GetByUserID(course.CoachID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	destination := ""
	if coach.StripeAccountID != nil {
		destination = *coach.StripeAccountID
	}

	session, err := s.processor.CreateCheckout(course.PriceCents, course.Currency, destination, map[string]string{
		"course_id": course.ID.String(),
		"user_id":   userID.String(),
	})
	if err != nil {
		return nil, &ExternalServiceError{Service: "payment processor", Err: err}
	}

	return &CourseCheckoutResult{CheckoutURL: session.URL, CheckoutRef: session.ID}, nil
}

// ConfirmCoursePurchase is the webhook target for course checkouts.
// Idempotent by payment reference.
func (s *CourseService) ConfirmCoursePurchase(userID, courseID uuid.UUID, paymentRef string) (*models.Purchase, error) {
	existing, err := s.purchaseRepo.GetByPaymentRef(paymentRef)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	fee := money.PlatformFee(course.PriceCents)
	purchase := &models.Purchase{
		UserID:             userID,
		CoachID:            course.CoachID,
		Type:               models.PurchaseTypeCourse,
		CourseID:           &course.ID,
		AmountCents:        course.PriceCents,
		PlatformFeeCents:   fee,
		CoachEarningsCents: money.CoachEarnings(course.PriceCents, fee),
		Currency:           course.Currency,
		PaymentRef:         paymentRef,
		Status:             models.PurchaseStatusPaid,
	}
	if err := s.purchaseRepo.Create(purchase); err != nil {
		return nil, err
	}
	if err := s.pendingRepo.Credit(course.CoachID, purchase.ID, purchase.CoachEarningsCents); err != nil {
		return nil, err
	}
	return purchase, nil
}
