package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
	"github.com/mwangi2684/coachmarket/repository"
	"github.com/mwangi2684/coachmarket/services"
)

type PaymentHandler struct {
	bookings     *services.BookingService
	courses      *services.CourseService
	purchaseRepo *repository.PurchaseRepository
	disputeRepo  *repository.DisputeRepository
}

func NewPaymentHandler(
	bookings *services.BookingService,
	courses *services.CourseService,
	purchaseRepo *repository.PurchaseRepository,
	disputeRepo *repository.DisputeRepository,
) *PaymentHandler {
	return &PaymentHandler{
		bookings:     bookings,
		courses:      courses,
		purchaseRepo: purchaseRepo,
		disputeRepo:  disputeRepo,
	}
}

type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentIntent string            `json:"payment_intent"`
			Charge        string            `json:"charge"`
			Amount        int64             `json:"amount"`
			Reason        string            `json:"reason"`
			Status        string            `json:"status"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// HandleStripeWebhook consumes checkout completions and dispute events.
// Delivery is at-least-once, so every branch must be idempotent; a 200
// acknowledges the event even when it matched nothing we track.
func (h *PaymentHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	var event stripeEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	switch event.Type {
	case "checkout.session.completed":
		return h.handleCheckoutCompleted(c, event)
	case "charge.dispute.created":
		return h.handleDisputeCreated(c, event)
	default:
		return c.JSON(fiber.Map{"received": true})
	}
}

func (h *PaymentHandler) handleCheckoutCompleted(c *fiber.Ctx, event stripeEvent) error {
	object := event.Data.Object
	paymentRef := object.PaymentIntent
	if paymentRef == "" {
		paymentRef = object.ID
	}

	if bookingIDStr, ok := object.Metadata["booking_id"]; ok {
		bookingID, err := uuid.Parse(bookingIDStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id in metadata"})
		}
		result, err := h.bookings.ConfirmBooking(bookingID, paymentRef)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	}

	if courseIDStr, ok := object.Metadata["course_id"]; ok {
		courseID, err := uuid.Parse(courseIDStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course id in metadata"})
		}
		userID, err := uuid.Parse(object.Metadata["user_id"])
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id in metadata"})
		}
		purchase, err := h.courses.ConfirmCoursePurchase(userID, courseID, paymentRef)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"purchase": purchase})
	}

	log.Printf("checkout.session.completed %s carried no known metadata", object.ID)
	return c.JSON(fiber.Map{"received": true})
}

func (h *PaymentHandler) handleDisputeCreated(c *fiber.Ctx, event stripeEvent) error {
	object := event.Data.Object

	dispute := models.Dispute{
		ExternalID:  object.ID,
		AmountCents: object.Amount,
		Reason:      object.Reason,
		Status:      "open",
	}

	chargeRef := object.PaymentIntent
	if chargeRef == "" {
		chargeRef = object.Charge
	}
	purchase, err := h.purchaseRepo.GetByPaymentRef(chargeRef)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return serviceError(c, err)
	}
	if purchase == nil {
		// Dispute on a charge we don't track; acknowledge so the processor
		// stops redelivering.
		log.Printf("dispute %s references unknown charge %s", object.ID, chargeRef)
		return c.JSON(fiber.Map{"received": true})
	}
	dispute.CoachID = purchase.CoachID
	dispute.PurchaseID = &purchase.ID

	if err := h.disputeRepo.Record(&dispute); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"received": true})
}

func (h *PaymentHandler) PurchaseCourse(c *fiber.Ctx) error {
	userID, _ := callerID(c)
	courseID, err := uuid.Parse(c.Params("courseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course id"})
	}

	result, err := h.courses.PurchaseCourse(userID, courseID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
