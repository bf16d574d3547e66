package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mwangi2684/coachmarket/models"
	"github.com/mwangi2684/coachmarket/services"
)

type bookingLister interface {
	ListByStudent(studentID uuid.UUID) ([]models.Booking, error)
	ListByCoach(coachID uuid.UUID) ([]models.Booking, error)
}

type BookingHandler struct {
	bookings    *services.BookingService
	bookingRepo bookingLister
}

func NewBookingHandler(bookings *services.BookingService, bookingRepo bookingLister) *BookingHandler {
	return &BookingHandler{bookings: bookings, bookingRepo: bookingRepo}
}

type CreateBookingRequest struct {
	CoachID       string `json:"coach_id" validate:"required,uuid"`
	OfferingID    string `json:"offering_id" validate:"omitempty,uuid"`
	Type          string `json:"type" validate:"required,oneof=free_intro paid"`
	StartTime     string `json:"start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	BufferMinutes int    `json:"buffer_minutes" validate:"min=0,max=120"`
	TimeZone      string `json:"time_zone,omitempty"`
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	studentID, _ := callerID(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	coachID, _ := uuid.Parse(req.CoachID)
	start, _ := time.Parse(time.RFC3339, req.StartTime)

	input := services.CreateBookingInput{
		CoachID:       coachID,
		Type:          req.Type,
		Start:         start,
		BufferMinutes: req.BufferMinutes,
		TimeZone:      req.TimeZone,
	}
	if req.OfferingID != "" {
		offeringID, _ := uuid.Parse(req.OfferingID)
		input.OfferingID = &offeringID
	}

	result, err := h.bookings.CreateBooking(studentID, input)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	userID, role := callerID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req CancelBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.bookings.CancelBooking(bookingID, userID, role, req.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	// Refund failures ride along in the payload; the cancellation itself
	// succeeded.
	return c.JSON(result)
}

type RescheduleBookingRequest struct {
	NewStartTime string `json:"new_start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	OfferingID   string `json:"offering_id" validate:"omitempty,uuid"`
	Reason       string `json:"reason,omitempty"`
}

func (h *BookingHandler) RescheduleBooking(c *fiber.Ctx) error {
	userID, role := callerID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req RescheduleBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	newStart, _ := time.Parse(time.RFC3339, req.NewStartTime)
	input := services.RescheduleInput{NewStart: newStart, Reason: req.Reason}
	if req.OfferingID != "" {
		offeringID, _ := uuid.Parse(req.OfferingID)
		input.OfferingID = &offeringID
	}

	result, err := h.bookings.RescheduleBooking(bookingID, userID, role, input)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(result)
}

func (h *BookingHandler) CompleteBooking(c *fiber.Ctx) error {
	coachID, _ := callerID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := h.bookings.CompleteBooking(bookingID, coachID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Booking marked as complete", "booking": booking})
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (h *BookingHandler) CreateReview(c *fiber.Ctx) error {
	studentID, _ := callerID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	review, err := h.bookings.SubmitReview(bookingID, studentID, req.Rating, req.Comment)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *BookingHandler) GetMyBookings(c *fiber.Ctx) error {
	studentID, _ := callerID(c)
	bookings, err := h.bookingRepo.ListByStudent(studentID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(bookings)
}

func (h *BookingHandler) GetMyCoachBookings(c *fiber.Ctx) error {
	coachID, _ := callerID(c)
	bookings, err := h.bookingRepo.ListByCoach(coachID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(bookings)
}
