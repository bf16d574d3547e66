package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mwangi2684/coachmarket/models"
	"github.com/mwangi2684/coachmarket/repository"
	"github.com/mwangi2684/coachmarket/services"
)

type AvailabilityHandler struct {
	availability     *services.AvailabilityService
	availabilityRepo *repository.AvailabilityRepository
	userRepo         *repository.UserRepository
}

func NewAvailabilityHandler(
	availability *services.AvailabilityService,
	availabilityRepo *repository.AvailabilityRepository,
	userRepo *repository.UserRepository,
) *AvailabilityHandler {
	return &AvailabilityHandler{
		availability:     availability,
		availabilityRepo: availabilityRepo,
		userRepo:         userRepo,
	}
}

// GetAvailableSlots returns bookable start times for one coach and date,
// in the coach's zone unless the viewer passes tz.
func (h *AvailabilityHandler) GetAvailableSlots(c *fiber.Ctx) error {
	coachID, err := uuid.Parse(c.Params("coachId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}
	duration := c.QueryInt("duration", 60)
	if duration <= 0 || duration > 480 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration must be between 1 and 480 minutes"})
	}
	buffer := c.QueryInt("buffer", 0)
	if buffer < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "buffer cannot be negative"})
	}

	coachTZ := "UTC"
	if user, err := h.userRepo.GetByID(coachID); err == nil && user.TimeZone != nil {
		coachTZ = *user.TimeZone
	}

	slots, err := h.availability.GetAvailableSlots(coachID, date, coachTZ, c.Query("tz"), duration, buffer)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"date": c.Query("date"), "slots": slots})
}

type WeeklyAvailabilityRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

func (h *AvailabilityHandler) CreateWeeklyAvailability(c *fiber.Ctx) error {
	coachID, _ := callerID(c)

	var req WeeklyAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.StartTime >= req.EndTime {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Start time must be before end time"})
	}

	slot := models.WeeklyAvailability{
		CoachID:   coachID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := h.availabilityRepo.CreateWeekly(&slot); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create availability"})
	}
	return c.Status(fiber.StatusCreated).JSON(slot)
}

type DateOverrideRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	IsAvailable bool   `json:"is_available"`
	StartTime   string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"omitempty,datetime=15:04"`
}

func (h *AvailabilityHandler) CreateDateOverride(c *fiber.Ctx) error {
	coachID, _ := callerID(c)

	var req DateOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.IsAvailable && (req.StartTime == "" || req.EndTime == "" || req.StartTime >= req.EndTime) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "An available override needs a valid time window"})
	}

	override := models.DateOverride{
		CoachID:     coachID,
		Date:        req.Date,
		IsAvailable: req.IsAvailable,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := h.availabilityRepo.CreateOverride(&override); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create override"})
	}
	return c.Status(fiber.StatusCreated).JSON(override)
}

func (h *AvailabilityHandler) GetMyAvailability(c *fiber.Ctx) error {
	coachID, _ := callerID(c)
	weekly, err := h.availabilityRepo.WeeklyByCoach(coachID)
	if err != nil {
		return serviceError(c, err)
	}
	overrides, err := h.availabilityRepo.OverridesByCoach(coachID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"weekly": weekly, "overrides": overrides})
}

func (h *AvailabilityHandler) DeleteWeeklyAvailability(c *fiber.Ctx) error {
	coachID, _ := callerID(c)
	slotID, err := uuid.Parse(c.Params("slotId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}
	if err := h.availabilityRepo.DeleteWeekly(coachID, slotID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete availability"})
	}
	return c.JSON(fiber.Map{"message": "Availability removed"})
}
