package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/database"
	"github.com/mwangi2684/coachmarket/models"
)

type BecomeCoachRequest struct {
	Headline *string `json:"headline" validate:"omitempty,max=255"`
	Bio      *string `json:"bio" validate:"omitempty,max=5000"`
}

// BecomeCoach creates a coach profile for the caller and flips their role.
// Re-submitting is a conflict; coach rows are never recreated.
func BecomeCoach(c *fiber.Ctx) error {
	userID, _ := callerID(c)

	var req BecomeCoachRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	coach := models.Coach{
		UserID:   userID,
		Headline: req.Headline,
		Bio:      req.Bio,
		Status:   models.CoachStatusActive,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&coach).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("role", "coach").Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Coach profile already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create coach profile"})
	}

	return c.Status(fiber.StatusCreated).JSON(coach)
}

func ListCoaches(c *fiber.Ctx) error {
	var coaches []models.Coach
	err := database.DB.Preload("User").
		Where("status = ?", models.CoachStatusActive).
		Order("avg_rating DESC").
		Find(&coaches).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch coaches"})
	}
	return c.JSON(fiber.Map{"coaches": coaches})
}

func GetCoachProfile(c *fiber.Ctx) error {
	coachID, err := uuid.Parse(c.Params("coachId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	var coach models.Coach
	if err := database.DB.Preload("User").First(&coach, "user_id = ?", coachID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach not found"})
	}

	var offerings []models.Offering
	if err := database.DB.Where("coach_id = ?", coachID).Find(&offerings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch offerings"})
	}

	var courses []models.Course
	if err := database.DB.Where("coach_id = ? AND is_published = ?", coachID, true).Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch courses"})
	}

	var reviews []models.Review
	if err := database.DB.Where("coach_id = ?", coachID).Order("created_at DESC").Limit(20).Find(&reviews).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch reviews"})
	}

	return c.JSON(fiber.Map{
		"coach":     coach,
		"offerings": offerings,
		"courses":   courses,
		"reviews":   reviews,
	})
}

type OfferingRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	SessionMinutes int    `json:"session_minutes" validate:"required,min=15,max=240"`
	PriceCents     int64  `json:"price_cents" validate:"required,min=0"`
	Currency       string `json:"currency" validate:"omitempty,len=3"`
}

func CreateOffering(c *fiber.Ctx) error {
	coachID, _ := callerID(c)

	var req OfferingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	offering := models.Offering{
		CoachID:        coachID,
		Name:           req.Name,
		SessionMinutes: req.SessionMinutes,
		PriceCents:     req.PriceCents,
		Currency:       currency,
	}
	if err := database.DB.Create(&offering).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create offering"})
	}
	return c.Status(fiber.StatusCreated).JSON(offering)
}

type CoachStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active flagged rejected"`
}

// UpdateCoachStatus is the admin compliance lever. Flagged and rejected
// coaches stay bookable history-wise but drop out of payouts and raise
// their risk score.
func UpdateCoachStatus(c *fiber.Ctx) error {
	coachID, err := uuid.Parse(c.Params("coachId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	var req CoachStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result := database.DB.Model(&models.Coach{}).Where("user_id = ?", coachID).Update("status", req.Status)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update coach status"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach not found"})
	}
	return c.JSON(fiber.Map{"message": "Coach status updated", "status": req.Status})
}
