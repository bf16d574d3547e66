package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mwangi2684/coachmarket/repository"
	"github.com/mwangi2684/coachmarket/services"
)

type AdminHandler struct {
	payouts    *services.PayoutService
	risk       *services.RiskService
	refunds    *services.RefundService
	payoutRepo *repository.PayoutRepository
}

func NewAdminHandler(
	payouts *services.PayoutService,
	risk *services.RiskService,
	refunds *services.RefundService,
	payoutRepo *repository.PayoutRepository,
) *AdminHandler {
	return &AdminHandler{
		payouts:    payouts,
		risk:       risk,
		refunds:    refunds,
		payoutRepo: payoutRepo,
	}
}

// RunPayouts triggers the weekly settlement sweep on demand. The cron job
// calls the same service method, so a manual run after a partial failure is
// safe: already-settled coaches come back as no-ops.
func (h *AdminHandler) RunPayouts(c *fiber.Ctx) error {
	result, err := h.payouts.RunWeeklyPayout()
	if err != nil {
		return serviceError(c, err)
	}
	log.Printf("💰 Manual payout run: %d paid, %d failed", result.PaidCount, result.FailedCount)
	return c.JSON(result)
}

func (h *AdminHandler) GetCoachPayouts(c *fiber.Ctx) error {
	coachID, err := uuid.Parse(c.Params("coachId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	payouts, err := h.payoutRepo.ListByCoach(coachID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"payouts": payouts})
}

func (h *AdminHandler) GetCoachRiskScore(c *fiber.Ctx) error {
	coachID, err := uuid.Parse(c.Params("coachId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	score, err := h.risk.ComputeCoachRiskScore(coachID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(score)
}

type CourseRefundRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *AdminHandler) RefundCoursePurchase(c *fiber.Ctx) error {
	purchaseID, err := uuid.Parse(c.Params("purchaseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase id"})
	}

	var req CourseRefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	outcome, err := h.refunds.RefundCoursePurchase(purchaseID, req.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(outcome)
}
