package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mwangi2684/coachmarket/handlers"
	"github.com/mwangi2684/coachmarket/middleware"
)

func AdminRoutes(app *fiber.App, h *handlers.AdminHandler) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Post("/payouts/run", h.RunPayouts)
	admin.Get("/coaches/:coachId/payouts", h.GetCoachPayouts)
	admin.Get("/coaches/:coachId/risk", h.GetCoachRiskScore)
	admin.Post("/purchases/:purchaseId/refund", h.RefundCoursePurchase)
	admin.Patch("/coaches/:coachId/status", handlers.UpdateCoachStatus)
}
