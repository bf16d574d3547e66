package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mwangi2684/coachmarket/handlers"
	"github.com/mwangi2684/coachmarket/middleware"
)

func PaymentRoutes(app *fiber.App, h *handlers.PaymentHandler) {
	api := app.Group("/api/v1")

	// Webhook endpoint is unauthenticated: processor callbacks carry no user
	// session, and unmatched events are acknowledged and dropped.
	api.Post("/payments/stripe/webhook", h.HandleStripeWebhook)

	api.Post("/courses/:courseId/purchase", middleware.Protected(), h.PurchaseCourse)
}
