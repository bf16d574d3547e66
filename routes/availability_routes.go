package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mwangi2684/coachmarket/handlers"
	"github.com/mwangi2684/coachmarket/middleware"
)

func AvailabilityRoutes(app *fiber.App, h *handlers.AvailabilityHandler) {
	api := app.Group("/api/v1")

	// Slot discovery is public so prospective students can browse before
	// signing up.
	api.Get("/coaches/:coachId/slots", h.GetAvailableSlots)

	availability := api.Group("/coach/availability", middleware.Protected(), middleware.CoachRequired())
	availability.Get("/me", h.GetMyAvailability)
	availability.Post("/weekly", h.CreateWeeklyAvailability)
	availability.Delete("/weekly/:slotId", h.DeleteWeeklyAvailability)
	availability.Post("/overrides", h.CreateDateOverride)
}
