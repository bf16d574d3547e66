package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mwangi2684/coachmarket/handlers"
	"github.com/mwangi2684/coachmarket/middleware"
)

func BookingRoutes(app *fiber.App, h *handlers.BookingHandler) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", h.GetMyBookings)
	booking.Post("", h.CreateBooking)
	booking.Post("/:bookingId/cancel", h.CancelBooking)
	booking.Post("/:bookingId/reschedule", h.RescheduleBooking)
	booking.Post("/:bookingId/review", h.CreateReview)

	coachBooking := api.Group("/coach/bookings", middleware.Protected(), middleware.CoachRequired())
	coachBooking.Get("/me", h.GetMyCoachBookings)
	coachBooking.Post("/:bookingId/complete", h.CompleteBooking)
}
