package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mwangi2684/coachmarket/handlers"
	"github.com/mwangi2684/coachmarket/middleware"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/coaches", handlers.ListCoaches)
	api.Get("/coaches/:coachId", handlers.GetCoachProfile)
	api.Get("/courses", handlers.ListCourses)
	api.Get("/courses/:courseId", handlers.GetCourse)
}

func CoachRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/coaches/become", middleware.Protected(), handlers.BecomeCoach)

	coach := api.Group("/coach", middleware.Protected(), middleware.CoachRequired())
	coach.Post("/offerings", handlers.CreateOffering)
	coach.Post("/courses", handlers.CreateCourse)
	coach.Post("/courses/:courseId/publish", handlers.PublishCourse)
}
