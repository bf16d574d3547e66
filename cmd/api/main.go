package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	"github.com/mwangi2684/coachmarket/database"
	"github.com/mwangi2684/coachmarket/handlers"
	"github.com/mwangi2684/coachmarket/integrations"
	"github.com/mwangi2684/coachmarket/jobs"
	"github.com/mwangi2684/coachmarket/notifications"
	"github.com/mwangi2684/coachmarket/payments"
	"github.com/mwangi2684/coachmarket/repository"
	"github.com/mwangi2684/coachmarket/routes"
	"github.com/mwangi2684/coachmarket/services"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()

	bookingRepo := repository.NewBookingRepository(database.DB)
	coachRepo := repository.NewCoachRepository(database.DB)
	userRepo := repository.NewUserRepository(database.DB)
	purchaseRepo := repository.NewPurchaseRepository(database.DB)
	pendingRepo := repository.NewPendingPayoutRepository(database.DB)
	payoutRepo := repository.NewPayoutRepository(database.DB)
	disputeRepo := repository.NewDisputeRepository(database.DB)
	reviewRepo := repository.NewReviewRepository(database.DB)
	courseRepo := repository.NewCourseRepository(database.DB)
	availabilityRepo := repository.NewAvailabilityRepository(database.DB)

	stripe := payments.NewStripeService()
	scheduling := integrations.NewSchedulingService()
	calendar := integrations.NewCalendarService()

	refundService := services.NewRefundService(purchaseRepo, pendingRepo, stripe)
	bookingService := services.NewBookingService(
		bookingRepo, coachRepo, userRepo, purchaseRepo, pendingRepo,
		refundService, reviewRepo, coachRepo, stripe, scheduling, calendar,
	)
	availabilityService := services.NewAvailabilityService(availabilityRepo, bookingRepo)
	payoutService := services.NewPayoutService(coachRepo, pendingRepo, payoutRepo, purchaseRepo, stripe)
	riskService := services.NewRiskService(coachRepo, purchaseRepo, disputeRepo)
	courseService := services.NewCourseService(courseRepo, coachRepo, purchaseRepo, pendingRepo, stripe)

	bookingHandler := handlers.NewBookingHandler(bookingService, bookingRepo)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService, availabilityRepo, userRepo)
	paymentHandler := handlers.NewPaymentHandler(bookingService, courseService, purchaseRepo, disputeRepo)
	adminHandler := handlers.NewAdminHandler(payoutService, riskService, refundService, payoutRepo)

	c := cron.New()
	c.AddFunc("*/5 * * * *", jobs.CompletePastBookings)
	c.AddFunc("*/5 * * * *", jobs.SendSessionReminders)
	c.AddFunc("0 2 * * MON", func() { jobs.RunWeeklyPayouts(payoutService) })
	go c.Start()
	log.Println("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "CoachMarket",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to CoachMarket API",
		})
	})

	routes.PublicRoutes(app)
	routes.AuthRoutes(app)
	routes.CoachRoutes(app)
	routes.AvailabilityRoutes(app, availabilityHandler)
	routes.BookingRoutes(app, bookingHandler)
	routes.PaymentRoutes(app, paymentHandler)
	routes.AdminRoutes(app, adminHandler)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
