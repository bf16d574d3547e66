package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/mwangi2684/coachmarket/database"
	"github.com/mwangi2684/coachmarket/models"
	"github.com/mwangi2684/coachmarket/notifications"
)

// SendSessionReminders emails both sides of every confirmed booking starting
// in roughly an hour. The window matches the job cadence so each booking is
// picked up once.
func SendSessionReminders() {
	log.Println("Running job: SendSessionReminders...")

	now := time.Now().UTC()
	lowerBound := now.Add(60 * time.Minute)
	upperBound := now.Add(65 * time.Minute)

	var upcomingBookings []models.Booking
	err := database.DB.
		Where("status = ? AND scheduled_start BETWEEN ? AND ?", models.BookingConfirmed, lowerBound, upperBound).
		Find(&upcomingBookings).Error
	if err != nil {
		log.Printf("Error checking for upcoming sessions: %v", err)
		return
	}

	if len(upcomingBookings) == 0 {
		return
	}

	for _, booking := range upcomingBookings {
		var student, coachUser models.User
		if err := database.DB.First(&student, "id = ?", booking.StudentID).Error; err != nil {
			continue
		}
		if err := database.DB.First(&coachUser, "id = ?", booking.CoachID).Error; err != nil {
			continue
		}

		log.Printf("Sending reminder for booking ID: %s", booking.ID)

		subject := "Reminder: Your Session Starts in 1 Hour!"
		body := fmt.Sprintf(
			"<h1>Session Reminder</h1><p>Hi there,</p><p>This is a friendly reminder that your session is scheduled to start in one hour at %s UTC.</p>",
			booking.ScheduledStart.Format(time.Kitchen),
		)

		go notifications.SendEmail(student.FullName, student.Email, subject, body)
		go notifications.SendEmail(coachUser.FullName, coachUser.Email, subject, body)
	}
}
