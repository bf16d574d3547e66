package jobs

import (
	"log"
	"time"

	"github.com/mwangi2684/coachmarket/database"
	"github.com/mwangi2684/coachmarket/models"
)

// CompletePastBookings sweeps confirmed bookings whose session ended more
// than an hour ago into completed. Coaches can still complete sooner by hand;
// this is the backstop so earnings don't get stuck behind a forgotten click.
func CompletePastBookings() {
	log.Println("Running job: CompletePastBookings...")

	cutoff := time.Now().UTC().Add(-1 * time.Hour)

	var dueBookings []models.Booking
	err := database.DB.
		Where("status = ? AND scheduled_end < ?", models.BookingConfirmed, cutoff).
		Find(&dueBookings).Error
	if err != nil {
		log.Printf("Error checking for past bookings: %v", err)
		return
	}

	if len(dueBookings) == 0 {
		return
	}

	completed := 0
	for _, booking := range dueBookings {
		if !booking.Status.CanTransitionTo(models.BookingCompleted) {
			continue
		}
		booking.Status = models.BookingCompleted
		if err := database.DB.Save(&booking).Error; err != nil {
			log.Printf("Error completing booking %s: %v", booking.ID, err)
			continue
		}
		completed++
	}

	log.Printf("Marked %d booking(s) as completed.", completed)
}
