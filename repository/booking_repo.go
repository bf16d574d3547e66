package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mwangi2684/coachmarket/models"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) Save(booking *models.Booking) error {
	return r.db.Save(booking).Error
}

// ListActiveByCoach returns every non-cancelled booking for the coach,
// optionally excluding one booking (used when re-validating a reschedule
// against everything but itself).
func (r *BookingRepository) ListActiveByCoach(coachID uuid.UUID, exclude *uuid.UUID) ([]models.Booking, error) {
	q := r.db.Where("coach_id = ? AND status <> ?", coachID, models.BookingCancelled)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	var bookings []models.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// CreateSerialized inserts a booking after running validate against the
// coach's current non-cancelled bookings, all inside one transaction that
// holds the coach row lock. Two concurrent requests for overlapping slots
// serialize here: the second reads the first's freshly committed booking and
// fails validation.
func (r *BookingRepository) CreateSerialized(booking *models.Booking, validate func(existing []models.Booking) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var coach models.Coach
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&coach, "user_id = ?", booking.CoachID).Error; err != nil {
			return err
		}

		var existing []models.Booking
		if err := tx.Where("coach_id = ? AND status <> ?", booking.CoachID, models.BookingCancelled).
			Find(&existing).Error; err != nil {
			return err
		}
		if err := validate(existing); err != nil {
			return err
		}

		return tx.Create(booking).Error
	})
}

// UpdateSerialized re-validates and saves an already-existing booking under
// the same coach lock discipline as CreateSerialized. The booking itself is
// excluded from the validation set.
func (r *BookingRepository) UpdateSerialized(booking *models.Booking, validate func(existing []models.Booking) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var coach models.Coach
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&coach, "user_id = ?", booking.CoachID).Error; err != nil {
			return err
		}

		var existing []models.Booking
		if err := tx.Where("coach_id = ? AND status <> ? AND id <> ?",
			booking.CoachID, models.BookingCancelled, booking.ID).
			Find(&existing).Error; err != nil {
			return err
		}
		if err := validate(existing); err != nil {
			return err
		}

		return tx.Save(booking).Error
	})
}

// CountRecentFreeIntros backs the one-free-intro-per-pair rate limit.
// Cancelled intros still count toward the window.
func (r *BookingRepository) CountRecentFreeIntros(studentID, coachID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).
		Where("student_id = ? AND coach_id = ? AND type = ? AND created_at >= ?",
			studentID, coachID, models.BookingTypeFreeIntro, since).
		Count(&count).Error
	return count, err
}

func (r *BookingRepository) ListByStudent(studentID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("student_id = ?", studentID).
		Order("scheduled_start desc").
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepository) ListByCoach(coachID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("coach_id = ?", coachID).
		Order("scheduled_start desc").
		Find(&bookings).Error
	return bookings, err
}

// ListDueForCompletion finds confirmed bookings whose scheduled end passed
// before the cutoff; the housekeeping job sweeps these into completed.
func (r *BookingRepository) ListDueForCompletion(cutoff time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("status = ? AND scheduled_end < ?", models.BookingConfirmed, cutoff).
		Find(&bookings).Error
	return bookings, err
}
