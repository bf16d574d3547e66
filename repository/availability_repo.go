package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
)

type AvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) WeeklyByCoach(coachID uuid.UUID) ([]models.WeeklyAvailability, error) {
	var weekly []models.WeeklyAvailability
	err := r.db.Where("coach_id = ?", coachID).
		Order("day_of_week asc, start_time asc").
		Find(&weekly).Error
	return weekly, err
}

func (r *AvailabilityRepository) OverridesByCoach(coachID uuid.UUID) ([]models.DateOverride, error) {
	var overrides []models.DateOverride
	err := r.db.Where("coach_id = ?", coachID).Find(&overrides).Error
	return overrides, err
}

func (r *AvailabilityRepository) CreateWeekly(slot *models.WeeklyAvailability) error {
	return r.db.Create(slot).Error
}

func (r *AvailabilityRepository) CreateOverride(override *models.DateOverride) error {
	return r.db.Create(override).Error
}

func (r *AvailabilityRepository) DeleteWeekly(coachID, id uuid.UUID) error {
	return r.db.Where("coach_id = ? AND id = ?", coachID, id).
		Delete(&models.WeeklyAvailability{}).Error
}
