package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
)

type CoachRepository struct {
	db *gorm.DB
}

func NewCoachRepository(db *gorm.DB) *CoachRepository {
	return &CoachRepository{db: db}
}

func (r *CoachRepository) GetByUserID(userID uuid.UUID) (*models.Coach, error) {
	var coach models.Coach
	if err := r.db.Preload("User").First(&coach, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &coach, nil
}

func (r *CoachRepository) Save(coach *models.Coach) error {
	return r.db.Save(coach).Error
}

// ListPayoutCandidates returns coaches whose pending balance meets the
// minimum threshold. Account health is re-checked live by the payout engine;
// this query only narrows the candidate set.
func (r *CoachRepository) ListPayoutCandidates(minCents int64) ([]models.Coach, error) {
	var coaches []models.Coach
	err := r.db.
		Joins("JOIN pending_payouts ON pending_payouts.coach_id = coaches.user_id").
		Where("pending_payouts.amount_cents >= ?", minCents).
		Find(&coaches).Error
	return coaches, err
}

// UpdateRating recomputes the coach's average rating from reviews.
func (r *CoachRepository) UpdateRating(coachID uuid.UUID) error {
	var result struct {
		Avg   float32
		Count int
	}
	if err := r.db.Model(&models.Review{}).
		Where("coach_id = ?", coachID).
		Select("COALESCE(avg(rating), 0) as avg, count(*) as count").
		Scan(&result).Error; err != nil {
		return err
	}
	return r.db.Model(&models.Coach{}).
		Where("user_id = ?", coachID).
		Updates(map[string]interface{}{
			"avg_rating":   result.Avg,
			"rating_count": result.Count,
		}).Error
}

func (r *CoachRepository) GetOffering(offeringID uuid.UUID) (*models.Offering, error) {
	var offering models.Offering
	if err := r.db.First(&offering, "id = ?", offeringID).Error; err != nil {
		return nil, err
	}
	return &offering, nil
}
