package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mwangi2684/coachmarket/models"
)

type DisputeRepository struct {
	db *gorm.DB
}

func NewDisputeRepository(db *gorm.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Record upserts by external id; dispute webhooks arrive at least once.
func (r *DisputeRepository) Record(dispute *models.Dispute) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(dispute).Error
}

func (r *DisputeRepository) ListByCoach(coachID uuid.UUID) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.Where("coach_id = ?", coachID).Find(&disputes).Error
	return disputes, err
}
