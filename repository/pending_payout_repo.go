package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mwangi2684/coachmarket/models"
)

type PendingPayoutRepository struct {
	db *gorm.DB
}

func NewPendingPayoutRepository(db *gorm.DB) *PendingPayoutRepository {
	return &PendingPayoutRepository{db: db}
}

func (r *PendingPayoutRepository) Get(coachID uuid.UUID) (*models.PendingPayout, error) {
	var pending models.PendingPayout
	err := r.db.Preload("Items").First(&pending, "coach_id = ?", coachID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.PendingPayout{CoachID: coachID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

// Credit adds a purchase's earnings share to the coach's pending balance.
// Idempotent per purchase: the unique item row is inserted first, and the
// balance moves only when the insert actually landed, so an at-least-once
// webhook cannot double-credit. The row lock serializes against concurrent
// refunds and payout runs for the same coach.
func (r *PendingPayoutRepository) Credit(coachID, purchaseID uuid.UUID, earningsCents int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		pending := models.PendingPayout{CoachID: coachID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pending).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&pending, "coach_id = ?", coachID).Error; err != nil {
			return err
		}

		item := models.PendingPayoutItem{
			CoachID:        coachID,
			PurchaseID:     purchaseID,
			RemainingCents: earningsCents,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&item)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		return tx.Model(&models.PendingPayout{}).
			Where("coach_id = ?", coachID).
			Update("amount_cents", gorm.Expr("amount_cents + ?", earningsCents)).Error
	})
}

// Debit subtracts a refund's earnings share, clamped at zero on both the
// running balance and the per-purchase remainder. The purchase's item row is
// removed only once its remaining unsettled amount reaches zero.
func (r *PendingPayoutRepository) Debit(coachID, purchaseID uuid.UUID, cents int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var pending models.PendingPayout
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&pending, "coach_id = ?", coachID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&models.PendingPayout{}).
			Where("coach_id = ?", coachID).
			Update("amount_cents", gorm.Expr("GREATEST(amount_cents - ?, 0)", cents)).Error; err != nil {
			return err
		}

		var item models.PendingPayoutItem
		err = tx.First(&item, "coach_id = ? AND purchase_id = ?", coachID, purchaseID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Already settled by a payout run; nothing left to reverse here.
			return nil
		}
		if err != nil {
			return err
		}

		item.RemainingCents -= cents
		if item.RemainingCents <= 0 {
			return tx.Delete(&item).Error
		}
		return tx.Save(&item).Error
	})
}
