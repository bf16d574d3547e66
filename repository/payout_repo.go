package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mwangi2684/coachmarket/models"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// ExistsForPeriod reports whether the coach was already settled for the
// period; re-running a settled period must be a no-op, not a second transfer.
func (r *PayoutRepository) ExistsForPeriod(coachID uuid.UUID, periodStart, periodEnd time.Time) (bool, error) {
	var payout models.Payout
	err := r.db.First(&payout,
		"coach_id = ? AND period_start = ? AND period_end = ?",
		coachID, periodStart, periodEnd).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordSettlement persists the payout and clears the coach's pending balance
// in one transaction, so a crash between the two cannot leave the coach
// payable twice. The transfer itself happened before this call; its external
// idempotency key covers the crash-before-commit case.
func (r *PayoutRepository) RecordSettlement(payout *models.Payout, purchaseIDs []uuid.UUID, nextPayoutAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var pending models.PendingPayout
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&pending, "coach_id = ?", payout.CoachID).Error; err != nil {
			return err
		}

		if err := tx.Create(payout).Error; err != nil {
			return err
		}
		for _, purchaseID := range purchaseIDs {
			item := models.PayoutItem{
				PayoutID:   payout.ID,
				PurchaseID: purchaseID,
			}
			if err := tx.Model(&models.PendingPayoutItem{}).
				Where("coach_id = ? AND purchase_id = ?", payout.CoachID, purchaseID).
				Select("remaining_cents").
				Scan(&item.AmountCents).Error; err != nil {
				return err
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("coach_id = ?", payout.CoachID).
			Delete(&models.PendingPayoutItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.PendingPayout{}).
			Where("coach_id = ?", payout.CoachID).
			Update("amount_cents", 0).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		return tx.Model(&models.Coach{}).
			Where("user_id = ?", payout.CoachID).
			Updates(map[string]interface{}{
				"last_payout_at": now,
				"next_payout_at": nextPayoutAt,
			}).Error
	})
}

func (r *PayoutRepository) ListByCoach(coachID uuid.UUID) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.db.Preload("Items").
		Where("coach_id = ?", coachID).
		Order("created_at desc").
		Find(&payouts).Error
	return payouts, err
}
