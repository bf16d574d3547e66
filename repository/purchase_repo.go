package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
	"github.com/mwangi2684/coachmarket/utils"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(purchase *models.Purchase) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if purchase.ReceiptNumber == "" {
			receipt, err := utils.GenerateUniqueReceiptNumber(tx)
			if err != nil {
				return err
			}
			purchase.ReceiptNumber = receipt
		}
		return tx.Create(purchase).Error
	})
}

func (r *PurchaseRepository) Save(purchase *models.Purchase) error {
	return r.db.Save(purchase).Error
}

func (r *PurchaseRepository) GetByID(id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// GetByBookingID returns the purchase for a booking, if any. At most one
// exists (unique constraint on booking_id).
func (r *PurchaseRepository) GetByBookingID(bookingID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.First(&purchase, "booking_id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// GetByPaymentRef backs webhook idempotency for course purchases, which have
// no booking row to anchor on.
func (r *PurchaseRepository) GetByPaymentRef(paymentRef string) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.First(&purchase, "payment_ref = ?", paymentRef).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *PurchaseRepository) ListByCoach(coachID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.Where("coach_id = ?", coachID).Find(&purchases).Error
	return purchases, err
}

// SumPlatformFeesInPeriod rolls up fees on paid purchases created inside the
// payout period. Reporting only; never part of the transfer amount.
func (r *PurchaseRepository) SumPlatformFeesInPeriod(coachID uuid.UUID, start, end time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&models.Purchase{}).
		Where("coach_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			coachID, models.PurchaseStatusPaid, start, end).
		Select("COALESCE(SUM(platform_fee_cents), 0)").
		Scan(&total).Error
	return total, err
}
