package models

import (
	"time"

	"github.com/google/uuid"
)

// Payout records one executed transfer to a coach. Immutable once created;
// the (coach, period) pair guards against double payment across reruns.
type Payout struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CoachID            uuid.UUID `gorm:"not null;index:idx_payout_coach_period,unique" json:"coach_id"`
	ExternalTransferID string    `gorm:"size:255;not null" json:"external_transfer_id"`
	AmountCents        int64     `gorm:"not null" json:"amount_cents"`
	Currency           string    `gorm:"size:3;not null;default:'USD'" json:"currency"`

	PeriodStart time.Time `gorm:"not null;index:idx_payout_coach_period,unique" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null;index:idx_payout_coach_period,unique" json:"period_end"`

	// Informational rollup of platform fees on purchases created inside the
	// period; does not affect the transferred amount.
	PlatformFeeCents int64 `gorm:"not null;default:0" json:"platform_fee_cents"`

	Items []PayoutItem `gorm:"foreignkey:PayoutID" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// PayoutItem tags one purchase as settled by a payout.
type PayoutItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	PayoutID    uuid.UUID `gorm:"not null;index" json:"payout_id"`
	PurchaseID  uuid.UUID `gorm:"not null;unique" json:"purchase_id"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
}
