package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingPayout is the per-coach accumulator of earnings not yet transferred.
// One row per coach; all mutations go through the repository's locked
// read-modify-write so concurrent purchase and refund events cannot race.
type PendingPayout struct {
	CoachID     uuid.UUID `gorm:"primary_key" json:"coach_id"`
	AmountCents int64     `gorm:"not null;default:0" json:"amount_cents"`

	Items []PendingPayoutItem `gorm:"foreignkey:CoachID" json:"items,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PendingPayoutItem tracks one purchase still contributing to a coach's
// pending balance. RemainingCents starts at the purchase's earnings share and
// is reduced by refunds; the row is removed once it reaches zero or when the
// purchase is settled by a payout run.
type PendingPayoutItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CoachID        uuid.UUID `gorm:"not null;index" json:"coach_id"`
	PurchaseID     uuid.UUID `gorm:"not null;unique" json:"purchase_id"`
	RemainingCents int64     `gorm:"not null" json:"remaining_cents"`

	CreatedAt time.Time `json:"created_at"`
}
