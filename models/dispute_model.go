package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute is a chargeback raised at the payment processor against one of our
// charges, recorded from webhook events and consumed by the risk engine.
type Dispute struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CoachID     uuid.UUID  `gorm:"not null;index" json:"coach_id"`
	PurchaseID  *uuid.UUID `json:"purchase_id"`
	ExternalID  string     `gorm:"size:255;not null;unique" json:"-"`
	AmountCents int64      `gorm:"not null" json:"amount_cents"`
	Reason      string     `gorm:"size:100" json:"reason"`
	Status      string     `gorm:"size:30;not null;default:'open'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
