package models

import (
	"time"

	"github.com/google/uuid"
)

// Coach compliance states; flagged and rejected coaches feed the risk engine
// and are never eligible for payouts.
const (
	CoachStatusActive   = "active"
	CoachStatusFlagged  = "flagged"
	CoachStatusRejected = "rejected"
)

type Coach struct {
	UserID    uuid.UUID `gorm:"primary_key" json:"user_id"`
	Headline  *string   `gorm:"size:255" json:"headline"`
	Bio       *string   `gorm:"type:text" json:"bio"`
	Status    string    `gorm:"size:20;not null;default:'active'" json:"status"`
	AvgRating float32   `gorm:"default:0" json:"avg_rating"`
	RatingCount int     `gorm:"default:0" json:"rating_count"`

	// Connected account at the payment processor. Nil until onboarding
	// completes; payouts require it.
	StripeAccountID *string `gorm:"size:255;unique" json:"-"`

	LastPayoutAt *time.Time `json:"last_payout_at"`
	NextPayoutAt *time.Time `json:"next_payout_at"`

	User User `gorm:"foreignkey:UserID" json:"user"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
