package models

import "github.com/google/uuid"

// Offering is one entry in a coach's session catalog. Paid bookings resolve
// their price and duration from here at creation and reschedule time.
type Offering struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CoachID        uuid.UUID `gorm:"not null" json:"-"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	SessionMinutes int       `gorm:"not null" json:"session_minutes"`
	PriceCents     int64     `gorm:"not null;default:0" json:"price_cents"`
	Currency       string    `gorm:"size:3;not null;default:'USD'" json:"currency"`

	Coach Coach `gorm:"foreignkey:CoachID" json:"-"`
}
