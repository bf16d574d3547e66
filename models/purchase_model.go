package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PurchaseTypeSession = "session"
	PurchaseTypeCourse  = "course"

	PurchaseStatusPaid     = "paid"
	PurchaseStatusRefunded = "refunded"
)

// Purchase is the ledger entry for one successful payment. The fee split is
// computed once, at confirmation time, and never recomputed.
// Invariant: PlatformFeeCents + CoachEarningsCents == AmountCents.
type Purchase struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID  uuid.UUID `gorm:"not null;index" json:"user_id"`
	CoachID uuid.UUID `gorm:"not null;index" json:"coach_id"`

	Type      string     `gorm:"size:20;not null" json:"type"`
	BookingID *uuid.UUID `gorm:"unique" json:"booking_id"`
	CourseID  *uuid.UUID `json:"course_id"`

	AmountCents        int64  `gorm:"not null" json:"amount_cents"`
	PlatformFeeCents   int64  `gorm:"not null" json:"platform_fee_cents"`
	CoachEarningsCents int64  `gorm:"not null" json:"coach_earnings_cents"`
	Currency           string `gorm:"size:3;not null;default:'USD'" json:"currency"`

	ReceiptNumber string  `gorm:"size:20;unique" json:"receipt_number"`
	PaymentRef    string  `gorm:"size:255;not null" json:"-"`
	Status        string  `gorm:"size:20;not null;default:'paid'" json:"status"`
	RefundRef     *string `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
