package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingRequested BookingStatus = "requested"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

const (
	BookingTypeFreeIntro = "free_intro"
	BookingTypePaid      = "paid"
)

type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CoachID   uuid.UUID `gorm:"not null;index" json:"coach_id"`
	StudentID uuid.UUID `gorm:"not null;index" json:"student_id"`

	Type           string        `gorm:"size:20;not null" json:"type"`
	SessionMinutes int           `gorm:"not null" json:"session_minutes"`
	PriceCents     int64         `gorm:"not null;default:0" json:"price_cents"`
	Currency       string        `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Status         BookingStatus `gorm:"size:20;not null;default:'requested'" json:"status"`

	// Stored in UTC. TimeZone is display-only: the zone the coach quoted
	// availability in.
	ScheduledStart time.Time `gorm:"not null" json:"scheduled_start"`
	ScheduledEnd   time.Time `gorm:"not null" json:"scheduled_end"`
	BufferMinutes  int       `gorm:"not null;default:0" json:"buffer_minutes"`
	TimeZone       string    `gorm:"size:100;not null;default:'UTC'" json:"time_zone"`

	PaymentRef        *string `gorm:"size:255" json:"payment_ref"`
	RefundRef         *string `gorm:"size:255" json:"refund_ref"`
	RefundAmountCents *int64  `json:"refund_amount_cents"`

	CancelReason *string    `gorm:"type:text" json:"cancel_reason"`
	CancelledBy  *string    `gorm:"size:20" json:"cancelled_by"`
	CancelledAt  *time.Time `json:"cancelled_at"`

	// Set on the first reschedule only, preserving the original start.
	OriginalStart    *time.Time `json:"original_start"`
	RescheduleReason *string    `gorm:"type:text" json:"reschedule_reason"`

	SchedulingRef *string `gorm:"size:255" json:"-"`

	Coach   User `gorm:"foreignkey:CoachID" json:"coach,omitempty"`
	Student User `gorm:"foreignkey:StudentID" json:"student,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the booking can no longer change status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// CanTransitionTo is the single source of truth for the booking lifecycle:
// requested -> confirmed -> completed, with cancelled reachable from
// requested or confirmed only.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case BookingConfirmed:
		return s == BookingRequested
	case BookingCompleted:
		return s == BookingConfirmed
	case BookingCancelled:
		return s == BookingRequested || s == BookingConfirmed
	default:
		return false
	}
}
