package models

import (
	"time"

	"github.com/google/uuid"
)

// WeeklyAvailability is one recurring window in the coach's local timezone.
// Times are "15:04" strings; the coach's zone lives on Coach.User.TimeZone.
type WeeklyAvailability struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CoachID   uuid.UUID `gorm:"not null;index" json:"-"`
	DayOfWeek int       `gorm:"not null" json:"day_of_week"` // 0 = Sunday
	StartTime string    `gorm:"size:5;not null" json:"start_time"`
	EndTime   string    `gorm:"size:5;not null" json:"end_time"`

	CreatedAt time.Time `json:"-"`
}

// DateOverride replaces the weekly recurrence for a single date. An override
// with IsAvailable=false blocks the whole date.
type DateOverride struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CoachID     uuid.UUID `gorm:"not null;index:idx_override_coach_date,unique" json:"-"`
	Date        string    `gorm:"size:10;not null;index:idx_override_coach_date,unique" json:"date"` // "2006-01-02"
	IsAvailable bool      `gorm:"not null;default:true" json:"is_available"`
	StartTime   string    `gorm:"size:5" json:"start_time"`
	EndTime     string    `gorm:"size:5" json:"end_time"`

	CreatedAt time.Time `json:"-"`
}
