package services

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mwangi2684/coachmarket/models"
)

var (
	ErrSlotConflict = errors.New("slot conflicts with an existing booking")
	ErrSlotInPast   = errors.New("slot start is in the past")
)

type availabilityReader interface {
	WeeklyByCoach(coachID uuid.UUID) ([]models.WeeklyAvailability, error)
	OverridesByCoach(coachID uuid.UUID) ([]models.DateOverride, error)
}

type coachBookingLister interface {
	ListActiveByCoach(coachID uuid.UUID, exclude *uuid.UUID) ([]models.Booking, error)
}

type AvailabilityService struct {
	availabilityRepo availabilityReader
	bookingRepo      coachBookingLister
	now              func() time.Time
}

func NewAvailabilityService(availabilityRepo availabilityReader, bookingRepo coachBookingLister) *AvailabilityService {
	return &AvailabilityService{
		availabilityRepo: availabilityRepo,
		bookingRepo:      bookingRepo,
		now:              time.Now,
	}
}

// expand widens [start, end) by the booking's own buffer on both sides.
func expand(start, end time.Time, bufferMinutes int) (time.Time, time.Time) {
	buffer := time.Duration(bufferMinutes) * time.Minute
	return start.Add(-buffer), end.Add(buffer)
}

// overlaps tests two half-open intervals after each side has been expanded by
// its own buffer. Each booking's buffer widens only its own footprint, so two
// adjacent bookings need a combined gap of bufferA+bufferB.
func overlaps(aStart, aEnd time.Time, aBuffer int, bStart, bEnd time.Time, bBuffer int) bool {
	aStart, aEnd = expand(aStart, aEnd, aBuffer)
	bStart, bEnd = expand(bStart, bEnd, bBuffer)
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// CheckSlot validates a candidate interval against the coach's existing
// non-cancelled bookings. Returns ErrSlotInPast or ErrSlotConflict.
func CheckSlot(start, end time.Time, bufferMinutes int, existing []models.Booking, now time.Time) error {
	if start.Before(now) {
		return ErrSlotInPast
	}
	for _, booking := range existing {
		if booking.Status == models.BookingCancelled {
			continue
		}
		if overlaps(start, end, bufferMinutes, booking.ScheduledStart, booking.ScheduledEnd, booking.BufferMinutes) {
			return ErrSlotConflict
		}
	}
	return nil
}

const slotTimeLayout = "15:04"

// windowsForDate resolves the bookable windows for one date in the coach's
// local zone. An override always wins over the weekly recurrence, and an
// unavailable override blocks the date entirely.
func windowsForDate(date time.Time, weekly []models.WeeklyAvailability, overrides []models.DateOverride) [][2]string {
	dateKey := date.Format("2006-01-02")
	for _, override := range overrides {
		if override.Date != dateKey {
			continue
		}
		if !override.IsAvailable {
			return nil
		}
		return [][2]string{{override.StartTime, override.EndTime}}
	}

	var windows [][2]string
	for _, w := range weekly {
		if w.DayOfWeek == int(date.Weekday()) {
			windows = append(windows, [2]string{w.StartTime, w.EndTime})
		}
	}
	return windows
}

// GenerateSlots enumerates fixed-duration candidate start times ("15:04"
// strings, coach-local) for one date and filters them through CheckSlot.
// Deterministic for fixed inputs; re-calling restarts the enumeration.
func GenerateSlots(date time.Time, loc *time.Location, weekly []models.WeeklyAvailability, overrides []models.DateOverride, durationMinutes, bufferMinutes int, existing []models.Booking, now time.Time) []string {
	duration := time.Duration(durationMinutes) * time.Minute

	var slots []string
	for _, window := range windowsForDate(date.In(loc), weekly, overrides) {
		windowStart, err := time.ParseInLocation(slotTimeLayout, window[0], loc)
		if err != nil {
			continue
		}
		windowEnd, err := time.ParseInLocation(slotTimeLayout, window[1], loc)
		if err != nil {
			continue
		}

		y, m, d := date.In(loc).Date()
		start := time.Date(y, m, d, windowStart.Hour(), windowStart.Minute(), 0, 0, loc)
		end := time.Date(y, m, d, windowEnd.Hour(), windowEnd.Minute(), 0, 0, loc)

		for s := start; !s.Add(duration).After(end); s = s.Add(duration) {
			if CheckSlot(s, s.Add(duration), bufferMinutes, existing, now) == nil {
				slots = append(slots, s.Format(slotTimeLayout))
			}
		}
	}
	return slots
}

// ConvertSlotTime re-expresses a coach-local slot time in the viewer's zone
// for the given date. Display only; stored schedules stay coach-local.
func ConvertSlotTime(slot string, date time.Time, coachLoc, viewerLoc *time.Location) (string, error) {
	parsed, err := time.ParseInLocation(slotTimeLayout, slot, coachLoc)
	if err != nil {
		return "", err
	}
	y, m, d := date.In(coachLoc).Date()
	instant := time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, coachLoc)
	return instant.In(viewerLoc).Format(slotTimeLayout), nil
}

// GetAvailableSlots is the HTTP-facing entry point: load the coach's
// schedule and current bookings, enumerate, and optionally convert to the
// viewer's zone.
func (s *AvailabilityService) GetAvailableSlots(coachID uuid.UUID, date time.Time, coachTZ, viewerTZ string, durationMinutes, bufferMinutes int) ([]string, error) {
	weekly, err := s.availabilityRepo.WeeklyByCoach(coachID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.availabilityRepo.OverridesByCoach(coachID)
	if err != nil {
		return nil, err
	}
	existing, err := s.bookingRepo.ListActiveByCoach(coachID, nil)
	if err != nil {
		return nil, err
	}

	coachLoc, err := time.LoadLocation(coachTZ)
	if err != nil {
		return nil, err
	}

	slots := GenerateSlots(date, coachLoc, weekly, overrides, durationMinutes, bufferMinutes, existing, s.now())

	if viewerTZ == "" || viewerTZ == coachTZ {
		return slots, nil
	}
	viewerLoc, err := time.LoadLocation(viewerTZ)
	if err != nil {
		return nil, err
	}
	converted := make([]string, 0, len(slots))
	for _, slot := range slots {
		display, err := ConvertSlotTime(slot, date, coachLoc, viewerLoc)
		if err != nil {
			return nil, err
		}
		converted = append(converted, display)
	}
	return converted, nil
}
