package services

import (
	"time"

	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

// LocalClock is the virtual local clock: UTC shifted by a fixed configured
// offset. It deliberately does not honor daylight-saving transitions; the
// offset is identical everywhere and never changes at runtime.
type LocalClock struct {
	offset time.Duration
}

// NewLocalClock creates a clock with the given offset in minutes (e.g. 180)
func NewLocalClock(offsetMinutes int) LocalClock {
	return LocalClock{offset: time.Duration(offsetMinutes) * time.Minute}
}

// OffsetMinutes returns the configured offset from UTC in minutes
func (c LocalClock) OffsetMinutes() int {
	return int(c.offset / time.Minute)
}

// ToLocal converts a UTC instant to the virtual local clock
func (c LocalClock) ToLocal(utc time.Time) time.Time {
	return utc.UTC().Add(c.offset)
}

// ToUTC is the exact inverse of ToLocal
func (c LocalClock) ToUTC(local time.Time) time.Time {
	return local.Add(-c.offset)
}

// LocalMidnight returns the start of the local calendar day containing the
// given UTC instant, expressed on the local clock
func (c LocalClock) LocalMidnight(utc time.Time) time.Time {
	local := c.ToLocal(utc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// LocalDayBoundsUTC returns the UTC half-open interval [from, to) covering
// the local calendar day that contains the given UTC instant
func (c LocalClock) LocalDayBoundsUTC(utc time.Time) (time.Time, time.Time) {
	midnight := c.LocalMidnight(utc)
	return c.ToUTC(midnight), c.ToUTC(midnight.AddDate(0, 0, 1))
}

// MinutesIntoDay returns the minutes elapsed since local midnight
func MinutesIntoDay(local time.Time) int {
	return local.Hour()*60 + local.Minute()
}

// IsWithinWorkWindow reports whether the UTC instant falls on one of the
// employee's work days and inside the [start, end) work window, both judged
// on the virtual local clock. An invalid stored window normalizes to the
// default before the check.
func (c LocalClock) IsWithinWorkWindow(employee *models.Employee, utc time.Time) bool {
	local := c.ToLocal(utc)
	if !employee.IsWorkingDay(local) {
		return false
	}

	start, end := models.NormalizeWorkWindow(employee.WorkStartMinutes, employee.WorkEndMinutes)
	minutes := MinutesIntoDay(local)
	return minutes >= start && minutes < end
}
