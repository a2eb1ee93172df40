package models

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default work window used when a stored window is invalid (09:00-18:00)
const (
	DefaultWorkStartMinutes = 540
	DefaultWorkEndMinutes   = 1080

	// DefaultWorkDays is Monday through Friday (time.Weekday numbering)
	DefaultWorkDays = "1,2,3,4,5"

	// MaxDailyCheckInTarget caps how many challenges can be requested per day
	MaxDailyCheckInTarget = 20
)

// Employee represents a field/office employee subject to check-in challenges
type Employee struct {
	ID              uuid.UUID `json:"id" db:"id"`
	FullName        string    `json:"full_name" db:"full_name"`
	CheckInsEnabled bool      `json:"check_ins_enabled" db:"check_ins_enabled"`

	// WorkDays is a comma-separated list of weekday numbers, 0 (Sunday)
	// through 6 (Saturday), e.g. "1,2,3,4,5"
	WorkDays         string `json:"work_days" db:"work_days"`
	WorkStartMinutes int    `json:"work_start_minutes" db:"work_start_minutes"` // minutes since local midnight
	WorkEndMinutes   int    `json:"work_end_minutes" db:"work_end_minutes"`

	DailyCheckInTarget int `json:"daily_check_in_target" db:"daily_check_in_target"`

	// A staged target change takes effect at a future local-day boundary,
	// never mid-day. Both fields are cleared once applied.
	DailyCheckInTargetPending     *int       `json:"daily_check_in_target_pending,omitempty" db:"daily_check_in_target_pending"`
	DailyCheckInTargetPendingFrom *time.Time `json:"daily_check_in_target_pending_from,omitempty" db:"daily_check_in_target_pending_from"`

	// NextCheckInAt is the stored fallback trigger instant (UTC). It is a
	// hint: the scheduler revalidates it against the live work window on
	// every tick and may rewrite it.
	NextCheckInAt *time.Time `json:"next_check_in_at,omitempty" db:"next_check_in_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GetWorkDaysSlice parses the comma-separated work_days string into []int
func (e *Employee) GetWorkDaysSlice() ([]int, error) {
	if e.WorkDays == "" {
		return []int{}, nil
	}
	parts := strings.Split(e.WorkDays, ",")
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.New("invalid weekday number in work_days: " + part)
		}
		result = append(result, num)
	}
	return result, nil
}

// SetWorkDaysFromSlice converts []int to the stored comma-separated form
func (e *Employee) SetWorkDaysFromSlice(days []int) {
	if len(days) == 0 {
		e.WorkDays = ""
		return
	}
	strSlice := make([]string, len(days))
	for i, d := range days {
		strSlice[i] = strconv.Itoa(d)
	}
	e.WorkDays = strings.Join(strSlice, ",")
}

// IsWorkingDay reports whether the given local date falls on one of the
// employee's work days. An unparsable work_days value counts as non-working.
func (e *Employee) IsWorkingDay(localDate time.Time) bool {
	days, err := e.GetWorkDaysSlice()
	if err != nil {
		return false
	}
	weekday := int(localDate.Weekday())
	for _, day := range days {
		if day == weekday {
			return true
		}
	}
	return false
}

// UpdateScheduleRequest represents an administrator edit of an employee's
// check-in schedule. A changed daily target is staged to the next local day.
type UpdateScheduleRequest struct {
	CheckInsEnabled    *bool `json:"check_ins_enabled,omitempty"`
	WorkDays           []int `json:"work_days,omitempty"`
	WorkStartMinutes   *int  `json:"work_start_minutes,omitempty"`
	WorkEndMinutes     *int  `json:"work_end_minutes,omitempty"`
	DailyCheckInTarget *int  `json:"daily_check_in_target,omitempty"`
}

// Validate validates the schedule update request
func (r *UpdateScheduleRequest) Validate() error {
	for _, day := range r.WorkDays {
		if day < 0 || day > 6 {
			return errors.New("work_days must contain values between 0 (Sunday) and 6 (Saturday)")
		}
	}

	if (r.WorkStartMinutes == nil) != (r.WorkEndMinutes == nil) {
		return errors.New("work_start_minutes and work_end_minutes must be provided together")
	}

	if r.WorkStartMinutes != nil {
		start, end := *r.WorkStartMinutes, *r.WorkEndMinutes
		if start < 0 || start >= 1440 {
			return errors.New("work_start_minutes must be in [0, 1440)")
		}
		if end <= start || end > 1440 {
			return errors.New("work_end_minutes must be greater than work_start_minutes and at most 1440")
		}
	}

	if r.DailyCheckInTarget != nil {
		if *r.DailyCheckInTarget < 0 || *r.DailyCheckInTarget > MaxDailyCheckInTarget {
			return errors.New("daily_check_in_target must be between 0 and 20")
		}
	}

	return nil
}

// NormalizeWorkWindow returns a valid (start, end) pair. Invalid stored
// values reset to the 09:00-18:00 default rather than failing generation.
func NormalizeWorkWindow(start, end int) (int, int) {
	if start < 0 || start >= 1440 || end <= start || end > 1440 {
		return DefaultWorkStartMinutes, DefaultWorkEndMinutes
	}
	return start, end
}
