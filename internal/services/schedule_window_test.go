package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

func TestLocalClockConversions(t *testing.T) {
	clock := NewLocalClock(180)

	t.Run("ToLocal Shifts Forward", func(t *testing.T) {
		utc := time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC)
		local := clock.ToLocal(utc)

		assert.Equal(t, time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC), local)
	})

	t.Run("ToUTC Is Inverse", func(t *testing.T) {
		utc := time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC)
		assert.True(t, clock.ToUTC(clock.ToLocal(utc)).Equal(utc))
	})

	t.Run("Negative Offset", func(t *testing.T) {
		west := NewLocalClock(-300)
		utc := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

		local := west.ToLocal(utc)
		assert.Equal(t, time.Date(2026, 3, 9, 21, 0, 0, 0, time.UTC), local)
	})

	t.Run("OffsetMinutes", func(t *testing.T) {
		assert.Equal(t, 180, clock.OffsetMinutes())
		assert.Equal(t, -300, NewLocalClock(-300).OffsetMinutes())
	})
}

func TestLocalDayBoundsUTC(t *testing.T) {
	clock := NewLocalClock(180)

	t.Run("Day Crosses UTC Midnight", func(t *testing.T) {
		// 22:30 UTC is already 01:30 the next local day
		utc := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)
		from, to := clock.LocalDayBoundsUTC(utc)

		assert.Equal(t, time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC), from)
		assert.Equal(t, time.Date(2026, 3, 11, 21, 0, 0, 0, time.UTC), to)
	})

	t.Run("Bounds Are Half Open And 24h Wide", func(t *testing.T) {
		utc := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		from, to := clock.LocalDayBoundsUTC(utc)

		assert.Equal(t, 24*time.Hour, to.Sub(from))
		assert.False(t, utc.Before(from))
		assert.True(t, utc.Before(to))
	})
}

func TestMinutesIntoDay(t *testing.T) {
	assert.Equal(t, 0, MinutesIntoDay(time.Date(2026, 3, 10, 0, 0, 59, 0, time.UTC)))
	assert.Equal(t, 540, MinutesIntoDay(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1439, MinutesIntoDay(time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)))
}

func TestIsWithinWorkWindow(t *testing.T) {
	clock := NewLocalClock(180)

	employee := &models.Employee{
		WorkDays:         "1,2,3,4,5",
		WorkStartMinutes: 540,  // 09:00 local
		WorkEndMinutes:   1080, // 18:00 local
	}

	t.Run("Inside Window On Working Day", func(t *testing.T) {
		// Tuesday 2026-03-10 12:00 local = 09:00 UTC
		assert.True(t, clock.IsWithinWorkWindow(employee, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))
	})

	t.Run("Before Window", func(t *testing.T) {
		// 08:59 local
		assert.False(t, clock.IsWithinWorkWindow(employee, time.Date(2026, 3, 10, 5, 59, 0, 0, time.UTC)))
	})

	t.Run("Window End Is Exclusive", func(t *testing.T) {
		// Exactly 18:00 local
		assert.False(t, clock.IsWithinWorkWindow(employee, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)))
		// 17:59 local
		assert.True(t, clock.IsWithinWorkWindow(employee, time.Date(2026, 3, 10, 14, 59, 0, 0, time.UTC)))
	})

	t.Run("Weekend Day Judged On Local Clock", func(t *testing.T) {
		// Saturday 2026-03-14 12:00 local
		assert.False(t, clock.IsWithinWorkWindow(employee, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)))
	})

	t.Run("Local Day Differs From UTC Day", func(t *testing.T) {
		night := &models.Employee{
			WorkDays:         "1,2,3,4,5",
			WorkStartMinutes: 0,
			WorkEndMinutes:   120, // local 00:00-02:00
		}

		// Monday 22:00 UTC is Tuesday 01:00 local: working
		assert.True(t, clock.IsWithinWorkWindow(night, time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC)))
		// Friday 22:00 UTC is Saturday 01:00 local: not working
		assert.False(t, clock.IsWithinWorkWindow(night, time.Date(2026, 3, 13, 22, 0, 0, 0, time.UTC)))
	})

	t.Run("Invalid Window Normalizes To Default", func(t *testing.T) {
		broken := &models.Employee{
			WorkDays:         "1,2,3,4,5",
			WorkStartMinutes: 600,
			WorkEndMinutes:   600, // end == start is invalid
		}

		// 12:00 local falls inside the normalized 09:00-18:00 default
		assert.True(t, clock.IsWithinWorkWindow(broken, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))
	})
}
