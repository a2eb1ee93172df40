package services

import (
	"database/sql/driver"
	"math/rand"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchelxyz/GeoCheck-sub000/internal/database"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
	"github.com/marchelxyz/GeoCheck-sub000/pkg/notifier"
)

// timeBetween matches a time argument inside [from, to)
type timeBetween struct {
	from, to time.Time
}

func (m timeBetween) Match(v driver.Value) bool {
	tt, ok := v.(time.Time)
	return ok && !tt.Before(m.from) && tt.Before(m.to)
}

func newTriggerService(db database.DB, gateway *notifier.MockGateway, seed int64) *TriggerService {
	checkInSvc := newCheckInService(db, gateway)
	return NewTriggerService(
		database.NewEmployeeRepository(db),
		database.NewScheduleItemRepository(db),
		database.NewCheckInRequestRepository(db),
		checkInSvc,
		NewLocalClock(180),
		testLogger(),
		rand.NewSource(seed),
	)
}

func triggerEmployee(nextAt *time.Time) *models.Employee {
	return &models.Employee{
		ID:                 uuid.New(),
		FullName:           "Anna Petrova",
		CheckInsEnabled:    true,
		WorkDays:           "1,2,3,4,5",
		WorkStartMinutes:   540,
		WorkEndMinutes:     1080,
		DailyCheckInTarget: 3,
		NextCheckInAt:      nextAt,
	}
}

func TestTriggerTick(t *testing.T) {
	// Tuesday 2026-03-10, 09:30 local
	now := time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC)

	t.Run("Due Item Fires A Request", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := notifier.NewMockGateway()
		svc := newTriggerService(db, gateway, 11)
		employee := triggerEmployee(nil)
		itemID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM employees WHERE check_ins_enabled`).
			WillReturnRows(employeeRow(employee))
		mock.ExpectQuery(`SELECT COUNT(.+) FROM check_in_requests`).
			WithArgs(employee.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT (.+) FROM schedule_items`).
			WithArgs(employee.ID, now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "scheduled_at", "status", "created_at"}).
				AddRow(itemID, employee.ID, now.Add(-time.Minute), "pending", now))
		mock.ExpectExec(`UPDATE schedule_items SET status = 'sent'`).
			WithArgs(itemID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO check_in_requests`).
			WithArgs(sqlmock.AnyArg(), employee.ID, "pending", now, now.Add(5*time.Minute)).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`UPDATE check_in_requests SET notification_handle`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		// Fallback instant recomputed for the next opportunity
		mock.ExpectExec(`UPDATE employees SET next_check_in_at`).
			WithArgs(employee.ID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.Tick(now))
		assert.Len(t, gateway.SentMessages, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Lost Mark Sent Race Issues Nothing", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := notifier.NewMockGateway()
		svc := newTriggerService(db, gateway, 11)
		employee := triggerEmployee(nil)
		itemID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM employees WHERE check_ins_enabled`).
			WillReturnRows(employeeRow(employee))
		mock.ExpectQuery(`SELECT COUNT(.+) FROM check_in_requests`).
			WithArgs(employee.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT (.+) FROM schedule_items`).
			WithArgs(employee.ID, now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "scheduled_at", "status", "created_at"}).
				AddRow(itemID, employee.ID, now.Add(-time.Minute), "pending", now))
		mock.ExpectExec(`UPDATE schedule_items SET status = 'sent'`).
			WithArgs(itemID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, svc.Tick(now))
		assert.Empty(t, gateway.SentMessages)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Due Items While Request Pending Are Skipped", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := notifier.NewMockGateway()
		svc := newTriggerService(db, gateway, 11)
		employee := triggerEmployee(nil)

		mock.ExpectQuery(`SELECT (.+) FROM employees WHERE check_ins_enabled`).
			WillReturnRows(employeeRow(employee))
		mock.ExpectQuery(`SELECT COUNT(.+) FROM check_in_requests`).
			WithArgs(employee.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectExec(`UPDATE schedule_items SET status = 'skipped'`).
			WithArgs(employee.ID, now).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`UPDATE employees SET next_check_in_at`).
			WithArgs(employee.ID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.Tick(now))
		assert.Empty(t, gateway.SentMessages)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Pending Request And Nothing Due Leaves State Alone", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newTriggerService(db, notifier.NewMockGateway(), 11)
		employee := triggerEmployee(nil)

		mock.ExpectQuery(`SELECT (.+) FROM employees WHERE check_ins_enabled`).
			WillReturnRows(employeeRow(employee))
		mock.ExpectQuery(`SELECT COUNT(.+) FROM check_in_requests`).
			WithArgs(employee.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectExec(`UPDATE schedule_items SET status = 'skipped'`).
			WithArgs(employee.ID, now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, svc.Tick(now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Schedule Inside Window Stores Short Horizon Fallback", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := notifier.NewMockGateway()
		svc := newTriggerService(db, gateway, 11)
		employee := triggerEmployee(nil)

		mock.ExpectQuery(`SELECT (.+) FROM employees WHERE check_ins_enabled`).
			WillReturnRows(employeeRow(employee))
		mock.ExpectQuery(`SELECT COUNT(.+) FROM check_in_requests`).
			WithArgs(employee.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT (.+) FROM schedule_items`).
			WithArgs(employee.ID, now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "scheduled_at", "status", "created_at"}))
		mock.ExpectExec(`UPDATE employees SET next_check_in_at`).
			WithArgs(employee.ID, timeBetween{
				from: now.Add(5 * time.Minute),
				to:   now.Add(16 * time.Minute),
			}).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.Tick(now))
		assert.Empty(t, gateway.SentMessages)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stored Fallback Instant Fires When Due", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := notifier.NewMockGateway()
		svc := newTriggerService(db, gateway, 11)
		due := now.Add(-time.Minute)
		employee := triggerEmployee(&due)

		mock.ExpectQuery(`SELECT (.+) FROM employees WHERE check_ins_enabled`).
			WillReturnRows(employeeRow(employee))
		mock.ExpectQuery(`SELECT COUNT(.+) FROM check_in_requests`).
			WithArgs(employee.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT (.+) FROM schedule_items`).
			WithArgs(employee.ID, now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "scheduled_at", "status", "created_at"}))
		mock.ExpectQuery(`INSERT INTO check_in_requests`).
			WithArgs(sqlmock.AnyArg(), employee.ID, "pending", now, now.Add(5*time.Minute)).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`UPDATE check_in_requests SET notification_handle`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE employees SET next_check_in_at`).
			WithArgs(employee.ID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.Tick(now))
		assert.Len(t, gateway.SentMessages, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Lost Insert Race Issues Nothing", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := notifier.NewMockGateway()
		svc := newTriggerService(db, gateway, 11)
		due := now.Add(-time.Minute)
		employee := triggerEmployee(&due)

		mock.ExpectQuery(`SELECT (.+) FROM employees WHERE check_ins_enabled`).
			WillReturnRows(employeeRow(employee))
		mock.ExpectQuery(`SELECT COUNT(.+) FROM check_in_requests`).
			WithArgs(employee.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT (.+) FROM schedule_items`).
			WithArgs(employee.ID, now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "scheduled_at", "status", "created_at"}))
		// A competing issuer slipped in between the pending check and the
		// insert: the pending guard rejects the row
		mock.ExpectQuery(`INSERT INTO check_in_requests`).
			WithArgs(sqlmock.AnyArg(), employee.ID, "pending", now, now.Add(5*time.Minute)).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}))
		mock.ExpectQuery(`SELECT (.+) FROM check_in_requests WHERE employee_id`).
			WithArgs(employee.ID).
			WillReturnRows(sqlmock.NewRows(requestColumns))
		mock.ExpectExec(`UPDATE employees SET next_check_in_at`).
			WithArgs(employee.ID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.Tick(now))
		assert.Empty(t, gateway.SentMessages)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stale Stored Instant Is Recomputed", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newTriggerService(db, notifier.NewMockGateway(), 11)
		// Stored instant lands on a Saturday: no longer valid after a
		// work-day edit
		stale := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
		employee := triggerEmployee(&stale)

		mock.ExpectQuery(`SELECT (.+) FROM employees WHERE check_ins_enabled`).
			WillReturnRows(employeeRow(employee))
		mock.ExpectQuery(`SELECT COUNT(.+) FROM check_in_requests`).
			WithArgs(employee.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT (.+) FROM schedule_items`).
			WithArgs(employee.ID, now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "scheduled_at", "status", "created_at"}))
		mock.ExpectExec(`UPDATE employees SET next_check_in_at`).
			WithArgs(employee.ID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.Tick(now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Future Valid Instant Untouched", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := newTriggerService(db, notifier.NewMockGateway(), 11)
		// Later today, inside the work window
		future := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
		employee := triggerEmployee(&future)

		mock.ExpectQuery(`SELECT (.+) FROM employees WHERE check_ins_enabled`).
			WillReturnRows(employeeRow(employee))
		mock.ExpectQuery(`SELECT COUNT(.+) FROM check_in_requests`).
			WithArgs(employee.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT (.+) FROM schedule_items`).
			WithArgs(employee.ID, now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "scheduled_at", "status", "created_at"}))

		require.NoError(t, svc.Tick(now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestComputeNextInstant(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newTriggerService(db, notifier.NewMockGateway(), 99)
	clock := NewLocalClock(180)

	t.Run("Same Day When Window Has Room", func(t *testing.T) {
		// Tuesday 09:30 local
		now := time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC)
		employee := triggerEmployee(nil)

		next := svc.computeNextInstant(employee, now)
		require.NotNil(t, next)

		local := clock.ToLocal(*next)
		assert.Equal(t, 10, local.Day())
		// Earliest is now+25m, latest 95m later
		assert.False(t, next.Before(now.Add(25*time.Minute)))
		assert.True(t, next.Before(now.Add(121*time.Minute)))
	})

	t.Run("Rolls Past Weekend", func(t *testing.T) {
		// Friday 17:59 local: too close to window end, Saturday and Sunday
		// are off, so the instant lands on Monday
		now := time.Date(2026, 3, 13, 14, 59, 0, 0, time.UTC)
		employee := triggerEmployee(nil)

		next := svc.computeNextInstant(employee, now)
		require.NotNil(t, next)

		local := clock.ToLocal(*next)
		assert.Equal(t, time.Monday, local.Weekday())
		minutes := MinutesIntoDay(local)
		assert.GreaterOrEqual(t, minutes, 540)
		assert.LessOrEqual(t, minutes, 540+95)
	})

	t.Run("No Working Days Returns Nil", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC)
		employee := triggerEmployee(nil)
		employee.WorkDays = ""

		assert.Nil(t, svc.computeNextInstant(employee, now))
	})

	t.Run("Result Respects Window End Slack", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 6, 40, 0, 0, time.UTC) // 09:40 local
		employee := triggerEmployee(nil)
		employee.WorkStartMinutes = 570 // 09:30 local
		employee.WorkEndMinutes = 600   // 10:00 local

		// now+25m is already past the 09:59 latest bound today
		next := svc.computeNextInstant(employee, now)
		require.NotNil(t, next)
		local := clock.ToLocal(*next)
		assert.Equal(t, 11, local.Day())
	})
}
