package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchelxyz/GeoCheck-sub000/internal/database"
	"github.com/marchelxyz/GeoCheck-sub000/pkg/notifier"
)

func TestSweepExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("Reaps Expired Requests And Retracts Once", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := notifier.NewMockGateway()
		sweeper := NewExpirySweeper(
			database.NewCheckInRequestRepository(db), gateway, testLogger(), time.Minute,
		)

		handle := "push-1"
		mock.ExpectQuery(`UPDATE check_in_requests SET status = 'missed'`).
			WithArgs(now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "notification_handle"}).
				AddRow(uuid.New(), uuid.New(), &handle).
				AddRow(uuid.New(), uuid.New(), nil))

		reaped, err := sweeper.SweepExpired(now)
		require.NoError(t, err)
		assert.Equal(t, 2, reaped)

		// Only the request that had a notification gets a retraction
		assert.Equal(t, []string{"push-1"}, gateway.RetractedHandles)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing Expired", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := notifier.NewMockGateway()
		sweeper := NewExpirySweeper(
			database.NewCheckInRequestRepository(db), gateway, testLogger(), time.Minute,
		)

		mock.ExpectQuery(`UPDATE check_in_requests SET status = 'missed'`).
			WithArgs(now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "notification_handle"}))

		reaped, err := sweeper.SweepExpired(now)
		require.NoError(t, err)
		assert.Equal(t, 0, reaped)
		assert.Empty(t, gateway.RetractedHandles)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Retraction Failure Does Not Fail The Sweep", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := notifier.NewMockGateway()
		gateway.FailRetracts = true
		sweeper := NewExpirySweeper(
			database.NewCheckInRequestRepository(db), gateway, testLogger(), time.Minute,
		)

		handle := "push-2"
		mock.ExpectQuery(`UPDATE check_in_requests SET status = 'missed'`).
			WithArgs(now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "notification_handle"}).
				AddRow(uuid.New(), uuid.New(), &handle))

		reaped, err := sweeper.SweepExpired(now)
		require.NoError(t, err)
		assert.Equal(t, 1, reaped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSweeperStartStop(t *testing.T) {
	db, mock := newMockDB(t)
	gateway := notifier.NewMockGateway()
	sweeper := NewExpirySweeper(
		database.NewCheckInRequestRepository(db), gateway, testLogger(), time.Hour,
	)
	_ = mock

	sweeper.Start()
	sweeper.Stop()

	// Stop after stop is a no-op
	sweeper.Stop()
}
