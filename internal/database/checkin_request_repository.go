package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

// CheckInRequestRepository handles database operations for the
// check_in_requests table. All status transitions are conditional updates so
// that overlapping ticks and concurrent submissions cannot violate the
// at-most-one-pending-request-per-employee invariant.
type CheckInRequestRepository struct {
	db DB
}

// NewCheckInRequestRepository creates a new CheckInRequestRepository
func NewCheckInRequestRepository(db DB) *CheckInRequestRepository {
	return &CheckInRequestRepository{db: db}
}

// ReapedRequest identifies a request forced to missed, with the handle
// needed to retract its outstanding notification
type ReapedRequest struct {
	ID                 uuid.UUID
	EmployeeID         uuid.UUID
	NotificationHandle *string
}

// Create inserts a fresh pending request, guarded against the employee
// already having one. Returns false when the guard rejects the insert, so
// two issuers racing past their pending checks still settle on one row.
func (r *CheckInRequestRepository) Create(request *models.CheckInRequest) (bool, error) {
	query := `
		INSERT INTO check_in_requests (
			id, employee_id, status, requested_at, expires_at
		)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM check_in_requests
			WHERE employee_id = $2 AND status = 'pending'
		)
		RETURNING created_at, updated_at
	`

	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if request.Status == "" {
		request.Status = models.CheckInStatusPending
	}

	err := r.db.QueryRow(
		query,
		request.ID, request.EmployeeID, request.Status, request.RequestedAt, request.ExpiresAt,
	).Scan(&request.CreatedAt, &request.UpdatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// GetByID retrieves a check-in request by ID
func (r *CheckInRequestRepository) GetByID(requestID uuid.UUID) (*models.CheckInRequest, error) {
	query := `
		SELECT id, employee_id, status, requested_at, expires_at,
		       notification_handle, created_at, updated_at
		FROM check_in_requests
		WHERE id = $1
	`

	return r.scanRequest(r.db.QueryRow(query, requestID))
}

// GetPendingByEmployee retrieves the employee's open request, or nil
func (r *CheckInRequestRepository) GetPendingByEmployee(employeeID uuid.UUID) (*models.CheckInRequest, error) {
	query := `
		SELECT id, employee_id, status, requested_at, expires_at,
		       notification_handle, created_at, updated_at
		FROM check_in_requests
		WHERE employee_id = $1 AND status = 'pending'
		ORDER BY requested_at DESC
		LIMIT 1
	`

	return r.scanRequest(r.db.QueryRow(query, employeeID))
}

// HasPending reports whether the employee has an open request
func (r *CheckInRequestRepository) HasPending(employeeID uuid.UUID) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM check_in_requests
		WHERE employee_id = $1 AND status = 'pending'
	`

	var count int
	if err := r.db.QueryRow(query, employeeID).Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

// SetNotificationHandle stores the notifier's handle for later retraction
func (r *CheckInRequestRepository) SetNotificationHandle(requestID uuid.UUID, handle string) error {
	query := `
		UPDATE check_in_requests
		SET notification_handle = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(query, requestID, handle)
	return err
}

// CompleteIfPending transitions a request pending -> completed. Returns
// false when the request already reached a terminal state, which lets the
// caller distinguish a lost race from success.
func (r *CheckInRequestRepository) CompleteIfPending(requestID uuid.UUID) (bool, error) {
	query := `
		UPDATE check_in_requests
		SET status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, requestID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// MarkMissedIfPending transitions a request pending -> missed
func (r *CheckInRequestRepository) MarkMissedIfPending(requestID uuid.UUID) (bool, error) {
	query := `
		UPDATE check_in_requests
		SET status = 'missed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, requestID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// SupersedePending forces any open request for the employee to missed and
// returns the reaped rows so their notifications can be retracted. The
// RETURNING clause makes the supersede a single atomic statement rather
// than a read-then-write race.
func (r *CheckInRequestRepository) SupersedePending(employeeID uuid.UUID) ([]ReapedRequest, error) {
	query := `
		UPDATE check_in_requests
		SET status = 'missed', updated_at = NOW()
		WHERE employee_id = $1 AND status = 'pending'
		RETURNING id, employee_id, notification_handle
	`

	rows, err := r.db.Query(query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReaped(rows)
}

// ExpireDue bulk-transitions all expired pending requests to missed and
// returns them exactly once, so each notification is retracted exactly once
// even when sweeps overlap.
func (r *CheckInRequestRepository) ExpireDue(now time.Time) ([]ReapedRequest, error) {
	query := `
		UPDATE check_in_requests
		SET status = 'missed', updated_at = NOW()
		WHERE status = 'pending' AND expires_at < $1
		RETURNING id, employee_id, notification_handle
	`

	rows, err := r.db.Query(query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReaped(rows)
}

// scanRequest scans a single request row
func (r *CheckInRequestRepository) scanRequest(row *sql.Row) (*models.CheckInRequest, error) {
	var request models.CheckInRequest

	err := row.Scan(
		&request.ID, &request.EmployeeID, &request.Status, &request.RequestedAt,
		&request.ExpiresAt, &request.NotificationHandle, &request.CreatedAt, &request.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// scanReaped scans rows returned by a bulk missed transition
func (r *CheckInRequestRepository) scanReaped(rows *sql.Rows) ([]ReapedRequest, error) {
	var reaped []ReapedRequest

	for rows.Next() {
		var rr ReapedRequest
		if err := rows.Scan(&rr.ID, &rr.EmployeeID, &rr.NotificationHandle); err != nil {
			return nil, err
		}
		reaped = append(reaped, rr)
	}

	return reaped, rows.Err()
}
