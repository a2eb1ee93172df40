package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckInRequestStatus represents the state of an issued challenge
type CheckInRequestStatus string

const (
	CheckInStatusPending   CheckInRequestStatus = "pending"
	CheckInStatusCompleted CheckInRequestStatus = "completed"
	CheckInStatusMissed    CheckInRequestStatus = "missed"
)

// CheckInRequest is one issued challenge asking an employee to prove their
// location within a deadline. At most one pending request exists per
// employee at any time; that invariant is enforced by the repository's
// conditional updates, not in-process state.
type CheckInRequest struct {
	ID          uuid.UUID            `json:"id" db:"id"`
	EmployeeID  uuid.UUID            `json:"employee_id" db:"employee_id"`
	Status      CheckInRequestStatus `json:"status" db:"status"`
	RequestedAt time.Time            `json:"requested_at" db:"requested_at"`
	ExpiresAt   time.Time            `json:"expires_at" db:"expires_at"`

	// NotificationHandle is the opaque handle returned by the notifier,
	// kept so the outstanding message can be retracted later
	NotificationHandle *string `json:"notification_handle,omitempty" db:"notification_handle"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the request deadline has passed at the given instant
func (r *CheckInRequest) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
