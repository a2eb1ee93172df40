package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleItemStatus represents the lifecycle of a candidate trigger instant
type ScheduleItemStatus string

const (
	ScheduleItemStatusPending ScheduleItemStatus = "pending"
	ScheduleItemStatusSent    ScheduleItemStatus = "sent"
	ScheduleItemStatusSkipped ScheduleItemStatus = "skipped"
)

// ScheduleItem is one precomputed candidate instant for issuing a challenge
// on a given day. Items are created once per local day per employee and are
// never mutated after reaching a terminal status.
type ScheduleItem struct {
	ID          uuid.UUID          `json:"id" db:"id"`
	EmployeeID  uuid.UUID          `json:"employee_id" db:"employee_id"`
	ScheduledAt time.Time          `json:"scheduled_at" db:"scheduled_at"` // UTC
	Status      ScheduleItemStatus `json:"status" db:"status"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
}
