package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

// ScheduleItemRepository handles database operations for the schedule_items table
type ScheduleItemRepository struct {
	db DB
}

// NewScheduleItemRepository creates a new ScheduleItemRepository
func NewScheduleItemRepository(db DB) *ScheduleItemRepository {
	return &ScheduleItemRepository{db: db}
}

// CreateForDay inserts all of an employee's items for one local day in a
// single statement guarded on the day being empty, so two generation runs
// racing on the same day materialize it at most once. Returns the number of
// rows actually inserted; 0 means another run won the day.
func (r *ScheduleItemRepository) CreateForDay(items []*models.ScheduleItem, dayFrom, dayTo time.Time) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	employeeID := items[0].EmployeeID
	args := []interface{}{employeeID, dayFrom, dayTo}
	values := make([]string, 0, len(items))

	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if item.Status == "" {
			item.Status = models.ScheduleItemStatusPending
		}

		values = append(values, fmt.Sprintf(
			"($%d::uuid, $%d::timestamptz, $%d::text)",
			len(args)+1, len(args)+2, len(args)+3,
		))
		args = append(args, item.ID, item.ScheduledAt, item.Status)
	}

	query := fmt.Sprintf(`
		INSERT INTO schedule_items (id, employee_id, scheduled_at, status)
		SELECT v.id, $1, v.scheduled_at, v.status
		FROM (VALUES %s) AS v(id, scheduled_at, status)
		WHERE NOT EXISTS (
			SELECT 1 FROM schedule_items
			WHERE employee_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		)
	`, strings.Join(values, ", "))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rows), nil
}

// CountForEmployeeBetween counts items (any status) scheduled for an
// employee inside [from, to). Used as the once-per-day idempotency guard.
func (r *ScheduleItemRepository) CountForEmployeeBetween(employeeID uuid.UUID, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM schedule_items
		WHERE employee_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
	`

	var count int
	err := r.db.QueryRow(query, employeeID, from, to).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// GetEarliestDuePending returns the earliest pending item with
// scheduled_at <= now for an employee, or nil if none is due
func (r *ScheduleItemRepository) GetEarliestDuePending(employeeID uuid.UUID, now time.Time) (*models.ScheduleItem, error) {
	query := `
		SELECT id, employee_id, scheduled_at, status, created_at
		FROM schedule_items
		WHERE employee_id = $1 AND status = 'pending' AND scheduled_at <= $2
		ORDER BY scheduled_at
		LIMIT 1
	`

	var item models.ScheduleItem
	err := r.db.QueryRow(query, employeeID, now).Scan(
		&item.ID, &item.EmployeeID, &item.ScheduledAt, &item.Status, &item.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// MarkSent transitions an item pending -> sent. Conditional on the current
// status so two overlapping ticks cannot both consume the same item.
func (r *ScheduleItemRepository) MarkSent(itemID uuid.UUID) (bool, error) {
	query := `
		UPDATE schedule_items
		SET status = 'sent'
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, itemID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// MarkDueSkipped marks all due pending items for an employee as skipped.
// Used when a due item competes with an already-pending check-in request.
func (r *ScheduleItemRepository) MarkDueSkipped(employeeID uuid.UUID, now time.Time) (int64, error) {
	query := `
		UPDATE schedule_items
		SET status = 'skipped'
		WHERE employee_id = $1 AND status = 'pending' AND scheduled_at <= $2
	`

	result, err := r.db.Exec(query, employeeID, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// GetForEmployeeBetween retrieves all items for an employee inside [from, to)
func (r *ScheduleItemRepository) GetForEmployeeBetween(employeeID uuid.UUID, from, to time.Time) ([]models.ScheduleItem, error) {
	query := `
		SELECT id, employee_id, scheduled_at, status, created_at
		FROM schedule_items
		WHERE employee_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		ORDER BY scheduled_at
	`

	rows, err := r.db.Query(query, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ScheduleItem
	for rows.Next() {
		var item models.ScheduleItem
		err := rows.Scan(&item.ID, &item.EmployeeID, &item.ScheduledAt, &item.Status, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
