package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

// EmployeeRepository handles database operations for the employees table
type EmployeeRepository struct {
	db DB
}

// NewEmployeeRepository creates a new EmployeeRepository
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, full_name, check_ins_enabled, work_days,
	   work_start_minutes, work_end_minutes, daily_check_in_target,
	   daily_check_in_target_pending, daily_check_in_target_pending_from,
	   next_check_in_at, created_at, updated_at`

// Create creates a new employee
func (r *EmployeeRepository) Create(employee *models.Employee) error {
	query := `
		INSERT INTO employees (
			id, full_name, check_ins_enabled, work_days,
			work_start_minutes, work_end_minutes, daily_check_in_target
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at, updated_at
	`

	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	if employee.WorkDays == "" {
		employee.WorkDays = models.DefaultWorkDays
	}

	err := r.db.QueryRow(
		query,
		employee.ID, employee.FullName, employee.CheckInsEnabled, employee.WorkDays,
		employee.WorkStartMinutes, employee.WorkEndMinutes, employee.DailyCheckInTarget,
	).Scan(&employee.CreatedAt, &employee.UpdatedAt)

	return err
}

// GetByID retrieves an employee by ID
func (r *EmployeeRepository) GetByID(employeeID uuid.UUID) (*models.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE id = $1
	`

	return r.scanEmployee(r.db.QueryRow(query, employeeID))
}

// GetCheckInsEnabled retrieves all employees with check-ins enabled,
// in stable id order so ticks process them deterministically
func (r *EmployeeRepository) GetCheckInsEnabled() ([]models.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE check_ins_enabled = true
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanEmployees(rows)
}

// List retrieves all employees
func (r *EmployeeRepository) List() ([]models.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		ORDER BY full_name
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanEmployees(rows)
}

// UpdateSchedule persists administrator edits of the check-in schedule
func (r *EmployeeRepository) UpdateSchedule(employee *models.Employee) error {
	query := `
		UPDATE employees
		SET check_ins_enabled = $2,
		    work_days = $3,
		    work_start_minutes = $4,
		    work_end_minutes = $5,
		    daily_check_in_target = $6,
		    daily_check_in_target_pending = $7,
		    daily_check_in_target_pending_from = $8,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(
		query,
		employee.ID, employee.CheckInsEnabled, employee.WorkDays,
		employee.WorkStartMinutes, employee.WorkEndMinutes, employee.DailyCheckInTarget,
		employee.DailyCheckInTargetPending, employee.DailyCheckInTargetPendingFrom,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("employee not found: %s", employee.ID)
	}

	return nil
}

// ApplyPendingTarget promotes a staged daily target and clears the staged
// fields. Conditional on the staged value still being present so concurrent
// generator runs apply it at most once.
func (r *EmployeeRepository) ApplyPendingTarget(employeeID uuid.UUID, target int) (bool, error) {
	query := `
		UPDATE employees
		SET daily_check_in_target = $2,
		    daily_check_in_target_pending = NULL,
		    daily_check_in_target_pending_from = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND daily_check_in_target_pending IS NOT NULL
	`

	result, err := r.db.Exec(query, employeeID, target)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// SetNextCheckInAt stores (or clears) the fallback trigger instant
func (r *EmployeeRepository) SetNextCheckInAt(employeeID uuid.UUID, nextAt *time.Time) error {
	query := `
		UPDATE employees
		SET next_check_in_at = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(query, employeeID, nextAt)
	return err
}

// scanEmployee scans a single employee row
func (r *EmployeeRepository) scanEmployee(row *sql.Row) (*models.Employee, error) {
	var employee models.Employee

	err := row.Scan(
		&employee.ID, &employee.FullName, &employee.CheckInsEnabled, &employee.WorkDays,
		&employee.WorkStartMinutes, &employee.WorkEndMinutes, &employee.DailyCheckInTarget,
		&employee.DailyCheckInTargetPending, &employee.DailyCheckInTargetPendingFrom,
		&employee.NextCheckInAt, &employee.CreatedAt, &employee.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &employee, nil
}

// scanEmployees scans multiple employee rows
func (r *EmployeeRepository) scanEmployees(rows *sql.Rows) ([]models.Employee, error) {
	var employees []models.Employee

	for rows.Next() {
		var employee models.Employee
		err := rows.Scan(
			&employee.ID, &employee.FullName, &employee.CheckInsEnabled, &employee.WorkDays,
			&employee.WorkStartMinutes, &employee.WorkEndMinutes, &employee.DailyCheckInTarget,
			&employee.DailyCheckInTargetPending, &employee.DailyCheckInTargetPendingFrom,
			&employee.NextCheckInAt, &employee.CreatedAt, &employee.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}

	return employees, rows.Err()
}
