package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/marchelxyz/GeoCheck-sub000/internal/database"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
	"github.com/marchelxyz/GeoCheck-sub000/internal/services"
)

// EmployeeHandler serves the administrator endpoints for employees and
// their check-in schedules
type EmployeeHandler struct {
	employeeRepo *database.EmployeeRepository
	itemRepo     *database.ScheduleItemRepository
	checkInSvc   *services.CheckInService
	clock        services.LocalClock
	logger       *logrus.Logger
}

// NewEmployeeHandler creates a new EmployeeHandler
func NewEmployeeHandler(
	employeeRepo *database.EmployeeRepository,
	itemRepo *database.ScheduleItemRepository,
	checkInSvc *services.CheckInService,
	clock services.LocalClock,
	logger *logrus.Logger,
) *EmployeeHandler {
	return &EmployeeHandler{
		employeeRepo: employeeRepo,
		itemRepo:     itemRepo,
		checkInSvc:   checkInSvc,
		clock:        clock,
		logger:       logger,
	}
}

// CreateEmployeeRequest represents the request to register an employee
type CreateEmployeeRequest struct {
	FullName           string `json:"full_name" binding:"required"`
	CheckInsEnabled    bool   `json:"check_ins_enabled"`
	WorkDays           []int  `json:"work_days,omitempty"`
	WorkStartMinutes   *int   `json:"work_start_minutes,omitempty"`
	WorkEndMinutes     *int   `json:"work_end_minutes,omitempty"`
	DailyCheckInTarget int    `json:"daily_check_in_target"`
}

// Create registers a new employee
// POST /api/v1/admin/employees
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.DailyCheckInTarget < 0 || req.DailyCheckInTarget > models.MaxDailyCheckInTarget {
		c.JSON(http.StatusBadRequest, gin.H{"error": "daily_check_in_target must be between 0 and 20"})
		return
	}

	employee := &models.Employee{
		FullName:           req.FullName,
		CheckInsEnabled:    req.CheckInsEnabled,
		WorkStartMinutes:   models.DefaultWorkStartMinutes,
		WorkEndMinutes:     models.DefaultWorkEndMinutes,
		DailyCheckInTarget: req.DailyCheckInTarget,
	}
	if len(req.WorkDays) > 0 {
		employee.SetWorkDaysFromSlice(req.WorkDays)
	}
	if req.WorkStartMinutes != nil && req.WorkEndMinutes != nil {
		employee.WorkStartMinutes, employee.WorkEndMinutes =
			models.NormalizeWorkWindow(*req.WorkStartMinutes, *req.WorkEndMinutes)
	}

	if err := h.employeeRepo.Create(employee); err != nil {
		h.logger.WithError(err).Error("Failed to create employee")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create employee"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"employee": employee})
}

// List returns all employees
// GET /api/v1/admin/employees
func (h *EmployeeHandler) List(c *gin.Context) {
	employees, err := h.employeeRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch employees"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

// Get returns a single employee
// GET /api/v1/admin/employees/:id
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"employee": employee})
}

// UpdateSchedule edits an employee's check-in schedule. A changed daily
// target never takes effect mid-day: it is staged to the next local day and
// applied by the next generation run.
// PUT /api/v1/admin/employees/:id/schedule
func (h *EmployeeHandler) UpdateSchedule(c *gin.Context) {
	employee, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	var req models.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.CheckInsEnabled != nil {
		employee.CheckInsEnabled = *req.CheckInsEnabled
	}
	if req.WorkDays != nil {
		employee.SetWorkDaysFromSlice(req.WorkDays)
	}
	if req.WorkStartMinutes != nil && req.WorkEndMinutes != nil {
		employee.WorkStartMinutes = *req.WorkStartMinutes
		employee.WorkEndMinutes = *req.WorkEndMinutes
	}

	if req.DailyCheckInTarget != nil {
		if *req.DailyCheckInTarget == employee.DailyCheckInTarget {
			// Back to the current value: drop any staged change
			employee.DailyCheckInTargetPending = nil
			employee.DailyCheckInTargetPendingFrom = nil
		} else {
			nextDay := h.clock.LocalMidnight(time.Now().UTC()).AddDate(0, 0, 1)
			employee.DailyCheckInTargetPending = req.DailyCheckInTarget
			employee.DailyCheckInTargetPendingFrom = &nextDay
		}
	}

	if err := h.employeeRepo.UpdateSchedule(employee); err != nil {
		h.logger.WithError(err).WithField("employee_id", employee.ID).Error("Failed to update schedule")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update schedule"})
		return
	}

	// A disabled or reconfigured employee gets a fresh fallback on the next
	// tick; clearing the stored instant avoids firing a stale one meanwhile
	if err := h.employeeRepo.SetNextCheckInAt(employee.ID, nil); err != nil {
		h.logger.WithError(err).WithField("employee_id", employee.ID).Warn("Failed to clear stored trigger instant")
	}
	employee.NextCheckInAt = nil

	c.JSON(http.StatusOK, gin.H{"employee": employee})
}

// RequestCheckIn issues an immediate on-demand check-in challenge
// POST /api/v1/admin/employees/:id/checkins
func (h *EmployeeHandler) RequestCheckIn(c *gin.Context) {
	employee, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	request, err := h.checkInSvc.RequestCheckIn(employee.ID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}
		h.logger.WithError(err).WithField("employee_id", employee.ID).Error("Failed to issue check-in")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue check-in"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// GetScheduleItems returns an employee's generated items for one local day
// GET /api/v1/admin/employees/:id/schedule-items?date=2026-08-31
func (h *EmployeeHandler) GetScheduleItems(c *gin.Context) {
	employee, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	dateStr := c.Query("date")
	var localDay time.Time
	if dateStr == "" {
		localDay = h.clock.LocalMidnight(time.Now().UTC())
	} else {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
			return
		}
		localDay = parsed
	}

	from := h.clock.ToUTC(localDay)
	to := h.clock.ToUTC(localDay.AddDate(0, 0, 1))

	items, err := h.itemRepo.GetForEmployeeBetween(employee.ID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch schedule items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *EmployeeHandler) loadEmployee(c *gin.Context) (*models.Employee, bool) {
	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee ID"})
		return nil, false
	}

	employee, err := h.employeeRepo.GetByID(employeeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch employee"})
		return nil, false
	}
	if employee == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		return nil, false
	}

	return employee, true
}
