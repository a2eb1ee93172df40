package services

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marchelxyz/GeoCheck-sub000/internal/database"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

// DailyScheduleService materializes each employee's randomized candidate
// trigger instants once per local calendar day. Invoking it again for the
// same day is a no-op per employee: the day's items are inserted through a
// guarded statement that refuses to touch an already-materialized day, so
// concurrent runs cannot duplicate a schedule.
type DailyScheduleService struct {
	employeeRepo *database.EmployeeRepository
	itemRepo     *database.ScheduleItemRepository
	clock        LocalClock
	logger       *logrus.Logger

	minGapMinutes int
	rng           *rand.Rand
}

// NewDailyScheduleService creates a new DailyScheduleService. A nil source
// seeds from the wall clock; tests inject a fixed source for deterministic
// slot selection.
func NewDailyScheduleService(
	employeeRepo *database.EmployeeRepository,
	itemRepo *database.ScheduleItemRepository,
	clock LocalClock,
	logger *logrus.Logger,
	minGapMinutes int,
	source rand.Source,
) *DailyScheduleService {
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}

	return &DailyScheduleService{
		employeeRepo:  employeeRepo,
		itemRepo:      itemRepo,
		clock:         clock,
		logger:        logger,
		minGapMinutes: minGapMinutes,
		rng:           rand.New(source),
	}
}

// GenerateDailySchedules generates today's schedule items for every
// enabled employee working today. Per-employee failures are logged and do
// not stop the run.
func (s *DailyScheduleService) GenerateDailySchedules(now time.Time) (int, error) {
	employees, err := s.employeeRepo.GetCheckInsEnabled()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch enabled employees: %w", err)
	}

	totalGenerated := 0

	for i := range employees {
		generated, err := s.generateForEmployee(&employees[i], now)
		if err != nil {
			s.logger.WithError(err).WithField("employee_id", employees[i].ID).Error("Failed to generate daily schedule")
			continue
		}
		totalGenerated += generated
	}

	s.logger.WithFields(logrus.Fields{
		"employees": len(employees),
		"generated": totalGenerated,
	}).Info("Daily schedule generation completed")

	return totalGenerated, nil
}

// generateForEmployee generates one employee's items for the local day
// containing now
func (s *DailyScheduleService) generateForEmployee(employee *models.Employee, now time.Time) (int, error) {
	localNow := s.clock.ToLocal(now)
	localMidnight := s.clock.LocalMidnight(now)

	// A staged target change becomes effective at the first generation on
	// or after its effective date, so an in-progress day is never perturbed
	if employee.DailyCheckInTargetPending != nil && employee.DailyCheckInTargetPendingFrom != nil {
		effectiveFrom := *employee.DailyCheckInTargetPendingFrom
		if !localMidnight.Before(effectiveFrom) {
			applied, err := s.employeeRepo.ApplyPendingTarget(employee.ID, *employee.DailyCheckInTargetPending)
			if err != nil {
				return 0, fmt.Errorf("failed to apply staged target: %w", err)
			}
			if applied {
				employee.DailyCheckInTarget = *employee.DailyCheckInTargetPending
			}
		}
	}

	if !employee.IsWorkingDay(localNow) {
		return 0, nil
	}

	if employee.DailyCheckInTarget <= 0 {
		return 0, nil
	}

	dayFrom, dayTo := s.clock.LocalDayBoundsUTC(now)
	existing, err := s.itemRepo.CountForEmployeeBetween(employee.ID, dayFrom, dayTo)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing schedule items: %w", err)
	}
	if existing > 0 {
		// Already generated today. This is only a fast path: the insert
		// below carries its own day guard.
		return 0, nil
	}

	start, end := models.NormalizeWorkWindow(employee.WorkStartMinutes, employee.WorkEndMinutes)

	slotCount := (end - start) / s.minGapMinutes
	if slotCount <= 0 {
		return 0, nil
	}

	count := employee.DailyCheckInTarget
	if count > slotCount {
		count = slotCount
	}

	// Distinct slots chosen uniformly without replacement; the second is
	// randomized inside each slot so timestamps never look periodic
	slots := s.rng.Perm(slotCount)[:count]
	sort.Ints(slots)

	items := make([]*models.ScheduleItem, 0, count)
	for _, slot := range slots {
		minute := start + slot*s.minGapMinutes
		second := s.rng.Intn(60)
		localAt := localMidnight.Add(time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)

		items = append(items, &models.ScheduleItem{
			EmployeeID:  employee.ID,
			ScheduledAt: s.clock.ToUTC(localAt),
			Status:      models.ScheduleItemStatusPending,
		})
	}

	created, err := s.itemRepo.CreateForDay(items, dayFrom, dayTo)
	if err != nil {
		return 0, fmt.Errorf("failed to create schedule items: %w", err)
	}
	if created == 0 {
		// A concurrent run materialized the day between the count check
		// and the insert
		return 0, nil
	}

	return created, nil
}
