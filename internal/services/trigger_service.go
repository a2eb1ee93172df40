package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marchelxyz/GeoCheck-sub000/internal/database"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

// Scheduling bounds for the fallback next-instant search
const (
	// fallbackMinDelayMinutes keeps a freshly computed trigger at least
	// this far in the future
	fallbackMinDelayMinutes = 25

	// fallbackMaxDelayMinutes bounds how far past the effective window
	// start a fallback trigger may land
	fallbackMaxDelayMinutes = 95

	// fallbackSearchHorizonDays caps the forward day search; past it the
	// employee stays unscheduled until circumstances change
	fallbackSearchHorizonDays = 14

	// Short-horizon fallback used when an employee inside their window has
	// no schedule items and no stored next instant
	shortHorizonMinMinutes = 5
	shortHorizonMaxMinutes = 15

	// windowSlackMinutes of room is always left before window end
	windowSlackMinutes = 1
)

// TriggerService is the recurring tick that promotes due schedule items, or
// a computed fallback instant, into live check-in requests. It never issues
// a second challenge while one is pending: the stored state decides, so
// overlapping ticks and multiple processes stay safe.
type TriggerService struct {
	employeeRepo *database.EmployeeRepository
	itemRepo     *database.ScheduleItemRepository
	requestRepo  *database.CheckInRequestRepository
	checkInSvc   *CheckInService
	clock        LocalClock
	logger       *logrus.Logger
	rng          *rand.Rand
}

// NewTriggerService creates a new TriggerService. A nil source seeds from
// the wall clock; tests inject a fixed source.
func NewTriggerService(
	employeeRepo *database.EmployeeRepository,
	itemRepo *database.ScheduleItemRepository,
	requestRepo *database.CheckInRequestRepository,
	checkInSvc *CheckInService,
	clock LocalClock,
	logger *logrus.Logger,
	source rand.Source,
) *TriggerService {
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}

	return &TriggerService{
		employeeRepo: employeeRepo,
		itemRepo:     itemRepo,
		requestRepo:  requestRepo,
		checkInSvc:   checkInSvc,
		clock:        clock,
		logger:       logger,
		rng:          rand.New(source),
	}
}

// Tick runs one scheduling pass over all enabled employees. Per-employee
// failures are logged and do not stop the pass.
func (s *TriggerService) Tick(now time.Time) error {
	employees, err := s.employeeRepo.GetCheckInsEnabled()
	if err != nil {
		return fmt.Errorf("failed to fetch enabled employees: %w", err)
	}

	for i := range employees {
		if err := s.tickEmployee(&employees[i], now); err != nil {
			s.logger.WithError(err).WithField("employee_id", employees[i].ID).Error("Trigger tick failed for employee")
		}
	}

	return nil
}

func (s *TriggerService) tickEmployee(employee *models.Employee, now time.Time) error {
	hasPending, err := s.requestRepo.HasPending(employee.ID)
	if err != nil {
		return fmt.Errorf("failed to check pending request: %w", err)
	}

	if hasPending {
		return s.resolveSchedulingPressure(employee, now)
	}

	dueItem, err := s.itemRepo.GetEarliestDuePending(employee.ID, now)
	if err != nil {
		return fmt.Errorf("failed to query due schedule items: %w", err)
	}

	var dueAt time.Time
	switch {
	case dueItem != nil:
		dueAt = dueItem.ScheduledAt

	case employee.NextCheckInAt != nil:
		dueAt = *employee.NextCheckInAt

	case s.clock.IsWithinWorkWindow(employee, now):
		// Nothing scheduled yet but the employee is working right now:
		// set a short-horizon trigger instead of waiting for tomorrow
		delay := shortHorizonMinMinutes + s.rng.Intn(shortHorizonMaxMinutes-shortHorizonMinMinutes+1)
		at := now.Add(time.Duration(delay) * time.Minute)
		return s.storeNextCheckIn(employee, &at)

	default:
		next := s.computeNextInstant(employee, now)
		return s.storeNextCheckIn(employee, next)
	}

	if dueAt.After(now) {
		// Not due yet: the stored instant is a hint that must survive
		// work-window edits, so revalidate it against the live config
		if employee.NextCheckInAt != nil && !s.isValidFutureInstant(employee, *employee.NextCheckInAt, now) {
			next := s.computeNextInstant(employee, now)
			return s.storeNextCheckIn(employee, next)
		}
		return nil
	}

	if dueItem != nil {
		consumed, err := s.itemRepo.MarkSent(dueItem.ID)
		if err != nil {
			return fmt.Errorf("failed to mark schedule item sent: %w", err)
		}
		if !consumed {
			// Another tick took this item first
			return nil
		}
	}

	if _, err := s.checkInSvc.issue(employee, now); err != nil {
		return err
	}

	next := s.computeNextInstant(employee, now)
	return s.storeNextCheckIn(employee, next)
}

// resolveSchedulingPressure handles a due trigger arriving while a request
// is still open: the competing schedule items are skipped, never fired, and
// the fallback instant is pushed forward.
func (s *TriggerService) resolveSchedulingPressure(employee *models.Employee, now time.Time) error {
	fallbackDue := employee.NextCheckInAt != nil && !employee.NextCheckInAt.After(now)

	skipped, err := s.itemRepo.MarkDueSkipped(employee.ID, now)
	if err != nil {
		return fmt.Errorf("failed to skip due schedule items: %w", err)
	}

	if skipped == 0 && !fallbackDue {
		return nil
	}

	if skipped > 0 {
		s.logger.WithFields(logrus.Fields{
			"employee_id": employee.ID,
			"skipped":     skipped,
		}).Info("Skipped due schedule items: request already pending")
	}

	next := s.computeNextInstant(employee, now)
	return s.storeNextCheckIn(employee, next)
}

// storeNextCheckIn persists the fallback instant when it changed
func (s *TriggerService) storeNextCheckIn(employee *models.Employee, next *time.Time) error {
	if equalInstant(employee.NextCheckInAt, next) {
		return nil
	}

	if err := s.employeeRepo.SetNextCheckInAt(employee.ID, next); err != nil {
		return fmt.Errorf("failed to store next check-in instant: %w", err)
	}
	employee.NextCheckInAt = next

	return nil
}

// computeNextInstant searches forward for the next valid trigger instant:
// the first working day whose window still has room, with a randomized
// delay of 25-95 minutes past the effective window start. Returns nil when
// no instant exists within the 14-day horizon.
func (s *TriggerService) computeNextInstant(employee *models.Employee, now time.Time) *time.Time {
	start, end := models.NormalizeWorkWindow(employee.WorkStartMinutes, employee.WorkEndMinutes)

	localNow := s.clock.ToLocal(now)
	localMidnight := s.clock.LocalMidnight(now)

	for dayOffset := 0; dayOffset < fallbackSearchHorizonDays; dayOffset++ {
		day := localMidnight.AddDate(0, 0, dayOffset)
		if !employee.IsWorkingDay(day) {
			continue
		}

		windowStart := day.Add(time.Duration(start) * time.Minute)
		windowEnd := day.Add(time.Duration(end) * time.Minute)

		earliest := windowStart
		if dayOffset == 0 {
			candidate := localNow.Add(fallbackMinDelayMinutes * time.Minute)
			if candidate.After(earliest) {
				earliest = candidate
			}
		}

		latest := earliest.Add(fallbackMaxDelayMinutes * time.Minute)
		if margin := windowEnd.Add(-windowSlackMinutes * time.Minute); latest.After(margin) {
			latest = margin
		}

		if latest.Before(earliest) {
			// Window already exhausted this day
			continue
		}

		span := latest.Sub(earliest)
		at := earliest
		if span > 0 {
			at = earliest.Add(time.Duration(s.rng.Int63n(int64(span) + 1)))
		}

		utc := s.clock.ToUTC(at)
		return &utc
	}

	return nil
}

// isValidFutureInstant reports whether a stored trigger instant is still
// consistent with the employee's current work-day and window configuration
func (s *TriggerService) isValidFutureInstant(employee *models.Employee, at, now time.Time) bool {
	if at.Before(now) {
		return false
	}

	local := s.clock.ToLocal(at)
	if !employee.IsWorkingDay(local) {
		return false
	}

	start, end := models.NormalizeWorkWindow(employee.WorkStartMinutes, employee.WorkEndMinutes)
	minutes := MinutesIntoDay(local)
	return minutes >= start && minutes < end
}

func equalInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
