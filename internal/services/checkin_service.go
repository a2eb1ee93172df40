package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/marchelxyz/GeoCheck-sub000/internal/database"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
	"github.com/marchelxyz/GeoCheck-sub000/pkg/notifier"
)

// CheckInService drives a single challenge through its lifecycle: issuance,
// evidence submission, finalization, and supersession. Terminal transitions
// go through the repository's conditional updates so concurrent sweeps and
// submissions settle on exactly one outcome.
type CheckInService struct {
	employeeRepo *database.EmployeeRepository
	requestRepo  *database.CheckInRequestRepository
	resultRepo   *database.CheckInResultRepository
	zoneRepo     *database.ZoneRepository
	notifier     notifier.Notifier
	logger       *logrus.Logger

	deadline      time.Duration
	actionBaseURL string
}

// NewCheckInService creates a new CheckInService
func NewCheckInService(
	employeeRepo *database.EmployeeRepository,
	requestRepo *database.CheckInRequestRepository,
	resultRepo *database.CheckInResultRepository,
	zoneRepo *database.ZoneRepository,
	n notifier.Notifier,
	logger *logrus.Logger,
	deadlineMinutes int,
	actionBaseURL string,
) *CheckInService {
	return &CheckInService{
		employeeRepo:  employeeRepo,
		requestRepo:   requestRepo,
		resultRepo:    resultRepo,
		zoneRepo:      zoneRepo,
		notifier:      n,
		logger:        logger,
		deadline:      time.Duration(deadlineMinutes) * time.Minute,
		actionBaseURL: actionBaseURL,
	}
}

// RequestCheckIn issues an on-demand challenge. An outstanding pending
// request is first superseded (forced to missed) in a single conditional
// update, so the single-pending invariant holds even under concurrent calls.
func (s *CheckInService) RequestCheckIn(employeeID uuid.UUID, now time.Time) (*models.CheckInRequest, error) {
	employee, err := s.employeeRepo.GetByID(employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if employee == nil {
		return nil, ErrNotFound
	}

	reaped, err := s.requestRepo.SupersedePending(employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to supersede pending request: %w", err)
	}
	for _, rr := range reaped {
		s.retract(rr.EmployeeID, rr.NotificationHandle)
	}

	return s.issue(employee, now)
}

// issue creates a fresh pending request and notifies the employee. Used by
// both the on-demand path and the trigger scheduler. The insert itself is
// conditional on no pending request existing, so a race between issuers
// leaves exactly one open challenge.
func (s *CheckInService) issue(employee *models.Employee, now time.Time) (*models.CheckInRequest, error) {
	request := &models.CheckInRequest{
		EmployeeID:  employee.ID,
		Status:      models.CheckInStatusPending,
		RequestedAt: now,
		ExpiresAt:   now.Add(s.deadline),
	}

	inserted, err := s.requestRepo.Create(request)
	if err != nil {
		return nil, fmt.Errorf("failed to create check-in request: %w", err)
	}
	if !inserted {
		// A competing issuer won; its row is the single open challenge
		s.logger.WithField("employee_id", employee.ID).Info("Check-in request already pending, issue skipped")
		return s.requestRepo.GetPendingByEmployee(employee.ID)
	}

	actionURL := fmt.Sprintf("%s/%s", s.actionBaseURL, request.ID)
	message := fmt.Sprintf("Check-in required within %d minutes", int(s.deadline.Minutes()))

	handle, err := s.notifier.Send(employee.ID, message, actionURL)
	if err != nil {
		// Notification delivery never rolls back the request
		s.logger.WithError(err).WithField("request_id", request.ID).Error("Failed to send check-in notification")
	} else if err := s.requestRepo.SetNotificationHandle(request.ID, handle); err != nil {
		s.logger.WithError(err).WithField("request_id", request.ID).Error("Failed to store notification handle")
	} else {
		request.NotificationHandle = &handle
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":  request.ID,
		"employee_id": employee.ID,
		"expires_at":  request.ExpiresAt,
	}).Info("Check-in request issued")

	return request, nil
}

// SubmitLocation records a GPS fix for a pending request, evaluates it
// against the employee's zones, and finalizes the request if the photo is
// already present. A submission past the deadline gets ErrExpired no matter
// whether the sweeper has reaped the request yet.
func (s *CheckInService) SubmitLocation(requestID uuid.UUID, lat, lon float64, now time.Time) (*models.CheckInResult, error) {
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load check-in request: %w", err)
	}
	if request == nil {
		return nil, ErrNotFound
	}

	if err := s.rejectIfClosed(request, now); err != nil {
		return nil, err
	}

	zones, err := s.zoneRepo.GetZonesForEmployee(request.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee zones: %w", err)
	}

	evaluation := EvaluateGeofence(lat, lon, zones)

	err = s.resultRepo.UpsertLocation(
		requestID, lat, lon,
		evaluation.IsWithinZone, evaluation.DistanceToZone, evaluation.NearestZoneID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store location result: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":     requestID,
		"is_within_zone": evaluation.IsWithinZone,
	}).Info("Location submitted")

	if _, err := s.FinalizeIfReady(requestID); err != nil {
		return nil, err
	}

	return s.resultRepo.GetByRequestID(requestID)
}

// SubmitPhoto records a photo reference for a pending request and finalizes
// it if the location is already present. Resubmitting a photo to an
// already-completed request returns ErrAlreadyCompleted, which callers treat
// as a benign acknowledgement.
func (s *CheckInService) SubmitPhoto(requestID uuid.UUID, photoRef string, now time.Time) error {
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return fmt.Errorf("failed to load check-in request: %w", err)
	}
	if request == nil {
		return ErrNotFound
	}

	if err := s.rejectIfClosed(request, now); err != nil {
		return err
	}

	if err := s.resultRepo.UpsertPhoto(requestID, photoRef); err != nil {
		return fmt.Errorf("failed to store photo reference: %w", err)
	}

	s.logger.WithField("request_id", requestID).Info("Photo submitted")

	_, err = s.FinalizeIfReady(requestID)
	return err
}

// FinalizeIfReady transitions a pending request to completed once its
// result carries both a real location (not the (0,0) placeholder) and a
// photo reference. On success the outstanding notification is retracted
// best-effort.
func (s *CheckInService) FinalizeIfReady(requestID uuid.UUID) (bool, error) {
	result, err := s.resultRepo.GetByRequestID(requestID)
	if err != nil {
		return false, fmt.Errorf("failed to load check-in result: %w", err)
	}
	if result == nil || !result.HasLocation() || !result.HasPhoto() {
		return false, nil
	}

	completed, err := s.requestRepo.CompleteIfPending(requestID)
	if err != nil {
		return false, fmt.Errorf("failed to complete check-in request: %w", err)
	}
	if !completed {
		return false, nil
	}

	request, err := s.requestRepo.GetByID(requestID)
	if err == nil && request != nil {
		s.retract(request.EmployeeID, request.NotificationHandle)
	}

	s.logger.WithField("request_id", requestID).Info("Check-in request completed")
	return true, nil
}

// GetCurrentRequest returns the employee's open challenge, or nil
func (s *CheckInService) GetCurrentRequest(employeeID uuid.UUID) (*models.CheckInRequest, error) {
	return s.requestRepo.GetPendingByEmployee(employeeID)
}

// GetResult returns the evidence submitted so far for a request, or nil
func (s *CheckInService) GetResult(requestID uuid.UUID) (*models.CheckInResult, error) {
	return s.resultRepo.GetByRequestID(requestID)
}

// rejectIfClosed enforces the submission preconditions. A request observed
// pending-but-expired is forced to missed right here, so the submitter and
// the sweeper agree on the outcome regardless of which one wins the race.
func (s *CheckInService) rejectIfClosed(request *models.CheckInRequest, now time.Time) error {
	switch request.Status {
	case models.CheckInStatusCompleted:
		return ErrAlreadyCompleted
	case models.CheckInStatusMissed:
		return ErrExpired
	}

	if request.IsExpired(now) {
		missed, err := s.requestRepo.MarkMissedIfPending(request.ID)
		if err != nil {
			s.logger.WithError(err).WithField("request_id", request.ID).Error("Failed to mark expired request missed")
		}
		if missed {
			s.retract(request.EmployeeID, request.NotificationHandle)
		}
		return ErrExpired
	}

	return nil
}

// retract withdraws an outstanding notification. Failures are logged and
// swallowed: retraction never blocks a state transition.
func (s *CheckInService) retract(employeeID uuid.UUID, handle *string) {
	if handle == nil || *handle == "" {
		return
	}

	if err := s.notifier.Retract(employeeID, *handle); err != nil {
		s.logger.WithError(err).WithField("employee_id", employeeID).Warn("Failed to retract notification")
	}
}
