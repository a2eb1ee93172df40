package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marchelxyz/GeoCheck-sub000/internal/database"
	"github.com/marchelxyz/GeoCheck-sub000/pkg/notifier"
)

// ExpirySweeper periodically reaps check-in requests whose deadline has
// passed. The reap is a single conditional update returning the affected
// rows, so each expired request is observed by exactly one sweep and its
// notification is retracted exactly once.
type ExpirySweeper struct {
	requestRepo *database.CheckInRequestRepository
	notifier    notifier.Notifier
	logger      *logrus.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewExpirySweeper creates a new ExpirySweeper
func NewExpirySweeper(
	requestRepo *database.CheckInRequestRepository,
	n notifier.Notifier,
	logger *logrus.Logger,
	interval time.Duration,
) *ExpirySweeper {
	return &ExpirySweeper{
		requestRepo: requestRepo,
		notifier:    n,
		logger:      logger,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start launches the background sweep loop
func (s *ExpirySweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn("Expiry sweeper already running")
		return
	}

	s.running = true
	s.wg.Add(1)
	go s.run()

	s.logger.WithField("interval", s.interval).Info("Expiry sweeper started")
}

// Stop terminates the background loop and waits for it to exit
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopCh)
	s.wg.Wait()
	s.running = false

	s.logger.Info("Expiry sweeper stopped")
}

func (s *ExpirySweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(); err != nil {
				s.logger.WithError(err).Error("Expiry sweep failed")
			}
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single sweep at the current time
func (s *ExpirySweeper) RunOnce() (int, error) {
	return s.SweepExpired(time.Now().UTC())
}

// SweepExpired marks every pending request past its deadline as missed and
// retracts the outstanding notifications. Returns the number of requests
// reaped.
func (s *ExpirySweeper) SweepExpired(now time.Time) (int, error) {
	reaped, err := s.requestRepo.ExpireDue(now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire due requests: %w", err)
	}

	for _, rr := range reaped {
		if rr.NotificationHandle == nil || *rr.NotificationHandle == "" {
			continue
		}
		if err := s.notifier.Retract(rr.EmployeeID, *rr.NotificationHandle); err != nil {
			s.logger.WithError(err).WithField("request_id", rr.ID).Warn("Failed to retract notification for missed check-in")
		}
	}

	if len(reaped) > 0 {
		s.logger.WithField("reaped", len(reaped)).Info("Expired check-in requests marked missed")
	}

	return len(reaped), nil
}
