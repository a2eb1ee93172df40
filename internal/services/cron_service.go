package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages the scheduled jobs: daily schedule generation and the
// per-minute trigger tick. Expiry sweeping runs on its own loop.
type CronService struct {
	cron           *cron.Cron
	dailyScheduler *DailyScheduleService
	triggerSvc     *TriggerService
	clock          LocalClock
	logger         *logrus.Logger
	dailyTimeOfDay string
}

// NewCronService creates a new CronService. dailyTimeOfDay is the local
// HH:MM at which daily generation runs.
func NewCronService(
	dailyScheduler *DailyScheduleService,
	triggerSvc *TriggerService,
	clock LocalClock,
	logger *logrus.Logger,
	dailyTimeOfDay string,
) *CronService {
	// Seconds precision so ticks land exactly on the minute
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:           c,
		dailyScheduler: dailyScheduler,
		triggerSvc:     triggerSvc,
		clock:          clock,
		logger:         logger,
		dailyTimeOfDay: dailyTimeOfDay,
	}
}

// Start registers and starts all jobs
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service...")

	dailySpec, err := s.dailyCronSpec()
	if err != nil {
		return err
	}

	// Job 1: generate the day's schedule items shortly after local midnight
	if _, err := s.cron.AddFunc(dailySpec, s.generateDailySchedulesJob); err != nil {
		return fmt.Errorf("failed to schedule daily generation job: %w", err)
	}
	s.logger.WithField("local_time", s.dailyTimeOfDay).Info("Scheduled: daily schedule generation")

	// Job 2: trigger tick every minute on the minute
	if _, err := s.cron.AddFunc("0 * * * * *", s.triggerTickJob); err != nil {
		return fmt.Errorf("failed to schedule trigger tick job: %w", err)
	}
	s.logger.Info("Scheduled: trigger tick (every minute)")

	s.cron.Start()
	s.logger.Info("Cron service started")

	return nil
}

// Stop stops all jobs and waits for running ones to finish
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// dailyCronSpec translates the configured local HH:MM into a UTC cron spec
func (s *CronService) dailyCronSpec() (string, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s.dailyTimeOfDay, "%d:%d", &hour, &minute); err != nil {
		return "", fmt.Errorf("invalid daily schedule time %q: %w", s.dailyTimeOfDay, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid daily schedule time %q", s.dailyTimeOfDay)
	}

	utcMinutes := ((hour*60+minute-s.clock.OffsetMinutes())%1440 + 1440) % 1440
	return fmt.Sprintf("0 %d %d * * *", utcMinutes%60, utcMinutes/60), nil
}

func (s *CronService) generateDailySchedulesJob() {
	startTime := time.Now()
	s.logger.Info("[CRON] Starting daily schedule generation...")

	generated, err := s.dailyScheduler.GenerateDailySchedules(time.Now().UTC())
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Daily schedule generation failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"generated": generated,
		"duration":  time.Since(startTime).String(),
	}).Info("[CRON] Daily schedule generation completed")
}

func (s *CronService) triggerTickJob() {
	if err := s.triggerSvc.Tick(time.Now().UTC()); err != nil {
		s.logger.WithError(err).Error("[CRON] Trigger tick failed")
	}
}

// RunDailyGenerationNow runs the daily generation job immediately
func (s *CronService) RunDailyGenerationNow() error {
	s.logger.Info("[MANUAL] Running daily schedule generation now...")
	s.generateDailySchedulesJob()
	return nil
}

// RunTriggerTickNow runs a trigger tick immediately
func (s *CronService) RunTriggerTickNow() error {
	s.logger.Info("[MANUAL] Running trigger tick now...")
	s.triggerTickJob()
	return nil
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
