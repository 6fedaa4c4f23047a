package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron        *cron.Cron
	archivalSvc *ArchivalService
	sweepSpec   string
	logger      *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(archivalSvc *ArchivalService, sweepSpec string, logger *logrus.Logger) *CronService {
	// Cron with seconds precision, matching the configured spec format
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:        c,
		archivalSvc: archivalSvc,
		sweepSpec:   sweepSpec,
		logger:      logger,
	}
}

// Start schedules all jobs and starts the scheduler.
func (s *CronService) Start() error {
	// Archive expired journeys on the configured cadence (hourly by
	// default). Failures are logged and retried on the next tick.
	_, err := s.cron.AddFunc(s.sweepSpec, s.archiveExpiredJourneysJob)
	if err != nil {
		return fmt.Errorf("failed to schedule archival sweep: %w", err)
	}
	s.logger.WithField("spec", s.sweepSpec).Info("Scheduled: archive expired journeys")

	s.cron.Start()
	s.logger.Info("Cron service started")

	return nil
}

// Stop stops all cron jobs and waits for running jobs to finish.
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// archiveExpiredJourneysJob runs one archival sweep.
func (s *CronService) archiveExpiredJourneysJob() {
	startTime := time.Now()

	result, err := s.archivalSvc.SweepExpired()
	if err != nil {
		s.logger.WithError(err).Error("Archival sweep failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"archived": result.Archived,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
		"duration": time.Since(startTime).String(),
	}).Info("Archival sweep job finished")
}

// RunSweepNow runs the archival sweep immediately, outside the
// schedule. Used by the admin trigger endpoint and the sweep binary.
func (s *CronService) RunSweepNow() error {
	s.logger.Info("Running archival sweep manually")
	_, err := s.archivalSvc.SweepExpired()
	return err
}
