package scheduler

import (
	"context"
	"fmt"
	"time"

	"sow_tracker/internal/app"
	"sow_tracker/internal/domain/user"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	sweepTimeout    = 5 * time.Minute
	deliveryTimeout = 1 * time.Minute
)

type ReminderScheduler struct {
	cronEngine       *cron.Cron
	sweeper          app.ReminderSweeper
	deliverer        app.ReminderDeliverer
	logger           *logrus.Entry
	cronSpecSweep    string
	cronSpecDelivery string
}

func NewReminderScheduler(
	sweeper app.ReminderSweeper,
	deliverer app.ReminderDeliverer,
	logger *logrus.Entry,
	location *time.Location, // farm timezone the cron specs are read in
	cronSpecSweep string, // e.g., "0 6 * * *" (06:00 daily)
	cronSpecDelivery string, // e.g., "* * * * *" (every minute)
) *ReminderScheduler {
	if location == nil {
		location = time.UTC
	}
	logger = logger.WithField("component", "cron")
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger)), cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		sweeper:          sweeper,
		deliverer:        deliverer,
		logger:           logger,
		cronSpecSweep:    cronSpecSweep,
		cronSpecDelivery: cronSpecDelivery,
	}
}

// Start registers the sweep and delivery jobs and starts the cron engine.
// A nil deliverer registers only the sweep.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecSweep, s.SweepJob); err != nil {
		return fmt.Errorf("could not add sweep cron job %q: %w", s.cronSpecSweep, err)
	}
	if s.deliverer != nil {
		if _, err := s.cronEngine.AddFunc(s.cronSpecDelivery, s.DeliveryJob); err != nil {
			return fmt.Errorf("could not add delivery cron job %q: %w", s.cronSpecDelivery, err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"sweep":    s.cronSpecSweep,
		"delivery": s.cronSpecDelivery,
	}).Info("Reminder scheduler started with jobs.")
	return nil
}

// SweepJob runs one sweep across every organization.
func (s *ReminderScheduler) SweepJob() {
	s.logger.Info("Cron job triggered for reminder sweep.")
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	summary := s.sweeper.RunSweep(ctx, user.All())
	if len(summary.Errors) > 0 {
		s.logger.WithField("errors", summary.Errors).Warn("Reminder sweep finished with errors")
	}
}

// DeliveryJob pushes one batch of due reminders.
func (s *ReminderScheduler) DeliveryJob() {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	report, err := s.deliverer.DeliverDue(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error during reminder delivery")
		return
	}
	if report.Sent+report.Failed > 0 {
		s.logger.WithFields(logrus.Fields{"sent": report.Sent, "failed": report.Failed}).Info("Reminder delivery pass finished")
	}
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
