// internal/app/delivery_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"sow_tracker/internal/domain/notification"
	domainTelegram "sow_tracker/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

const (
	// MaxDeliveryAttempts is how many failed sends a reminder gets before it
	// is left out of delivery for good.
	MaxDeliveryAttempts = 5
	retryBackoff        = 5 * time.Minute
)

// DeliveryReport counts the outcome of one delivery pass.
type DeliveryReport struct {
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Abandoned int `json:"abandoned,omitempty"`
}

// ReminderDeliverer pushes due reminders to their recipients.
type ReminderDeliverer interface {
	DeliverDue(ctx context.Context) (DeliveryReport, error)
}

// DeliveryRecorder receives delivery outcomes.
type DeliveryRecorder interface {
	ObserveDelivery(t notification.Type, ok bool)
}

// DeliveryServiceImpl implements ReminderDeliverer.
type DeliveryServiceImpl struct {
	notifRepo notification.Repository
	client    domainTelegram.Client
	batchSize int
	now       func() time.Time
	recorder  DeliveryRecorder
	logger    *logrus.Entry
}

func NewDeliveryService(
	nr notification.Repository,
	client domainTelegram.Client,
	batchSize int,
	now func() time.Time,
	recorder DeliveryRecorder,
	logger *logrus.Entry,
) *DeliveryServiceImpl {
	if batchSize <= 0 {
		batchSize = 100
	}
	if now == nil {
		now = time.Now
	}
	return &DeliveryServiceImpl{
		notifRepo: nr,
		client:    client,
		batchSize: batchSize,
		now:       now,
		recorder:  recorder,
		logger:    logger.WithField("component", "delivery"),
	}
}

// DeliverDue sends one batch of due reminders. A failed send leaves the row
// unsent and backs it off exponentially so it cannot hold the head of the
// queue; after MaxDeliveryAttempts failures it is no longer listed.
func (s *DeliveryServiceImpl) DeliverDue(ctx context.Context) (DeliveryReport, error) {
	var report DeliveryReport
	now := s.now()

	due, err := s.notifRepo.ListDue(ctx, now, MaxDeliveryAttempts, s.batchSize)
	if err != nil {
		return report, fmt.Errorf("list due reminders: %w", err)
	}
	if len(due) == 0 {
		s.logger.Debug("No reminders due")
		return report, nil
	}

	for _, d := range due {
		logCtx := s.logger.WithFields(logrus.Fields{
			"notification_id":   d.ID,
			"notification_type": d.Type,
			"user_id":           d.UserID,
		})
		if err := s.client.SendReminder(ctx, d.ChatID, d.Title, d.Body, d.DedupKey); err != nil {
			s.observe(d.Type, false)
			report.Failed++
			attempts := d.Attempts + 1
			if attempts >= MaxDeliveryAttempts {
				report.Abandoned++
				logCtx.WithError(err).WithField("attempts", attempts).Error("Giving up on reminder")
			} else {
				logCtx.WithError(err).WithField("attempts", attempts).Warn("Failed to send reminder, will retry")
			}
			if err := s.notifRepo.RecordFailure(ctx, d.ID, now.Add(RetryDelay(attempts))); err != nil {
				logCtx.WithError(err).Error("Could not record failed delivery")
			}
			continue
		}
		if err := s.notifRepo.MarkSent(ctx, d.ID, s.now()); err != nil {
			logCtx.WithError(err).Error("Reminder sent but could not be marked as sent")
			s.observe(d.Type, false)
			report.Failed++
			continue
		}
		logCtx.Info("Reminder delivered")
		s.observe(d.Type, true)
		report.Sent++
	}
	return report, nil
}

// RetryDelay is the wait after the given number of failed attempts:
// 5m, 10m, 20m and so on.
func RetryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return retryBackoff << (attempts - 1)
}

func (s *DeliveryServiceImpl) observe(t notification.Type, ok bool) {
	if s.recorder != nil {
		s.recorder.ObserveDelivery(t, ok)
	}
}
