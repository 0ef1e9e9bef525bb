// internal/app/scheduling.go
package app

import (
	"context"
	"fmt"

	"sow_tracker/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Scheduler turns reminder candidates into pending notifications, at most one
// per (user, type, dedup key, milestone date).
type Scheduler struct {
	notifRepo notification.Repository
	logger    *logrus.Entry
}

func NewScheduler(nr notification.Repository, logger *logrus.Entry) *Scheduler {
	return &Scheduler{notifRepo: nr, logger: logger.WithField("component", "scheduler")}
}

// EnsureScheduled inserts the candidate unless the same milestone reminder
// already exists. Repeated or concurrent calls insert at most one row; the
// datastore's uniqueness constraint decides, not a prior read.
func (s *Scheduler) EnsureScheduled(ctx context.Context, c notification.Candidate) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, err
	}
	p := &notification.Pending{
		ID:           uuid.New(),
		UserID:       c.UserID,
		Type:         c.Type,
		DedupKey:     c.DedupKey,
		DueOn:        c.DueOn,
		ScheduledFor: c.ScheduledFor,
		Title:        c.Title,
		Body:         c.Body,
	}
	inserted, err := s.notifRepo.InsertIfAbsent(ctx, p)
	if err != nil {
		return false, fmt.Errorf("schedule %s for %s: %w", c.Type, c.DedupKey, err)
	}

	logCtx := s.logger.WithFields(logrus.Fields{
		"notification_type": c.Type,
		"dedup_key":         c.DedupKey,
		"user_id":           c.UserID,
		"due_on":            c.DueOn.Format("2006-01-02"),
	})
	if inserted {
		logCtx.WithField("scheduled_for", c.ScheduledFor).Info("Reminder scheduled")
	} else {
		logCtx.Debug("Reminder already scheduled, skipping")
	}
	return inserted, nil
}

// Cancel removes unsent reminders of the given types for an entity that was
// changed or removed.
func (s *Scheduler) Cancel(ctx context.Context, userID uuid.UUID, dedupKey string, types ...notification.Type) (int64, error) {
	n, err := s.notifRepo.CancelUnsent(ctx, userID, dedupKey, types)
	if err != nil {
		return 0, fmt.Errorf("cancel reminders for %s: %w", dedupKey, err)
	}
	if n > 0 {
		s.logger.WithFields(logrus.Fields{
			"dedup_key": dedupKey,
			"user_id":   userID,
			"cancelled": n,
		}).Info("Pending reminders cancelled")
	}
	return n, nil
}
