// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sow_tracker/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Array and driver registration
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

var _ notification.Repository = (*PostgresNotificationRepository)(nil)

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// InsertIfAbsent relies on pending_notifications_milestone_uniq: concurrent
// callers race on the constraint and exactly one insert wins.
func (r *PostgresNotificationRepository) InsertIfAbsent(ctx context.Context, p *notification.Pending) (bool, error) {
	query := `INSERT INTO pending_notifications (id, user_id, type, dedup_key, due_on, scheduled_for, title, body)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               ON CONFLICT ON CONSTRAINT pending_notifications_milestone_uniq DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Type, p.DedupKey, dateParam(p.DueOn), p.ScheduledFor.UTC(), p.Title, p.Body,
	)
	if err != nil {
		return false, fmt.Errorf("error inserting pending notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error inserting pending notification: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresNotificationRepository) ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*notification.Due, error) {
	query := `SELECT pn.id, pn.user_id, pn.type, pn.dedup_key, pn.due_on, pn.scheduled_for, pn.title, pn.body,
                     pn.sent, pn.sent_at, pn.created_at, pn.attempts, pn.next_attempt_at, u.telegram_chat_id
               FROM pending_notifications pn
               JOIN users u ON u.id = pn.user_id
               WHERE NOT pn.sent
                 AND COALESCE(pn.next_attempt_at, pn.scheduled_for) <= $1
                 AND pn.scheduled_for <= $1
                 AND pn.attempts < $2
                 AND u.is_active
                 AND u.telegram_chat_id IS NOT NULL
               ORDER BY COALESCE(pn.next_attempt_at, pn.scheduled_for), pn.due_on
               LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, now.UTC(), maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying due notifications: %w", err)
	}
	defer rows.Close()

	due := make([]*notification.Due, 0)
	for rows.Next() {
		d := notification.Due{}
		if err := scanPending(rows, &d.Pending, &d.ChatID); err != nil {
			return nil, err
		}
		due = append(due, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due notification rows: %w", err)
	}
	return due, nil
}

func (r *PostgresNotificationRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pending_notifications SET sent = TRUE, sent_at = $1 WHERE id = $2 AND NOT sent`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("error marking notification sent: %w", err)
	}
	return expectOne(res, notification.ErrNotFound)
}

func (r *PostgresNotificationRepository) RecordFailure(ctx context.Context, id uuid.UUID, retryAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pending_notifications SET attempts = attempts + 1, next_attempt_at = $1 WHERE id = $2 AND NOT sent`,
		retryAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("error recording failed delivery: %w", err)
	}
	return expectOne(res, notification.ErrNotFound)
}

func (r *PostgresNotificationRepository) CancelUnsent(ctx context.Context, userID uuid.UUID, dedupKey string, types []notification.Type) (int64, error) {
	if len(types) == 0 {
		return 0, nil
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	query := `DELETE FROM pending_notifications
               WHERE user_id = $1 AND dedup_key = $2 AND type = ANY($3::text[]) AND NOT sent`
	res, err := r.db.ExecContext(ctx, query, userID, dedupKey, pq.Array(names))
	if err != nil {
		return 0, fmt.Errorf("error cancelling notifications: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresNotificationRepository) ListUpcoming(ctx context.Context, userID uuid.UUID, from time.Time, limit int) ([]*notification.Pending, error) {
	query := `SELECT id, user_id, type, dedup_key, due_on, scheduled_for, title, body, sent, sent_at, created_at,
                     attempts, next_attempt_at
               FROM pending_notifications
               WHERE user_id = $1 AND NOT sent AND due_on >= $2
               ORDER BY due_on, type
               LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, userID, dateParam(from), limit)
	if err != nil {
		return nil, fmt.Errorf("error querying upcoming notifications: %w", err)
	}
	defer rows.Close()

	pending := make([]*notification.Pending, 0)
	for rows.Next() {
		p := notification.Pending{}
		if err := scanPending(rows, &p); err != nil {
			return nil, err
		}
		pending = append(pending, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating upcoming notification rows: %w", err)
	}
	return pending, nil
}

// Helper to scan a pending notification row, plus any trailing columns.
func scanPending(rows *sql.Rows, p *notification.Pending, extra ...any) error {
	var sentAt, nextAttempt sql.NullTime
	dest := append([]any{
		&p.ID, &p.UserID, &p.Type, &p.DedupKey, &p.DueOn, &p.ScheduledFor, &p.Title, &p.Body,
		&p.Sent, &sentAt, &p.CreatedAt, &p.Attempts, &nextAttempt,
	}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return fmt.Errorf("error scanning pending notification row: %w", err)
	}
	p.DueOn = civil(p.DueOn)
	if sentAt.Valid {
		p.SentAt = &sentAt.Time
	}
	if nextAttempt.Valid {
		p.NextAttemptAt = &nextAttempt.Time
	}
	return nil
}
