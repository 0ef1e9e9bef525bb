// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines operations on pending notifications.
type Repository interface {
	// InsertIfAbsent stores p unless a row with the same (user, type, dedup key,
	// due date) exists. It reports whether a row was inserted and is safe under
	// concurrent callers.
	InsertIfAbsent(ctx context.Context, p *Pending) (bool, error)
	// ListDue returns unsent reminders scheduled at or before now whose user has a
	// linked chat, skipping rows with maxAttempts failures or a retry time after now.
	ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*Due, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	// RecordFailure counts a failed attempt and holds the row back until retryAt.
	RecordFailure(ctx context.Context, id uuid.UUID, retryAt time.Time) error
	// CancelUnsent deletes unsent reminders of the given types for the entity key.
	CancelUnsent(ctx context.Context, userID uuid.UUID, dedupKey string, types []Type) (int64, error)
	// ListUpcoming returns the user's unsent reminders due on or after from.
	ListUpcoming(ctx context.Context, userID uuid.UUID, from time.Time, limit int) ([]*Pending, error)
}
