// internal/domain/notification/pending.go
package notification

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("pending notification not found")

// Pending is a reminder waiting for delivery.
// Corresponds to the 'pending_notifications' table; (UserID, Type, DedupKey, DueOn) is unique.
type Pending struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Type         Type
	DedupKey     string
	DueOn        time.Time // milestone date
	ScheduledFor time.Time // delivery time
	Title        string
	Body         string
	Sent         bool
	SentAt       *time.Time
	CreatedAt    time.Time

	// failed delivery attempts; NextAttemptAt holds the row back until then
	Attempts      int
	NextAttemptAt *time.Time
}

// Candidate is a reminder a sweep wants to exist.
type Candidate struct {
	UserID       uuid.UUID
	Type         Type
	DedupKey     string
	DueOn        time.Time
	ScheduledFor time.Time
	Title        string
	Body         string
}

// Validate checks the fields that make up the uniqueness key.
func (c Candidate) Validate() error {
	switch {
	case c.UserID == uuid.Nil:
		return fmt.Errorf("candidate %s/%s: missing user", c.Type, c.DedupKey)
	case c.Type == "":
		return fmt.Errorf("candidate %s: missing type", c.DedupKey)
	case c.DedupKey == "":
		return fmt.Errorf("candidate %s: missing dedup key", c.Type)
	case c.DueOn.IsZero() || c.ScheduledFor.IsZero():
		return fmt.Errorf("candidate %s/%s: missing dates", c.Type, c.DedupKey)
	}
	return nil
}

// Due is an unsent reminder ready for delivery with the recipient's chat.
type Due struct {
	Pending
	ChatID int64
}
