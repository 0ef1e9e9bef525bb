package user

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("user not found")

// User is a farm team member who receives reminders.
type User struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	DisplayName    string
	TelegramChatID sql.NullInt64 // set once the user links a Telegram chat
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Scope narrows queries to one organization. The zero Scope covers all organizations.
type Scope struct {
	OrganizationID uuid.NullUUID
}

// All returns the Scope covering every organization.
func All() Scope {
	return Scope{}
}

// OrganizationScope returns a Scope for a single organization.
func OrganizationScope(id uuid.UUID) Scope {
	return Scope{OrganizationID: uuid.NullUUID{UUID: id, Valid: true}}
}

// All reports whether the scope covers every organization.
func (s Scope) All() bool {
	return !s.OrganizationID.Valid
}
