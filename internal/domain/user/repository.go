package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for retrieving users and linking their chats.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*User, error)
	LinkTelegram(ctx context.Context, id uuid.UUID, chatID int64) error
}
