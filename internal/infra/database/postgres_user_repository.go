// internal/infra/database/postgres_user_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"sow_tracker/internal/domain/user"

	"github.com/google/uuid"
)

// Custom errors specific to user repository
var ErrChatAlreadyLinked = fmt.Errorf("telegram chat is already linked to another user")

type PostgresUserRepository struct {
	db *sql.DB
}

var _ user.Repository = (*PostgresUserRepository)(nil)

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, organization_id, display_name, telegram_chat_id, is_active, created_at, updated_at`

func (r *PostgresUserRepository) get(ctx context.Context, query string, arg any) (*user.User, error) {
	u := user.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.OrganizationID, &u.DisplayName, &u.TelegramChatID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*user.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_chat_id = $1`, chatID)
}

func (r *PostgresUserRepository) LinkTelegram(ctx context.Context, id uuid.UUID, chatID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id = $1, updated_at = NOW() WHERE id = $2`, chatID, id)
	if err != nil {
		if isUniqueViolation(err, "users_telegram_chat_id_key") {
			return ErrChatAlreadyLinked
		}
		return fmt.Errorf("error linking telegram chat: %w", err)
	}
	return expectOne(res, user.ErrNotFound)
}
