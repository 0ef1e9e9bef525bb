// internal/app/account_service.go
package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"sow_tracker/internal/domain/cycle"
	"sow_tracker/internal/domain/notification"
	"sow_tracker/internal/domain/user"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrUserInactive = errors.New("user is inactive")

// AccountService links users to Telegram chats and answers chat-side queries.
type AccountService struct {
	userRepo   user.Repository
	notifRepo  notification.Repository
	linkSecret []byte
	location   *time.Location
	now        func() time.Time
	logger     *logrus.Entry
}

func NewAccountService(
	ur user.Repository,
	nr notification.Repository,
	linkSecret string,
	location *time.Location,
	now func() time.Time,
	logger *logrus.Entry,
) *AccountService {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		userRepo:   ur,
		notifRepo:  nr,
		linkSecret: []byte(linkSecret),
		location:   location,
		now:        now,
		logger:     logger.WithField("component", "account"),
	}
}

// LinkToken is the token a user sends to the bot as `/link <user-id> <token>`.
func (s *AccountService) LinkToken(userID uuid.UUID) string {
	mac := hmac.New(sha256.New, s.linkSecret)
	_, _ = mac.Write([]byte(userID.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// LinkChat stores chatID as the user's reminder destination once the token checks out.
func (s *AccountService) LinkChat(ctx context.Context, userID uuid.UUID, token string, chatID int64) (*user.User, error) {
	provided, err := hex.DecodeString(token)
	if err != nil || len(s.linkSecret) == 0 {
		return nil, ErrInvalidLinkToken
	}
	expected, _ := hex.DecodeString(s.LinkToken(userID))
	if !hmac.Equal(provided, expected) {
		return nil, ErrInvalidLinkToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUserInactive
	}
	if err := s.userRepo.LinkTelegram(ctx, u.ID, chatID); err != nil {
		return nil, fmt.Errorf("link telegram chat: %w", err)
	}
	u.TelegramChatID.Int64, u.TelegramChatID.Valid = chatID, true
	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "chat_id": chatID}).Info("Telegram chat linked")
	return u, nil
}

// UserForChat returns the user linked to chatID.
func (s *AccountService) UserForChat(ctx context.Context, chatID int64) (*user.User, error) {
	return s.userRepo.GetByTelegramChatID(ctx, chatID)
}

// Upcoming lists the unsent reminders of the user linked to chatID, due on
// the farm's current date or later.
func (s *AccountService) Upcoming(ctx context.Context, chatID int64, limit int) ([]*notification.Pending, error) {
	u, err := s.userRepo.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return s.notifRepo.ListUpcoming(ctx, u.ID, cycle.Today(s.now(), s.location), limit)
}
