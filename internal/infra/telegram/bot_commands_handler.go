// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sow_tracker/internal/app"
	"sow_tracker/internal/domain/notification"
	"sow_tracker/internal/domain/user"
	idb "sow_tracker/internal/infra/database" // For ErrChatAlreadyLinked

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const upcomingLimit = 10

// Accounts is the account service as seen by the bot.
type Accounts interface {
	LinkChat(ctx context.Context, userID uuid.UUID, token string, chatID int64) (*user.User, error)
	UserForChat(ctx context.Context, chatID int64) (*user.User, error)
	Upcoming(ctx context.Context, chatID int64, limit int) ([]*notification.Pending, error)
}

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	accounts Accounts,
	baseLogger *logrus.Entry, // For contextual logging
) {
	logger := baseLogger.WithField("handler_group", "commands")

	b.Handle("/start", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := logger.WithField("command", "/start").WithField("chat_id", chatID)
		logCtx.Info("Processing /start command")

		u, err := accounts.UserForChat(ctx, chatID)
		if err == nil {
			if u.IsActive {
				return c.Send(fmt.Sprintf("Hi %s! This chat receives your herd reminders. Use /upcoming to see what is due.", u.DisplayName))
			}
			return c.Send("Your account is inactive. Ask your farm administrator to reactivate it.")
		} else if !errors.Is(err, user.ErrNotFound) {
			logCtx.WithError(err).Error("Error looking up user for /start command")
			return c.Send("Something went wrong while checking your account. Please try again later.")
		}

		logCtx.Info("Chat is not linked")
		return c.Send("Hi! I send farrowing, weaning, breeding and pregnancy-check reminders.\n\n" +
			"To receive them here, ask your farm administrator for a link command and send it to me:\n" +
			"/link <user-id> <token>")
	})

	b.Handle("/help", func(c telebot.Context) error {
		return c.Send(HelpText())
	})

	b.Handle("/link", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := logger.WithField("command", "/link").WithField("chat_id", chatID)

		userID, token, err := ParseLinkArgs(c.Args())
		if err != nil {
			return c.Send(err.Error())
		}
		logCtx = logCtx.WithField("user_id", userID)

		u, err := accounts.LinkChat(ctx, userID, token, chatID)
		switch {
		case err == nil:
			logCtx.Info("Chat linked")
			return c.Send(fmt.Sprintf("Linked. Reminders for %s will arrive in this chat.", u.DisplayName))
		case errors.Is(err, app.ErrInvalidLinkToken), errors.Is(err, user.ErrNotFound):
			logCtx.Warn("Rejected link attempt")
			return c.Send("That link command is not valid. Ask your farm administrator for a new one.")
		case errors.Is(err, app.ErrUserInactive):
			return c.Send("Your account is inactive. Ask your farm administrator to reactivate it.")
		case errors.Is(err, idb.ErrChatAlreadyLinked):
			return c.Send("This chat is already linked to another user.")
		default:
			logCtx.WithError(err).Error("Error linking chat")
			return c.Send("Something went wrong while linking this chat. Please try again later.")
		}
	})

	b.Handle("/upcoming", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := logger.WithField("command", "/upcoming").WithField("chat_id", chatID)

		pending, err := accounts.Upcoming(ctx, chatID, upcomingLimit)
		if errors.Is(err, user.ErrNotFound) {
			return c.Send("This chat is not linked yet. Send /start for instructions.")
		}
		if err != nil {
			logCtx.WithError(err).Error("Error listing upcoming reminders")
			return c.Send("Something went wrong while loading your reminders. Please try again later.")
		}
		return c.Send(FormatUpcoming(pending))
	})
}

// HelpText lists the bot commands.
func HelpText() string {
	var help strings.Builder
	help.WriteString("Available commands:\n\n")
	help.WriteString("/start - show whether this chat is linked\n")
	help.WriteString("/link <user-id> <token> - receive your reminders in this chat\n")
	help.WriteString("/upcoming - list reminders that are still to come\n")
	help.WriteString("/help - show this message")
	return help.String()
}

// ParseLinkArgs validates the arguments of /link.
func ParseLinkArgs(args []string) (uuid.UUID, string, error) {
	if len(args) != 2 {
		return uuid.Nil, "", errors.New("Usage: /link <user-id> <token>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, "", errors.New("The user id must be a UUID. Usage: /link <user-id> <token>")
	}
	token := strings.TrimSpace(args[1])
	if token == "" {
		return uuid.Nil, "", errors.New("Usage: /link <user-id> <token>")
	}
	return id, token, nil
}

// FormatUpcoming renders upcoming reminders one per line, ordered as given.
func FormatUpcoming(pending []*notification.Pending) string {
	if len(pending) == 0 {
		return "No upcoming reminders."
	}
	var b strings.Builder
	b.WriteString("Upcoming reminders:\n")
	for _, p := range pending {
		fmt.Fprintf(&b, "\n%s  %s", p.DueOn.Format(time.DateOnly), p.Title)
	}
	return b.String()
}
