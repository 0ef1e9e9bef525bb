// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"net/url"
	"strings"

	domainTelegram "sow_tracker/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot     *telebot.Bot
	baseURL string
}

var (
	_ domainTelegram.Client = (*TelebotAdapter)(nil)
	_ domainTelegram.Client = (*LoggingClient)(nil)
)

// NewTelebotAdapter returns an adapter that resolves reminder paths against
// baseURL. With an empty baseURL reminders go out without a button.
func NewTelebotAdapter(b *telebot.Bot, baseURL string) *TelebotAdapter {
	return &TelebotAdapter{bot: b, baseURL: strings.TrimRight(baseURL, "/")}
}

// SendReminder sends the reminder text to the chat, with an "Open" button
// when actionURL resolves to an absolute link.
func (tba *TelebotAdapter) SendReminder(ctx context.Context, chatID int64, title, body, actionURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	options := &telebot.SendOptions{DisableWebPagePreview: true}
	if link := tba.ActionLink(actionURL); link != "" {
		options.ReplyMarkup = &telebot.ReplyMarkup{
			InlineKeyboard: [][]telebot.InlineButton{{{Text: "Open", URL: link}}},
		}
	}
	_, err := tba.bot.Send(telebot.ChatID(chatID), FormatReminder(title, body), options)
	return err
}

// ActionLink turns a reminder path such as /breeding/<id> into an absolute
// URL. Telegram rejects buttons with relative URLs, so it returns "" when no
// base URL is configured.
func (tba *TelebotAdapter) ActionLink(actionURL string) string {
	if actionURL == "" {
		return ""
	}
	if u, err := url.Parse(actionURL); err == nil && u.IsAbs() {
		return actionURL
	}
	if tba.baseURL == "" {
		return ""
	}
	return tba.baseURL + "/" + strings.TrimLeft(actionURL, "/")
}

// FormatReminder renders the message text of a reminder.
func FormatReminder(title, body string) string {
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if body == "" {
		return title
	}
	return title + "\n\n" + body
}

// LoggingClient stands in for Telegram when no bot token is configured:
// reminders are written to the log and reported as delivered.
type LoggingClient struct {
	logger *logrus.Entry
}

func NewLoggingClient(logger *logrus.Entry) *LoggingClient {
	return &LoggingClient{logger: logger.WithField("component", "telegram_stub")}
}

func (c *LoggingClient) SendReminder(_ context.Context, chatID int64, title, body, actionURL string) error {
	c.logger.WithFields(logrus.Fields{
		"chat_id":    chatID,
		"action_url": actionURL,
	}).Info(FormatReminder(title, body))
	return nil
}
