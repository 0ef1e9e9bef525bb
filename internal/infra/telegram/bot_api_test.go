package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	"sow_tracker/internal/app"
	"sow_tracker/internal/domain/notification"
	"sow_tracker/internal/domain/user"
	idb "sow_tracker/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

// fakeBotAPI answers Bot API calls the way api.telegram.org does and records them.
type fakeBotAPI struct {
	mu       sync.Mutex
	messages []map[string]any
	reject   string // description of a 400 answer to sendMessage
}

func (a *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&params)

	a.mu.Lock()
	reject := a.reject
	if path.Base(r.URL.Path) == "sendMessage" {
		a.messages = append(a.messages, params)
	}
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if reject != "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"ok":false,"error_code":400,"description":%q}`, reject)
		return
	}
	_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":77,"type":"private"}}}`)
}

func (a *fakeBotAPI) sent(t *testing.T) []map[string]any {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]map[string]any(nil), a.messages...)
}

func (a *fakeBotAPI) lastText(t *testing.T) string {
	t.Helper()
	msgs := a.sent(t)
	require.NotEmpty(t, msgs)
	text, _ := msgs[len(msgs)-1]["text"].(string)
	return text
}

// buttonURLs returns the URLs of the inline keyboard sent with a message.
func buttonURLs(t *testing.T, msg map[string]any) []string {
	t.Helper()
	raw, ok := msg["reply_markup"]
	if !ok {
		return nil
	}
	var encoded []byte
	switch v := raw.(type) {
	case string:
		encoded = []byte(v)
	default:
		var err error
		encoded, err = json.Marshal(v)
		require.NoError(t, err)
	}
	var markup struct {
		InlineKeyboard [][]struct {
			URL string `json:"url"`
		} `json:"inline_keyboard"`
	}
	require.NoError(t, json.Unmarshal(encoded, &markup))
	var urls []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			urls = append(urls, btn.URL)
		}
	}
	return urls
}

func newTestBot(t *testing.T) (*telebot.Bot, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := telebot.NewBot(telebot.Settings{
		URL:         srv.URL,
		Token:       "123:test",
		Offline:     true,
		Synchronous: true,
		OnError:     func(error, telebot.Context) {},
	})
	require.NoError(t, err)
	return b, api
}

func TestTelebotAdapter_SendReminderResolvesActionPath(t *testing.T) {
	b, api := newTestBot(t)
	eventID := uuid.New()

	adapter := NewTelebotAdapter(b, "https://farm.example.com/app/")
	require.NoError(t, adapter.SendReminder(context.Background(), 77, "Farrowing expected soon", "Sow S-7 in 2 days.",
		notification.BreedingKey(eventID)))

	msgs := api.sent(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, "77", msgs[0]["chat_id"])
	assert.Equal(t, "Farrowing expected soon\n\nSow S-7 in 2 days.", msgs[0]["text"])
	assert.Equal(t, []string{"https://farm.example.com/app/breeding/" + eventID.String()}, buttonURLs(t, msgs[0]))
}

func TestTelebotAdapter_NoBaseURLSendsWithoutButton(t *testing.T) {
	b, api := newTestBot(t)

	adapter := NewTelebotAdapter(b, "")
	require.NoError(t, adapter.SendReminder(context.Background(), 77, "Weaning due", "", notification.SowKey(uuid.New())))

	msgs := api.sent(t)
	require.Len(t, msgs, 1)
	assert.Empty(t, buttonURLs(t, msgs[0]))
	assert.Equal(t, "Weaning due", msgs[0]["text"])
}

func TestTelebotAdapter_SendReminderReportsAPIErrors(t *testing.T) {
	b, api := newTestBot(t)
	api.reject = "Bad Request: chat not found"

	err := NewTelebotAdapter(b, "").SendReminder(context.Background(), 77, "Weaning due", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelebotAdapter_CancelledContextSendsNothing(t *testing.T) {
	b, api := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTelebotAdapter(b, "").SendReminder(ctx, 77, "Weaning due", "", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.sent(t))
}

func TestActionLink(t *testing.T) {
	withBase := NewTelebotAdapter(nil, "https://farm.example.com")
	assert.Equal(t, "https://farm.example.com/animals/x", withBase.ActionLink("/animals/x"))
	assert.Equal(t, "https://other.example.com/a", withBase.ActionLink("https://other.example.com/a"))
	assert.Empty(t, withBase.ActionLink(""))

	bare := NewTelebotAdapter(nil, "")
	assert.Empty(t, bare.ActionLink("/animals/x"))
	assert.Equal(t, "https://other.example.com/a", bare.ActionLink("https://other.example.com/a"))
}

type fakeAccounts struct {
	users    map[int64]*user.User
	linkErr  error
	pending  []*notification.Pending
	listErr  error
	linkedTo int64
	linkArgs []string
}

func (a *fakeAccounts) LinkChat(_ context.Context, userID uuid.UUID, token string, chatID int64) (*user.User, error) {
	a.linkArgs = []string{userID.String(), token}
	if a.linkErr != nil {
		return nil, a.linkErr
	}
	a.linkedTo = chatID
	return &user.User{ID: userID, DisplayName: "Ana", IsActive: true}, nil
}

func (a *fakeAccounts) UserForChat(_ context.Context, chatID int64) (*user.User, error) {
	u, ok := a.users[chatID]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (a *fakeAccounts) Upcoming(_ context.Context, chatID int64, _ int) ([]*notification.Pending, error) {
	if a.listErr != nil {
		return nil, a.listErr
	}
	if _, ok := a.users[chatID]; !ok {
		return nil, user.ErrNotFound
	}
	return a.pending, nil
}

func commandUpdate(text string) telebot.Update {
	return telebot.Update{Message: &telebot.Message{
		Text:   text,
		Chat:   &telebot.Chat{ID: 77, Type: telebot.ChatPrivate},
		Sender: &telebot.User{ID: 77},
	}}
}

func newCommandBot(t *testing.T, accounts *fakeAccounts) (*telebot.Bot, *fakeBotAPI) {
	t.Helper()
	b, api := newTestBot(t)
	l := logrus.New()
	l.SetOutput(io.Discard)
	RegisterBotCommands(context.Background(), b, accounts, logrus.NewEntry(l))
	return b, api
}

func TestLinkCommand(t *testing.T) {
	id := uuid.New()

	t.Run("links the chat", func(t *testing.T) {
		accounts := &fakeAccounts{}
		b, api := newCommandBot(t, accounts)

		b.ProcessUpdate(commandUpdate("/link " + id.String() + " abc123"))

		assert.Equal(t, []string{id.String(), "abc123"}, accounts.linkArgs)
		assert.Equal(t, int64(77), accounts.linkedTo)
		assert.Contains(t, api.lastText(t), "Linked. Reminders for Ana")
	})

	tests := []struct {
		name string
		text string
		err  error
		want string
	}{
		{"usage", "/link", nil, "Usage: /link"},
		{"bad token", "/link " + id.String() + " nope", app.ErrInvalidLinkToken, "not valid"},
		{"unknown user", "/link " + id.String() + " nope", user.ErrNotFound, "not valid"},
		{"inactive", "/link " + id.String() + " abc", app.ErrUserInactive, "inactive"},
		{"chat taken", "/link " + id.String() + " abc", idb.ErrChatAlreadyLinked, "already linked"},
		{"store down", "/link " + id.String() + " abc", errors.New("connection refused"), "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &fakeAccounts{linkErr: tt.err}
			b, api := newCommandBot(t, accounts)

			b.ProcessUpdate(commandUpdate(tt.text))

			assert.Contains(t, api.lastText(t), tt.want)
			assert.Zero(t, accounts.linkedTo)
		})
	}
}

func TestUpcomingCommand(t *testing.T) {
	linked := map[int64]*user.User{77: {ID: uuid.New(), DisplayName: "Ana", IsActive: true}}

	t.Run("lists reminders", func(t *testing.T) {
		pending := []*notification.Pending{
			{DueOn: time.Date(2025, time.January, 22, 0, 0, 0, 0, time.UTC), Title: "Pregnancy check due"},
		}
		b, api := newCommandBot(t, &fakeAccounts{users: linked, pending: pending})

		b.ProcessUpdate(commandUpdate("/upcoming"))
		assert.Equal(t, FormatUpcoming(pending), api.lastText(t))
	})

	t.Run("unlinked chat", func(t *testing.T) {
		b, api := newCommandBot(t, &fakeAccounts{})

		b.ProcessUpdate(commandUpdate("/upcoming"))
		assert.Contains(t, api.lastText(t), "not linked yet")
	})

	t.Run("store error", func(t *testing.T) {
		b, api := newCommandBot(t, &fakeAccounts{users: linked, listErr: errors.New("timeout")})

		b.ProcessUpdate(commandUpdate("/upcoming"))
		assert.Contains(t, api.lastText(t), "Something went wrong")
	})
}

func TestStartCommand(t *testing.T) {
	b, api := newCommandBot(t, &fakeAccounts{users: map[int64]*user.User{77: {DisplayName: "Ana", IsActive: true}}})
	b.ProcessUpdate(commandUpdate("/start"))
	assert.Contains(t, api.lastText(t), "Hi Ana!")

	b, api = newCommandBot(t, &fakeAccounts{})
	b.ProcessUpdate(commandUpdate("/start"))
	assert.Contains(t, api.lastText(t), "/link <user-id> <token>")
}
