package telegram

import (
	"bytes"
	"context"
	"testing"
	"time"

	"sow_tracker/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatReminder(t *testing.T) {
	assert.Equal(t, "Farrowing due\n\nSow S-12 is due in 2 days.", FormatReminder(" Farrowing due ", "Sow S-12 is due in 2 days.\n"))
	assert.Equal(t, "Weaning due", FormatReminder("Weaning due", "  "))
}

func TestLoggingClient_LogsAndSucceeds(t *testing.T) {
	var out bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&out)
	logger.SetFormatter(&logrus.JSONFormatter{})

	c := NewLoggingClient(logrus.NewEntry(logger))
	require.NoError(t, c.SendReminder(context.Background(), 42, "Pregnancy check due", "Sow S-1 tomorrow", ""))

	assert.Contains(t, out.String(), `"chat_id":42`)
	assert.Contains(t, out.String(), "Pregnancy check due")
	assert.Contains(t, out.String(), `"component":"telegram_stub"`)
}

func TestParseLinkArgs(t *testing.T) {
	id := uuid.New()

	gotID, token, err := ParseLinkArgs([]string{id.String(), "abc123"})
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, "abc123", token)

	for _, args := range [][]string{nil, {id.String()}, {"nope", "abc"}, {id.String(), "a", "b"}} {
		_, _, err := ParseLinkArgs(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestFormatUpcoming(t *testing.T) {
	assert.Equal(t, "No upcoming reminders.", FormatUpcoming(nil))

	got := FormatUpcoming([]*notification.Pending{
		{DueOn: time.Date(2025, time.January, 22, 0, 0, 0, 0, time.UTC), Title: "Pregnancy check due"},
		{DueOn: time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC), Title: "Farrowing due"},
	})
	assert.Equal(t, "Upcoming reminders:\n\n2025-01-22  Pregnancy check due\n2025-01-24  Farrowing due", got)
}

func TestHelpTextListsCommands(t *testing.T) {
	for _, cmd := range []string{"/start", "/link", "/upcoming", "/help"} {
		assert.Contains(t, HelpText(), cmd)
	}
}
