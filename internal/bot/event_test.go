package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/platform/telegram"
)

func privateMessage(m telegram.Message) telegram.Update {
	m.From = &telegram.User{ID: 42, FirstName: "Ann", Username: "ann"}
	m.Chat = telegram.Chat{ID: 42, Type: "private"}
	return telegram.Update{UpdateID: 1, Message: &m}
}

func TestFromUpdateCommand(t *testing.T) {
	ev, ok := FromUpdate(privateMessage(telegram.Message{Text: "/Start@contest_bot  ABC123 "}))
	require.True(t, ok)
	assert.Equal(t, EventCommand, ev.Kind)
	assert.Equal(t, "start", ev.Command)
	assert.Equal(t, "ABC123", ev.Args)
	assert.Equal(t, Sender{Username: "ann", FirstName: "Ann"}, ev.From)
}

func TestFromUpdatePhotoUsesLargestSize(t *testing.T) {
	ev, ok := FromUpdate(privateMessage(telegram.Message{
		Caption: "caption",
		Photo:   []telegram.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}))
	require.True(t, ok)
	assert.Equal(t, EventMedia, ev.Kind)
	assert.Equal(t, MediaPhoto, ev.MediaKind)
	assert.Equal(t, "large", ev.MediaFileID)
	assert.Equal(t, "caption", ev.Text)
}

func TestFromUpdateContact(t *testing.T) {
	ev, ok := FromUpdate(privateMessage(telegram.Message{
		Contact: &telegram.Contact{PhoneNumber: "+15550100", UserID: 42},
	}))
	require.True(t, ok)
	assert.Equal(t, EventContact, ev.Kind)
	assert.Equal(t, int64(42), ev.ContactUserID)
}

func TestFromUpdateCallback(t *testing.T) {
	ev, ok := FromUpdate(telegram.Update{
		UpdateID: 5,
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "q1",
			From:    telegram.User{ID: 42},
			Data:    "admin_stats",
			Message: &telegram.Message{MessageID: 9, Chat: telegram.Chat{ID: 42}},
		},
	})
	require.True(t, ok)
	assert.Equal(t, EventButton, ev.Kind)
	assert.Equal(t, "q1", ev.CallbackID)
	assert.Equal(t, int64(9), ev.MessageID)
	assert.Equal(t, "admin_stats", ev.Data)
}

func TestFromUpdateIgnoresGroups(t *testing.T) {
	u := privateMessage(telegram.Message{Text: "hello"})
	u.Message.Chat.Type = "supergroup"
	_, ok := FromUpdate(u)
	assert.False(t, ok)

	_, ok = FromUpdate(telegram.Update{UpdateID: 2})
	assert.False(t, ok)
}
