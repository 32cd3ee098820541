package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"contest-bot/internal/platform/telegram"
)

type recordedEvents struct {
	removed []int64
}

func (r *recordedEvents) BotRemoved(_ context.Context, chatID int64) error {
	r.removed = append(r.removed, chatID)
	return nil
}

func TestRouterBotRemoved(t *testing.T) {
	events := &recordedEvents{}
	sender := &recordingSender{}
	r := NewRouter(NewDispatcher(context.Background(), &echoHandler{active: map[int64]bool{}}, sender, time.Second), events)

	upd := func(chatType, status string) telegram.Update {
		return telegram.Update{MyChatMember: &telegram.ChatMemberUpdated{
			Chat:          telegram.Chat{ID: -100777, Type: chatType},
			NewChatMember: telegram.ChatMember{Status: status},
		}}
	}
	r.Route(context.Background(), upd("channel", "administrator"))
	r.Route(context.Background(), upd("group", "kicked"))
	r.Route(context.Background(), upd("channel", "kicked"))

	assert.Equal(t, []int64{-100777}, events.removed)
}

func TestRouterDispatchesMessages(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(context.Background(), &echoHandler{active: map[int64]bool{}}, sender, time.Second)
	r := NewRouter(d, &recordedEvents{})

	r.Route(context.Background(), telegram.Update{UpdateID: 1, Message: &telegram.Message{
		From: &telegram.User{ID: 9},
		Chat: telegram.Chat{ID: 9, Type: "private"},
		Text: "hi",
	}})
	d.Wait()

	got := sender.to(9)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "hi", got[0].Text)
	}
}
