package bot

import (
	"context"

	"github.com/rs/zerolog"

	"contest-bot/internal/common/logger"
	"contest-bot/internal/platform/telegram"
)

// ChatEvents receives changes of the bot's own membership in chats.
type ChatEvents interface {
	BotRemoved(ctx context.Context, chatID int64) error
}

// Router splits raw updates: conversation events go to the dispatcher,
// my_chat_member updates to ChatEvents.
type Router struct {
	dispatcher *Dispatcher
	events     ChatEvents
	log        zerolog.Logger
}

func NewRouter(d *Dispatcher, events ChatEvents) *Router {
	return &Router{dispatcher: d, events: events, log: logger.Component("router")}
}

// Route never blocks on event handling.
func (r *Router) Route(ctx context.Context, u telegram.Update) {
	if u.MyChatMember != nil {
		r.chatMember(ctx, u.MyChatMember)
		return
	}
	ev, ok := FromUpdate(u)
	if !ok {
		r.log.Debug().Int64("update_id", u.UpdateID).Msg("Update skipped")
		return
	}
	r.dispatcher.Dispatch(ev)
}

func (r *Router) chatMember(ctx context.Context, upd *telegram.ChatMemberUpdated) {
	if upd.Chat.Type != "channel" || !BotLost(upd.NewChatMember.Status) {
		return
	}
	r.log.Warn().Int64("chat_id", upd.Chat.ID).Str("title", upd.Chat.Title).Str("status", upd.NewChatMember.Status).
		Msg("Bot was removed from a channel")
	if err := r.events.BotRemoved(ctx, upd.Chat.ID); err != nil {
		r.log.Error().Err(err).Int64("chat_id", upd.Chat.ID).Msg("Failed to report bot removal")
	}
}

// BotLost reports whether the bot's new status leaves it unable to check
// members.
func BotLost(status string) bool {
	return status == "left" || status == "kicked"
}
