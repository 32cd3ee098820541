package telegram

import (
	"context"
	"fmt"

	"contest-bot/internal/domain/messaging"
)

// Send delivers msg, editing in place when EditMessageID is set. A failed
// edit falls back to a fresh message; an unchanged edit is not an error.
func (c *Client) Send(ctx context.Context, msg messaging.Outgoing) error {
	if msg.Kind == messaging.KindCallbackAnswer {
		return c.AnswerCallbackQuery(ctx, msg.CallbackID, msg.Text)
	}
	if msg.EditMessageID != 0 && msg.Kind != messaging.KindPhoto && msg.Kind != messaging.KindVideo && msg.Reply == nil {
		err := c.EditMessageText(ctx, msg.ChatID, msg.EditMessageID, msg.Text, inlineMarkup(msg.Inline))
		if err == nil || IsNotModified(err) {
			return nil
		}
		if IsUnavailable(err) {
			return err
		}
		c.log.Debug().Err(err).Int64("chat_id", msg.ChatID).Msg("edit failed, sending new message")
	}

	var markup any
	switch {
	case msg.Reply != nil:
		markup = replyMarkup(msg.Reply)
	case len(msg.Inline) > 0:
		markup = inlineMarkup(msg.Inline)
	}

	switch msg.Kind {
	case messaging.KindPhoto:
		return c.SendPhoto(ctx, msg.ChatID, msg.MediaFileID, msg.Text, markup)
	case messaging.KindVideo:
		return c.SendVideo(ctx, msg.ChatID, msg.MediaFileID, msg.Text, markup)
	case messaging.KindText, "":
		_, err := c.SendMessage(ctx, msg.ChatID, msg.Text, markup)
		return err
	default:
		return fmt.Errorf("telegram: unsupported message kind %q", msg.Kind)
	}
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return c.AnswerCallbackQuery(ctx, callbackID, text)
}

func inlineMarkup(rows [][]messaging.Button) *InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	kb := make([][]InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, InlineKeyboardButton{Text: b.Text, URL: b.URL, CallbackData: b.Data})
		}
		kb = append(kb, buttons)
	}
	return &InlineKeyboardMarkup{InlineKeyboard: kb}
}

func replyMarkup(r *messaging.ReplyKeyboard) any {
	if r.Remove {
		return ReplyKeyboardRemove{RemoveKeyboard: true}
	}
	kb := make([][]KeyboardButton, 0, len(r.Rows))
	for _, row := range r.Rows {
		buttons := make([]KeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, KeyboardButton{Text: b.Text, RequestContact: b.RequestContact})
		}
		kb = append(kb, buttons)
	}
	return ReplyKeyboardMarkup{
		Keyboard:        kb,
		ResizeKeyboard:  true,
		OneTimeKeyboard: r.OneTime,
		IsPersistent:    r.Persistent,
	}
}

var _ messaging.Sender = (*Client)(nil)
