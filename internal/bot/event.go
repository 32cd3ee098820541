// Package bot implements the conversation: it turns normalized events into
// session transitions and outgoing messages.
package bot

import (
	"strings"

	"contest-bot/internal/platform/telegram"
)

// EventKind classifies an inbound event.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventText    EventKind = "text"
	EventMedia   EventKind = "media"
	EventContact EventKind = "contact"
	EventButton  EventKind = "button"
)

// MediaKind is the media type of an EventMedia.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// Sender is the profile of the user who produced an event.
type Sender struct {
	Username  string
	FirstName string
	LastName  string
}

// Event is one inbound user action independent of the update format.
type Event struct {
	UpdateID int64
	UserID   int64
	ChatID   int64
	Kind     EventKind
	From     Sender

	// EventCommand: Command without the slash, Args is the rest.
	Command string
	Args    string

	// EventText, and the caption of EventMedia.
	Text string

	MediaKind   MediaKind
	MediaFileID string

	ContactPhone  string
	ContactUserID int64

	// EventButton
	CallbackID string
	Data       string
	MessageID  int64
}

// FromUpdate normalizes a private-chat update. ok is false for updates the
// conversation does not consume.
func FromUpdate(u telegram.Update) (Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		ev := Event{
			UpdateID:   u.UpdateID,
			UserID:     cq.From.ID,
			ChatID:     cq.From.ID,
			Kind:       EventButton,
			From:       senderOf(&cq.From),
			CallbackID: cq.ID,
			Data:       cq.Data,
		}
		if cq.Message != nil {
			ev.ChatID = cq.Message.Chat.ID
			ev.MessageID = cq.Message.MessageID
		}
		return ev, true

	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.Chat.Type != "private" {
			return Event{}, false
		}
		ev := Event{
			UpdateID:  u.UpdateID,
			UserID:    m.From.ID,
			ChatID:    m.Chat.ID,
			From:      senderOf(m.From),
			MessageID: m.MessageID,
		}
		switch {
		case m.Contact != nil:
			ev.Kind = EventContact
			ev.ContactPhone = m.Contact.PhoneNumber
			ev.ContactUserID = m.Contact.UserID
		case len(m.Photo) > 0:
			ev.Kind = EventMedia
			ev.MediaKind = MediaPhoto
			// последний размер самый большой
			ev.MediaFileID = m.Photo[len(m.Photo)-1].FileID
			ev.Text = m.Caption
		case m.Video != nil:
			ev.Kind = EventMedia
			ev.MediaKind = MediaVideo
			ev.MediaFileID = m.Video.FileID
			ev.Text = m.Caption
		case strings.HasPrefix(m.Text, "/"):
			ev.Kind = EventCommand
			ev.Command, ev.Args = parseCommand(m.Text)
		case m.Text != "":
			ev.Kind = EventText
			ev.Text = m.Text
		default:
			return Event{}, false
		}
		return ev, true
	}
	return Event{}, false
}

// parseCommand splits "/start@bot ABC" into "start" and "ABC".
func parseCommand(text string) (string, string) {
	cmd, args, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

func senderOf(u *telegram.User) Sender {
	return Sender{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}
