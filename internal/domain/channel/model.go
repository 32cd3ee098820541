package channel

import (
	"errors"
	"time"
)

// Channel is a Telegram channel users must join. Ref is the chat reference
// the Bot API accepts ("@username" or "-100..."); ChatID is the numeric id
// resolved when the channel was added.
type Channel struct {
	ID         int64     `json:"id"`
	Ref        string    `json:"ref"`
	ChatID     int64     `json:"chat_id"`
	Title      string    `json:"title"`
	IsActive   bool      `json:"is_active"`
	IsPrivate  bool      `json:"is_private"`
	InviteLink string    `json:"invite_link,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

var (
	ErrNotFound      = errors.New("channel not found")
	ErrAlreadyExists = errors.New("channel already exists")
)
