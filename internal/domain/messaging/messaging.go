// Package messaging describes outbound chat messages independently of the
// Telegram wire format.
package messaging

import "context"

type Kind string

const (
	KindText  Kind = "text"
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"

	// KindCallbackAnswer acknowledges a button press; Text is an optional
	// toast.
	KindCallbackAnswer Kind = "callback_answer"
)

// Button is an inline keyboard button. Exactly one of URL and Data is set.
type Button struct {
	Text string
	URL  string
	Data string
}

func URLButton(text, url string) Button { return Button{Text: text, URL: url} }
func DataButton(text, data string) Button { return Button{Text: text, Data: data} }

// ReplyButton is a button of the persistent reply keyboard.
type ReplyButton struct {
	Text           string
	RequestContact bool
}

// ReplyKeyboard replaces the user's reply keyboard. Remove hides it.
type ReplyKeyboard struct {
	Rows       [][]ReplyButton
	OneTime    bool
	Persistent bool
	Remove     bool
}

// Outgoing is one message to deliver. A non-zero EditMessageID edits that
// message in place instead of sending a new one. Text is HTML.
type Outgoing struct {
	ChatID        int64
	Kind          Kind
	Text          string
	MediaFileID   string
	Inline        [][]Button
	Reply         *ReplyKeyboard
	EditMessageID int64
	CallbackID    string
}

// CallbackAnswer acknowledges the button press callbackID.
func CallbackAnswer(callbackID, toast string) Outgoing {
	return Outgoing{Kind: KindCallbackAnswer, CallbackID: callbackID, Text: toast}
}

// Sender delivers outbound messages.
type Sender interface {
	Send(ctx context.Context, msg Outgoing) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
