package broadcast

import "time"

// Kind is the content type of a broadcast message.
type Kind string

const (
	KindText  Kind = "text"
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// Button is an inline URL button attached to a broadcast.
type Button struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Message is the composed broadcast. For photo and video Text is the
// caption and MediaFileID the Telegram file id.
type Message struct {
	Kind        Kind     `json:"kind"`
	Text        string   `json:"text"`
	MediaFileID string   `json:"media_file_id,omitempty"`
	Buttons     []Button `json:"buttons,omitempty"`
}

// Log is the write-once summary of one broadcast run.
type Log struct {
	ID          int64     `json:"id"`
	OperatorID  int64     `json:"operator_id"`
	Kind        Kind      `json:"kind"`
	Content     string    `json:"content"`
	SentCount   int       `json:"sent_count"`
	FailedCount int       `json:"failed_count"`
	CreatedAt   time.Time `json:"created_at"`
}
