package chat

import "time"

// Sender tags who produced a message.
type Sender string

const (
	FromUser      Sender = "user"
	FromAssistant Sender = "assistant"
)

// Message is one entry in a conversation. IDs increase monotonically within
// a conversation.
type Message struct {
	ID     int       `json:"id"`
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}
