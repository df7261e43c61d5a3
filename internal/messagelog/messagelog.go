// Package messagelog holds the session's chat messages in memory.
//
// A Log is an immutable value: Append returns a new Log and never changes the
// receiver. Nothing here is persisted; the log lives for one session.
package messagelog

import (
	"iter"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message
type Sender string

const (
	SenderMe   Sender = "me"
	SenderBot  Sender = "bot"
	SenderUser Sender = "user"
)

// Message is one chat message. Timestamp is epoch milliseconds.
type Message struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatId"`
	Text      string `json:"text"`
	Sender    Sender `json:"sender"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns the message timestamp as a time.Time
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// NewMessage creates a message stamped with now. The ID is a UUIDv7, so it
// sorts by creation time and stays unique across overlapping sends.
func NewMessage(chatID, text string, sender Sender, now time.Time) Message {
	id, err := uuid.NewV7()
	if err != nil {
		// Random source failure; fall back to v4
		id = uuid.New()
	}
	return Message{
		ID:        id.String(),
		ChatID:    chatID,
		Text:      text,
		Sender:    sender,
		Timestamp: now.UnixMilli(),
	}
}

// Log is an append-only sequence of messages in arrival order
type Log struct {
	messages []Message
}

// Append returns a new log with m at the end
func (l Log) Append(m Message) Log {
	out := make([]Message, len(l.messages), len(l.messages)+1)
	copy(out, l.messages)
	return Log{messages: append(out, m)}
}

// Len returns the number of messages
func (l Log) Len() int {
	return len(l.messages)
}

// All yields every message in log order
func (l Log) All() iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for _, m := range l.messages {
			if !yield(m) {
				return
			}
		}
	}
}

// ForChat yields the messages for one chat in log order. The sequence can be
// ranged over any number of times.
func (l Log) ForChat(chatID string) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for _, m := range l.messages {
			if m.ChatID != chatID {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}
