package domain

import "time"

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Suggestion is a display hint attached to a bot message; it carries no
// cart state.
type Suggestion struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price,omitempty"`
}

// ChatMessage is immutable once appended to a conversation log.
type ChatMessage struct {
	Sender      Sender       `json:"sender"`
	Text        string       `json:"text"`
	Timestamp   time.Time    `json:"timestamp"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}
