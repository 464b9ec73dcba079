package models

import "time"

// Message kinds stored and broadcast by the realtime engine.
const (
	MessageKindChat = "chat"
	MessageKindFile = "file"
)

// Conversation is a chat thread: direct (exactly 2 participants) or group
// (N participants, usually bound to a team).
type Conversation struct {
	ID           string  `json:"id"`
	TeamID       *int64  `json:"teamId,omitempty"`
	Name         string  `json:"name,omitempty"`
	IsGroup      bool    `json:"isGroup"`
	Participants []int64 `json:"participants"`
}

func (c *Conversation) HasParticipant(userID int64) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID. Only
// meaningful for direct conversations.
func (c *Conversation) OtherParticipant(userID int64) (int64, bool) {
	for _, id := range c.Participants {
		if id != userID {
			return id, true
		}
	}
	return 0, false
}

// Message is one entry in a conversation's append-only history. Timestamps
// are server-assigned; messages are never edited or removed.
type Message struct {
	ID             int64     `json:"-"`
	ConversationID string    `json:"-"`
	Kind           string    `json:"type"`
	From           int64     `json:"from"`
	To             int64     `json:"to,omitempty"`
	Content        string    `json:"content"`
	Filename       string    `json:"filename,omitempty"`
	Filesize       int64     `json:"filesize,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Notification is a persisted, user-targeted summary of a new message or
// file, delivered independently of the raw chat broadcast.
type Notification struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
