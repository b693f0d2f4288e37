package reconcile

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "USER"
	RoleAssistant = "ASSISTANT"
)

// Message is a server-stored chat message.
type Message struct {
	ID            uuid.UUID `json:"id"`
	ChatSessionID uuid.UUID `json:"chat_session_id"`
	Role          string    `json:"role"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	Unanswered    bool      `json:"unanswered,omitempty"`
}

// Item is either a Pending or a Confirmed entry of a rendered transcript.
type Item interface {
	isItem()
	Timestamp() time.Time
}

// Pending is a message the client has submitted but the server has not
// confirmed with a reply.
type Pending struct {
	LocalID   string
	SessionID uuid.UUID
	Content   string
	Status    Status
	Error     string
	// ServerMessageID is the stored user turn reported by a failed send.
	ServerMessageID *uuid.UUID
	Attempts        int
	CreatedAt       time.Time
}

func (Pending) isItem() {}

func (p Pending) Timestamp() time.Time { return p.CreatedAt }

// Confirmed wraps a server message.
type Confirmed struct {
	Message Message
}

func (Confirmed) isItem() {}

func (c Confirmed) Timestamp() time.Time { return c.Message.CreatedAt }
