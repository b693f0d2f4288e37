package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageRole is closed: a stored message is either the user's turn or the
// assistant's reply. The counselor persona is never persisted.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "USER"
	MessageRoleAssistant MessageRole = "ASSISTANT"
)

func ParseMessageRole(s string) (MessageRole, error) {
	switch MessageRole(s) {
	case MessageRoleUser:
		return MessageRoleUser, nil
	case MessageRoleAssistant:
		return MessageRoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown message role %q", s)
	}
}

type Message struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          MessageRole
	Content       string
	Metadata      map[string]interface{}
	CreatedAt     time.Time
}

func (m *Message) IsUser() bool {
	return m.Role == MessageRoleUser
}
