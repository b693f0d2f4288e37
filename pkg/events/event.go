package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event types published by the chat backend.
const (
	TypeUserRegistered     = "USER_REGISTERED"
	TypeUserLogin          = "USER_LOGIN"
	TypeChatSessionCreated = "CHAT_SESSION_CREATED"
	TypeChatSessionDeleted = "CHAT_SESSION_DELETED"
	TypeMessageExchanged   = "MESSAGE_EXCHANGED"
	TypeCompletionFailed   = "COMPLETION_FAILED"
)

// SubjectPrefix namespaces event subjects on the bus.
const SubjectPrefix = "events."

// AllSubjects matches every event subject.
const AllSubjects = SubjectPrefix + ">"

// Event defines the contract for all system events.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

// Subject is the bus subject an event is published on.
func Subject(e Event) string {
	return SubjectPrefix + e.EventType()
}

// MatchSubject reports whether subject satisfies pattern. Only the
// trailing ">" wildcard is supported.
func MatchSubject(pattern, subject string) bool {
	if strings.HasSuffix(pattern, ">") {
		return strings.HasPrefix(subject, strings.TrimSuffix(pattern, ">"))
	}
	return pattern == subject
}

type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// Marshal encodes an event into its wire envelope.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(envelope{Type: e.EventType(), OccurredAt: e.Timestamp(), Data: e.Payload()})
}

// Unmarshal decodes a wire envelope back into a BaseEvent.
func Unmarshal(data []byte) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("decode event envelope: %w", err)
	}
	if env.Type == "" {
		return BaseEvent{}, fmt.Errorf("event envelope has no type")
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

// Handler processes a delivered event. A non-nil error requests redelivery.
type Handler func(ctx context.Context, event Event) error

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

type Subscriber interface {
	Subscribe(subject, durableName string, handler Handler) error
	Close()
}
