package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type QuickStartRequest struct {
	TopicKey string `json:"topic_key" validate:"required"`
}

type UpdateSessionRequest struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// SendMessageRequest content is validated by the message pipeline itself,
// so every caller gets the same rules.
type SendMessageRequest struct {
	Content          string     `json:"content"`
	ChatSessionId    uuid.UUID  `json:"chat_session_id"`
	IsRetry          bool       `json:"is_retry"`
	RetryOfMessageId *uuid.UUID `json:"retry_of_message_id,omitempty"`
}

type PageRequest struct {
	Limit  int
	Cursor *uuid.UUID
}

type SessionResponse struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SessionListItem struct {
	SessionResponse
	MessageCount int64 `json:"message_count"`
}

type SessionListResponse struct {
	Sessions   []*SessionListItem `json:"sessions"`
	NextCursor *uuid.UUID         `json:"next_cursor,omitempty"`
}

type MessageResponse struct {
	Id            uuid.UUID `json:"id"`
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	Role          string    `json:"role"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	// Unanswered marks a user turn with no assistant reply after it.
	Unanswered bool `json:"unanswered,omitempty"`
}

type MessagePageResponse struct {
	Messages   []*MessageResponse `json:"messages"`
	NextCursor *uuid.UUID         `json:"next_cursor,omitempty"`
	HasMore    bool               `json:"has_more"`
}

type SessionDetailResponse struct {
	Session *SessionResponse `json:"session"`
	MessagePageResponse
}

type SendMessageResponse struct {
	UserMessage *MessageResponse `json:"user_message"`
	AiMessage   *MessageResponse `json:"ai_message"`
}

// SendMessageFailure is attached to an upstream failure so the client can
// retry against the already stored user turn.
type SendMessageFailure struct {
	UserMessage *MessageResponse `json:"user_message"`
}

type DeleteSessionResponse struct {
	Success bool `json:"success"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

type TopicResponse struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
