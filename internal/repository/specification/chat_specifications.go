package specification

import (
	"time"

	"career-counselor-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

type ByTitle struct {
	Title string
}

func (s ByTitle) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title = ?", s.Title)
}

// ActiveSessions excludes soft-deleted sessions.
type ActiveSessions struct{}

func (s ActiveSessions) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

type ByRole struct {
	Role entity.MessageRole
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", string(s.Role))
}

type ByContent struct {
	Content string
}

func (s ByContent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content = ?", s.Content)
}

// CreatedBefore keeps rows positioned before a reference row in
// (created_at, id) order. Inclusive also keeps the reference row itself.
type CreatedBefore struct {
	CreatedAt time.Time
	ID        uuid.UUID
	Inclusive bool
}

func (s CreatedBefore) Apply(db *gorm.DB) *gorm.DB {
	if s.Inclusive {
		return db.Where("(created_at < ? OR (created_at = ? AND id <= ?))", s.CreatedAt, s.CreatedAt, s.ID)
	}
	return db.Where("(created_at < ? OR (created_at = ? AND id < ?))", s.CreatedAt, s.CreatedAt, s.ID)
}

// CreatedAfter keeps rows positioned strictly after a reference row.
type CreatedAfter struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

func (s CreatedAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(created_at > ? OR (created_at = ? AND id > ?))", s.CreatedAt, s.CreatedAt, s.ID)
}

// UpdatedAtOrBefore is the session listing keyset: the cursor row and
// everything less recent than it in (updated_at, id) order.
type UpdatedAtOrBefore struct {
	UpdatedAt time.Time
	ID        uuid.UUID
}

func (s UpdatedAtOrBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(updated_at < ? OR (updated_at = ? AND id <= ?))", s.UpdatedAt, s.UpdatedAt, s.ID)
}

// Newest orders by recency with id as the tiebreaker.
type Newest struct {
	Field string
}

func (s Newest) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(s.Field + " DESC").Order("id DESC")
}

// Oldest is the chronological counterpart of Newest.
type Oldest struct {
	Field string
}

func (s Oldest) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(s.Field + " ASC").Order("id ASC")
}
