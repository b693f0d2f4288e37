package model

import (
	"time"

	"github.com/google/uuid"
)

// Timestamps are written by the service clock, not by gorm, so that
// last-activity ordering follows the pipeline.
type ChatSession struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_sessions_listing,priority:1"`
	Title       string    `gorm:"type:varchar(100);not null"`
	Description *string   `gorm:"type:varchar(500)"`
	IsActive    bool      `gorm:"not null;index:idx_chat_sessions_listing,priority:2"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false;index:idx_chat_sessions_listing,priority:3"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
