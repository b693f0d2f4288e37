package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Message struct {
	Id            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ChatSessionId uuid.UUID         `gorm:"type:uuid;not null;index:idx_messages_transcript,priority:1"`
	Role          string            `gorm:"type:varchar(16);not null"`
	Content       string            `gorm:"type:text;not null"`
	Metadata      datatypes.JSONMap
	CreatedAt     time.Time         `gorm:"not null;autoCreateTime:false;index:idx_messages_transcript,priority:2"`
}

func (Message) TableName() string {
	return "messages"
}
