package mapper

import (
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}
	return &entity.ChatSession{
		Id:          s.Id,
		UserId:      s.UserId,
		Title:       s.Title,
		Description: s.Description,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}
	return &model.ChatSession{
		Id:          s.Id,
		UserId:      s.UserId,
		Title:       s.Title,
		Description: s.Description,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Message Mappers

// MessageToEntity returns an error for rows whose role is outside the
// closed USER/ASSISTANT set instead of passing an arbitrary string through.
func (m *ChatMapper) MessageToEntity(msg *model.Message) (*entity.Message, error) {
	if msg == nil {
		return nil, nil
	}
	role, err := entity.ParseMessageRole(msg.Role)
	if err != nil {
		return nil, err
	}
	var metadata map[string]interface{}
	if len(msg.Metadata) > 0 {
		metadata = map[string]interface{}(msg.Metadata)
	}
	return &entity.Message{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          role,
		Content:       msg.Content,
		Metadata:      metadata,
		CreatedAt:     msg.CreatedAt,
	}, nil
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	var metadata datatypes.JSONMap
	if msg.Metadata != nil {
		metadata = datatypes.JSONMap(msg.Metadata)
	}
	return &model.Message{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          string(msg.Role),
		Content:       msg.Content,
		Metadata:      metadata,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(models []*model.Message) ([]*entity.Message, error) {
	entities := make([]*entity.Message, 0, len(models))
	for _, msg := range models {
		e, err := m.MessageToEntity(msg)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}
