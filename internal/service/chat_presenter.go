package service

import (
	"context"
	"time"

	"career-counselor-be/internal/constant"
	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/pkg/apperror"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

func defaultClock() time.Time {
	// Postgres keeps microseconds; truncating keeps returned and stored values equal.
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newTimeOrderedID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

func resolvePageLimit(limit, fallback int) (int, error) {
	if limit == 0 {
		return fallback, nil
	}
	if limit < 1 || limit > constant.MaxPageSize {
		return 0, apperror.New(apperror.ErrInvalidInput, "limit must be between 1 and 100")
	}
	return limit, nil
}

// authorizeSession resolves an active session owned by userId. Sessions of
// other users and deleted sessions are indistinguishable from missing ones.
func authorizeSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveSessions{},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.New(apperror.ErrNotFound, "Chat session not found")
	}
	return session, nil
}

// pageMessages walks a transcript backwards from cursor (inclusive) and
// returns the page in chronological order.
func pageMessages(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID, page dto.PageRequest) (*dto.MessagePageResponse, error) {
	limit, err := resolvePageLimit(page.Limit, constant.DefaultMessagePageSize)
	if err != nil {
		return nil, err
	}

	msgRepo := uow.MessageRepository()
	specs := []specification.Specification{
		specification.ByChatSessionID{ChatSessionID: sessionId},
	}
	if page.Cursor != nil {
		anchor, err := msgRepo.FindOne(ctx,
			specification.ByID{ID: *page.Cursor},
			specification.ByChatSessionID{ChatSessionID: sessionId},
		)
		if err != nil {
			return nil, err
		}
		if anchor == nil {
			return nil, apperror.New(apperror.ErrInvalidInput, "Invalid cursor")
		}
		specs = append(specs, specification.CreatedBefore{CreatedAt: anchor.CreatedAt, ID: anchor.Id, Inclusive: true})
	}
	specs = append(specs,
		specification.Newest{Field: "created_at"},
		specification.Pagination{Limit: limit + 1},
	)

	messages, err := msgRepo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.MessagePageResponse{}
	if len(messages) > limit {
		next := messages[limit].Id
		res.NextCursor = &next
		res.HasMore = true
		messages = messages[:limit]
	}
	reverseMessages(messages)

	res.Messages = make([]*dto.MessageResponse, 0, len(messages))
	for i, msg := range messages {
		item := toMessageResponse(msg)
		if msg.IsUser() {
			var successor *entity.Message
			if i+1 < len(messages) {
				successor = messages[i+1]
			} else {
				successor, err = msgRepo.FindOne(ctx,
					specification.ByChatSessionID{ChatSessionID: sessionId},
					specification.CreatedAfter{CreatedAt: msg.CreatedAt, ID: msg.Id},
					specification.Oldest{Field: "created_at"},
				)
				if err != nil {
					return nil, err
				}
			}
			item.Unanswered = successor == nil || successor.Role != entity.MessageRoleAssistant
		}
		res.Messages = append(res.Messages, item)
	}
	return res, nil
}

func toSessionResponse(s *entity.ChatSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:          s.Id,
		Title:       s.Title,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:            m.Id,
		ChatSessionId: m.ChatSessionId,
		Role:          string(m.Role),
		Content:       m.Content,
		CreatedAt:     m.CreatedAt,
	}
}
