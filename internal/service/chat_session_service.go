package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"career-counselor-be/internal/constant"
	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/pkg/apperror"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/pkg/events"

	"github.com/google/uuid"
)

type IChatSessionService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	QuickStart(ctx context.Context, userId uuid.UUID, req *dto.QuickStartRequest) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, userId uuid.UUID, page dto.PageRequest) (*dto.SessionListResponse, error)
	GetSession(ctx context.Context, userId, sessionId uuid.UUID, page dto.PageRequest) (*dto.SessionDetailResponse, error)
	UpdateSession(ctx context.Context, userId, sessionId uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.DeleteSessionResponse, error)
	GetTopics(ctx context.Context) []*dto.TopicResponse
}

type chatSessionService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	logger     logger.ILogger
	now        func() time.Time
}

func NewChatSessionService(uowFactory unitofwork.RepositoryFactory, publisher events.Publisher, log logger.ILogger) IChatSessionService {
	return &chatSessionService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
		now:        defaultClock,
	}
}

func normalizeSessionFields(title string, description *string) (string, *string, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > constant.MaxTitleLength {
		return "", nil, apperror.New(apperror.ErrInvalidInput, "title must be between 1 and 100 characters")
	}
	if description == nil {
		return title, nil, nil
	}
	desc := strings.TrimSpace(*description)
	if utf8.RuneCountInString(desc) > constant.MaxDescriptionLength {
		return "", nil, apperror.New(apperror.ErrInvalidInput, "description must be at most 500 characters")
	}
	if desc == "" {
		return title, nil, nil
	}
	return title, &desc, nil
}

func (s *chatSessionService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	title, description, err := normalizeSessionFields(req.Title, req.Description)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &entity.ChatSession{
		Id:          newTimeOrderedID(),
		UserId:      userId,
		Title:       title,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeChatSessionCreated, map[string]interface{}{
		"user_id":    userId.String(),
		"session_id": session.Id.String(),
		"title":      session.Title,
	}))

	return toSessionResponse(session), nil
}

func (s *chatSessionService) QuickStart(ctx context.Context, userId uuid.UUID, req *dto.QuickStartRequest) (*dto.SessionResponse, error) {
	topic, ok := constant.FindTopic(req.TopicKey)
	if !ok {
		return nil, apperror.New(apperror.ErrInvalidInput, "unknown quick-start topic")
	}
	description := topic.Description
	return s.CreateSession(ctx, userId, &dto.CreateSessionRequest{
		Title:       topic.Title,
		Description: &description,
	})
}

func (s *chatSessionService) ListSessions(ctx context.Context, userId uuid.UUID, page dto.PageRequest) (*dto.SessionListResponse, error) {
	limit, err := resolvePageLimit(page.Limit, constant.DefaultSessionPageSize)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessionRepo := uow.ChatSessionRepository()

	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveSessions{},
	}
	if page.Cursor != nil {
		anchor, err := sessionRepo.FindOne(ctx,
			specification.ByID{ID: *page.Cursor},
			specification.UserOwnedBy{UserID: userId},
			specification.ActiveSessions{},
		)
		if err != nil {
			return nil, err
		}
		if anchor == nil {
			return nil, apperror.New(apperror.ErrInvalidInput, "Invalid cursor")
		}
		specs = append(specs, specification.UpdatedAtOrBefore{UpdatedAt: anchor.UpdatedAt, ID: anchor.Id})
	}
	specs = append(specs,
		specification.Newest{Field: "updated_at"},
		specification.Pagination{Limit: limit + 1},
	)

	sessions, err := sessionRepo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.SessionListResponse{}
	if len(sessions) > limit {
		next := sessions[limit].Id
		res.NextCursor = &next
		sessions = sessions[:limit]
	}

	ids := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.Id)
	}
	counts, err := uow.MessageRepository().CountBySessionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	res.Sessions = make([]*dto.SessionListItem, 0, len(sessions))
	for _, session := range sessions {
		res.Sessions = append(res.Sessions, &dto.SessionListItem{
			SessionResponse: *toSessionResponse(session),
			MessageCount:    counts[session.Id],
		})
	}
	return res, nil
}

func (s *chatSessionService) GetSession(ctx context.Context, userId, sessionId uuid.UUID, page dto.PageRequest) (*dto.SessionDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := authorizeSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := pageMessages(ctx, uow, session.Id, page)
	if err != nil {
		return nil, err
	}

	return &dto.SessionDetailResponse{
		Session:             toSessionResponse(session),
		MessagePageResponse: *messages,
	}, nil
}

func (s *chatSessionService) UpdateSession(ctx context.Context, userId, sessionId uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	title, description, err := normalizeSessionFields(req.Title, req.Description)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := authorizeSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	session.Title = title
	session.Description = description
	session.UpdatedAt = s.now()
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// DeleteSession is a soft delete; messages are kept.
func (s *chatSessionService) DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.DeleteSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := authorizeSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	if err := uow.ChatSessionRepository().Deactivate(ctx, session.Id); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeChatSessionDeleted, map[string]interface{}{
		"user_id":    userId.String(),
		"session_id": session.Id.String(),
	}))

	return &dto.DeleteSessionResponse{Success: true}, nil
}

func (s *chatSessionService) GetTopics(ctx context.Context) []*dto.TopicResponse {
	topics := make([]*dto.TopicResponse, 0, len(constant.QuickStartTopics))
	for _, t := range constant.QuickStartTopics {
		topics = append(topics, &dto.TopicResponse{
			Key:         t.Key,
			Title:       t.Title,
			Description: t.Description,
		})
	}
	return topics
}
