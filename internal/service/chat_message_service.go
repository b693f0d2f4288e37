package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"career-counselor-be/internal/constant"
	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/pkg/apperror"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/repository/memory"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/pkg/events"

	"github.com/google/uuid"
)

type IChatMessageService interface {
	SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	ListMessages(ctx context.Context, userId, sessionId uuid.UUID, page dto.PageRequest) (*dto.MessagePageResponse, error)
	GetSummary(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SummaryResponse, error)
}

// ChatOptions tunes how much transcript is sent to the model.
type ChatOptions struct {
	HistoryLimit        int
	SummaryHistoryLimit int
}

type chatMessageService struct {
	uowFactory unitofwork.RepositoryFactory
	history    IHistoryFetcher
	completion ICompletionClient
	summaries  *memory.SummaryCache
	publisher  events.Publisher
	logger     logger.ILogger
	opts       ChatOptions
	now        func() time.Time
}

func NewChatMessageService(
	uowFactory unitofwork.RepositoryFactory,
	history IHistoryFetcher,
	completion ICompletionClient,
	summaries *memory.SummaryCache,
	publisher events.Publisher,
	log logger.ILogger,
	opts ChatOptions,
) IChatMessageService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = constant.DefaultHistoryLimit
	}
	if opts.SummaryHistoryLimit <= 0 {
		opts.SummaryHistoryLimit = constant.DefaultSummaryHistoryLimit
	}
	return &chatMessageService{
		uowFactory: uowFactory,
		history:    history,
		completion: completion,
		summaries:  summaries,
		publisher:  publisher,
		logger:     log,
		opts:       opts,
		now:        defaultClock,
	}
}

func validateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperror.New(apperror.ErrInvalidInput, "message content must not be empty")
	}
	if utf8.RuneCountInString(content) > constant.MaxMessageLength {
		return apperror.New(apperror.ErrInvalidInput, "message content must be at most 4000 characters")
	}
	return nil
}

// SendMessage persists the user turn, asks the model for a reply and
// persists that too. The user turn survives a failed completion and its id
// is the handle for a later retry.
func (s *chatMessageService) SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if err := validateMessageContent(req.Content); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := authorizeSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.resolveUserTurn(ctx, uow, session.Id, req)
	if err != nil {
		return nil, err
	}

	history, err := s.history.FetchHistory(ctx, session.Id, s.opts.HistoryLimit, userMsg)
	if err != nil {
		return nil, err
	}

	completion, err := s.completion.Complete(ctx, history, userMsg.Content)
	if err != nil {
		s.logger.Warn("CHAT", "Completion failed, user turn kept for retry", map[string]interface{}{
			"session_id": session.Id.String(),
			"message_id": userMsg.Id.String(),
			"error":      err.Error(),
		})
		publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeCompletionFailed, map[string]interface{}{
			"user_id":    userId.String(),
			"session_id": session.Id.String(),
			"message_id": userMsg.Id.String(),
			"is_retry":   req.IsRetry,
		}))

		var appErr *apperror.Error
		if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrUpstreamFailure) {
			appErr = apperror.Wrap(apperror.ErrUpstreamFailure, "The counselor is unavailable right now, please retry", err)
		}
		return nil, appErr.WithData(&dto.SendMessageFailure{UserMessage: toMessageResponse(userMsg)})
	}

	aiMsg := &entity.Message{
		Id:            newTimeOrderedID(),
		ChatSessionId: session.Id,
		Role:          entity.MessageRoleAssistant,
		Content:       completion.Content,
		Metadata: map[string]interface{}{
			"model":      completion.Model,
			"latency_ms": completion.Latency.Milliseconds(),
		},
		CreatedAt: s.now(),
	}
	if err := uow.MessageRepository().Create(ctx, aiMsg); err != nil {
		return nil, err
	}
	if err := uow.ChatSessionRepository().Touch(ctx, session.Id, aiMsg.CreatedAt); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeMessageExchanged, map[string]interface{}{
		"user_id":         userId.String(),
		"session_id":      session.Id.String(),
		"user_message_id": userMsg.Id.String(),
		"ai_message_id":   aiMsg.Id.String(),
		"is_retry":        req.IsRetry,
		"latency_ms":      completion.Latency.Milliseconds(),
	}))

	return &dto.SendMessageResponse{
		UserMessage: toMessageResponse(userMsg),
		AiMessage:   toMessageResponse(aiMsg),
	}, nil
}

// resolveUserTurn returns the stored user turn for this request. A retry
// reuses an existing turn instead of duplicating it.
func (s *chatMessageService) resolveUserTurn(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID, req *dto.SendMessageRequest) (*entity.Message, error) {
	msgRepo := uow.MessageRepository()

	if req.IsRetry && req.RetryOfMessageId != nil {
		original, err := msgRepo.FindOne(ctx,
			specification.ByID{ID: *req.RetryOfMessageId},
			specification.ByChatSessionID{ChatSessionID: sessionId},
			specification.ByRole{Role: entity.MessageRoleUser},
		)
		if err != nil {
			return nil, err
		}
		if original == nil {
			return nil, apperror.New(apperror.ErrNotFound, "Message to retry not found")
		}
		if original.Content != req.Content {
			return nil, apperror.New(apperror.ErrInvalidInput, "retry content does not match the original message")
		}
		return original, nil
	}

	if req.IsRetry {
		latest, err := msgRepo.FindOne(ctx,
			specification.ByChatSessionID{ChatSessionID: sessionId},
			specification.ByRole{Role: entity.MessageRoleUser},
			specification.ByContent{Content: req.Content},
			specification.Newest{Field: "created_at"},
		)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			return latest, nil
		}
	}

	userMsg := &entity.Message{
		Id:            newTimeOrderedID(),
		ChatSessionId: sessionId,
		Role:          entity.MessageRoleUser,
		Content:       req.Content,
		CreatedAt:     s.now(),
	}
	if err := msgRepo.Create(ctx, userMsg); err != nil {
		return nil, err
	}
	return userMsg, nil
}

func (s *chatMessageService) ListMessages(ctx context.Context, userId, sessionId uuid.UUID, page dto.PageRequest) (*dto.MessagePageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := authorizeSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	return pageMessages(ctx, uow, session.Id, page)
}

func (s *chatMessageService) GetSummary(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := authorizeSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	transcript, err := s.history.FetchHistory(ctx, session.Id, s.opts.SummaryHistoryLimit, nil)
	if err != nil {
		return nil, err
	}
	if len(transcript) == 0 {
		return &dto.SummaryResponse{Summary: ""}, nil
	}

	newest := transcript[len(transcript)-1].Id
	if s.summaries != nil {
		if cached, ok := s.summaries.Get(session.Id, newest); ok {
			return &dto.SummaryResponse{Summary: cached}, nil
		}
	}

	summary, err := s.completion.Summarize(ctx, transcript)
	if err != nil {
		return nil, err
	}

	if s.summaries != nil {
		s.summaries.Save(session.Id, newest, summary)
	}
	return &dto.SummaryResponse{Summary: summary}, nil
}
