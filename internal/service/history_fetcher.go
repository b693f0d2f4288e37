package service

import (
	"context"

	"career-counselor-be/internal/constant"
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IHistoryFetcher loads the recent transcript of a session for prompting.
type IHistoryFetcher interface {
	// FetchHistory returns at most limit messages in chronological order.
	// When before is set only messages strictly preceding it are considered.
	FetchHistory(ctx context.Context, sessionId uuid.UUID, limit int, before *entity.Message) ([]*entity.Message, error)
}

type historyFetcher struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewHistoryFetcher(uowFactory unitofwork.RepositoryFactory) IHistoryFetcher {
	return &historyFetcher{uowFactory: uowFactory}
}

func (f *historyFetcher) FetchHistory(ctx context.Context, sessionId uuid.UUID, limit int, before *entity.Message) ([]*entity.Message, error) {
	if limit <= 0 {
		limit = constant.DefaultHistoryLimit
	}

	specs := []specification.Specification{
		specification.ByChatSessionID{ChatSessionID: sessionId},
	}
	if before != nil {
		specs = append(specs, specification.CreatedBefore{CreatedAt: before.CreatedAt, ID: before.Id})
	}
	specs = append(specs,
		specification.Newest{Field: "created_at"},
		specification.Pagination{Limit: limit},
	)

	uow := f.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.MessageRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	reverseMessages(messages)
	return messages, nil
}

func reverseMessages(messages []*entity.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
